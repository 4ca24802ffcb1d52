package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"auracast/internal/core/engine"
	"auracast/internal/core/model"
	"auracast/internal/core/model/modeltest"
	perr "auracast/internal/platform/errors"
	"auracast/internal/platform/testkit"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.DefaultConfig())
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return e
}

func writeWeights(t *testing.T, m *model.Model) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "weights.json")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if err := model.Encode(f, m); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return p
}

func TestNew_PanicsWithoutEngine(t *testing.T) {
	testkit.MustPanic(t, func() { _ = New(nil, "") })
}

func TestInfo_NotReady(t *testing.T) {
	s := New(newEngine(t), "")
	if _, err := s.Info(context.Background()); !perr.IsCode(err, perr.ErrorCodeNotReady) {
		t.Fatalf("err = %v", err)
	}
}

func TestInfo_DescribesModelAndConfig(t *testing.T) {
	e := newEngine(t)
	if err := e.Load(""); err != nil {
		t.Fatal(err)
	}
	info, err := New(e, "").Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	m, _ := e.Model()
	if info.Fingerprint != m.Fingerprint() || info.F != m.F() || info.Z != len(info.Latents) {
		t.Fatalf("info = %+v", info)
	}
	cfg := e.Config()
	if info.Sampling.Samples != cfg.Risk.Samples || info.DefaultK != cfg.Policy.DefaultK || info.BudgetMS != cfg.Budget.Milliseconds() {
		t.Fatalf("settings = %+v", info)
	}
}

func TestReload_SwapsWeights(t *testing.T) {
	e := newEngine(t)
	if err := e.Load(""); err != nil {
		t.Fatal(err)
	}
	old, _ := e.Model()

	path := writeWeights(t, modeltest.New(t, 3, 2, 4))
	out, err := New(e, path).Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if !out.Changed || out.Previous != old.Fingerprint() || out.Current.F != 3 || out.Current.Z != 2 {
		t.Fatalf("reload = %+v", out)
	}
	if out.ReloadedAt.IsZero() {
		t.Fatal("reloaded_at not stamped")
	}
}

func TestReload_SameWeightsUnchanged(t *testing.T) {
	e := newEngine(t)
	if err := e.Load(""); err != nil {
		t.Fatal(err)
	}
	out, err := New(e, "").Reload(context.Background())
	if err != nil || out.Changed {
		t.Fatalf("out=%+v err=%v", out, err)
	}
}

func TestReload_FailureKeepsCurrentModel(t *testing.T) {
	e := newEngine(t)
	if err := e.Load(""); err != nil {
		t.Fatal(err)
	}
	before, _ := e.Model()

	_, err := New(e, filepath.Join(t.TempDir(), "missing.json")).Reload(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"spec":`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(e, bad).Reload(context.Background()); !perr.IsCode(err, perr.ErrorCodeJSON) {
		t.Fatalf("bad json err = %v", err)
	}

	after, _ := e.Model()
	if after != before {
		t.Fatal("failed reload replaced the model")
	}
}

func TestReload_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(newEngine(t), "").Reload(ctx); !perr.IsCode(err, perr.ErrorCodeTimeout) {
		t.Fatalf("err = %v", err)
	}
}
