package module

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"auracast/internal/core/engine"
	"auracast/internal/core/features"
	"auracast/internal/modkit"
	"auracast/internal/modkit/module"
	"auracast/internal/platform/config"
	"auracast/internal/services/score/domain"
)

func TestFromConfig_Defaults(t *testing.T) {
	o := FromConfig(config.New().Prefix("SCORETEST_"))
	if o.Workers != 4 || o.KeepGoing || o.K != 0 || o.Timeout != 0 {
		t.Fatalf("defaults = %+v", o)
	}
}

func TestFromConfig_Env(t *testing.T) {
	t.Setenv("SCORETEST_CORE_SCORE_WORKERS", "8")
	t.Setenv("SCORETEST_CORE_SCORE_KEEP_GOING", "true")
	t.Setenv("SCORETEST_CORE_SCORE_K", "5")
	t.Setenv("SCORETEST_CORE_SCORE_TIMEOUT", "750ms")
	o := FromConfig(config.New().Prefix("SCORETEST_"))
	if o.Workers != 8 || !o.KeepGoing || o.K != 5 || o.Timeout != 750*time.Millisecond {
		t.Fatalf("env = %+v", o)
	}
}

func TestNew_RequiresEngine(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New(modkit.Deps{Cfg: config.New()}, Options{})
}

func TestNew_RunnerPortScores(t *testing.T) {
	e, err := engine.New(engine.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Load(""); err != nil {
		t.Fatal(err)
	}
	m, _ := e.Model()
	b, _ := json.Marshal(domain.DayFile{RequestID: "d1", Features: features.Baseline(m)})
	p := filepath.Join(t.TempDir(), "d1.json")
	if err := os.WriteFile(p, b, 0o600); err != nil {
		t.Fatal(err)
	}

	mod := New(modkit.Deps{Cfg: config.New().Prefix("SCORETEST_"), Engine: e}, Options{K: 4, Workers: 2})
	ports := module.MustPortsOf[Ports](mod)

	var buf bytes.Buffer
	sum, err := ports.Runner.Run(context.Background(), []string{p}, &buf)
	if err != nil || sum.OK != 1 {
		t.Fatalf("sum=%+v err=%v", sum, err)
	}
	var line domain.Line
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatal(err)
	}
	if line.TopK == nil || line.TopK.K != 4 {
		t.Fatalf("line = %+v", line)
	}
}
