package engine

import (
	"context"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"auracast/internal/core/features"
	"auracast/internal/core/model"
	"auracast/internal/core/model/modeltest"
	perr "auracast/internal/platform/errors"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) Observe(op string, ok bool, code perr.ErrorCode, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ok {
		r.calls = append(r.calls, op+":ok")
		return
	}
	r.calls = append(r.calls, op+":"+code.String())
}

func ready(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Load(""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return e
}

func baseline(t *testing.T, e *Engine) Request {
	t.Helper()
	m, ok := e.Model()
	if !ok {
		t.Fatalf("engine not ready")
	}
	return Request{ID: "day-1", Features: features.Baseline(m)}
}

func intp(v int) *int { return &v }

func TestNotReady(t *testing.T) {
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.Ready() {
		t.Fatalf("ready before install")
	}
	req := Request{ID: "x", Features: modeltest.Const(12, 0)}
	if _, err := e.Posteriors(context.Background(), req); !perr.IsCode(err, perr.ErrorCodeNotReady) {
		t.Fatalf("posteriors: %v", err)
	}
	if _, err := e.Risk(context.Background(), req); !perr.IsCode(err, perr.ErrorCodeNotReady) {
		t.Fatalf("risk: %v", err)
	}
	_, err = e.TopK(context.Background(), req, intp(3))
	if !perr.IsCode(err, perr.ErrorCodeNotReady) || !perr.Retryable(err) {
		t.Fatalf("topk: %v", err)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget = 0
	if _, err := New(cfg); !perr.IsCode(err, perr.ErrorCodeInvalidParameter) {
		t.Fatalf("zero budget: %v", err)
	}
	cfg = DefaultConfig()
	cfg.Policy.Weights.Gradient = -1
	if _, err := New(cfg); !perr.IsCode(err, perr.ErrorCodeInvalidParameter) {
		t.Fatalf("negative weight: %v", err)
	}
}

func TestBaselineScenario(t *testing.T) {
	e := ready(t)
	req := baseline(t, e)

	r, err := e.Risk(context.Background(), req)
	if err != nil {
		t.Fatalf("Risk: %v", err)
	}
	if r.Risk.Mean < 0.02 || r.Risk.Mean > 0.98 {
		t.Fatalf("baseline risk %v is extreme", r.Risk.Mean)
	}
	if !(0 <= r.Risk.Lower && r.Risk.Lower <= r.Risk.Mean && r.Risk.Mean <= r.Risk.Upper && r.Risk.Upper <= 1) {
		t.Fatalf("bounds violated: %+v", r.Risk)
	}
	if r.RequestID != "day-1" || r.ModelVersion == "" || r.Digest == "" || r.ProducedAt.IsZero() {
		t.Fatalf("meta incomplete: %+v", r.Meta)
	}

	top, err := e.TopK(context.Background(), req, intp(3))
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}
	if top.K != 3 || len(top.Hours) != 3 {
		t.Fatalf("got %+v", top)
	}
	seen := map[int]bool{}
	for i, h := range top.Hours {
		if seen[h.Hour] || h.Hour < 0 || h.Hour > 23 {
			t.Fatalf("bad hour list %+v", top.Hours)
		}
		seen[h.Hour] = true
		if i > 0 && top.Hours[i-1].Score < h.Score {
			t.Fatalf("scores increase: %+v", top.Hours)
		}
	}
}

func TestPosteriorsNamed(t *testing.T) {
	e := ready(t)
	p, err := e.Posteriors(context.Background(), baseline(t, e))
	if err != nil {
		t.Fatalf("Posteriors: %v", err)
	}
	if strings.Join(p.Latents, ",") != "stress,sleep_debt,hormonal,environmental" {
		t.Fatalf("latents = %v", p.Latents)
	}
	if len(p.Hours) != model.Hours {
		t.Fatalf("hours = %d", len(p.Hours))
	}
}

func TestDefaultK(t *testing.T) {
	e := ready(t)
	top, err := e.TopK(context.Background(), baseline(t, e), nil)
	if err != nil {
		t.Fatalf("TopK: %v", err)
	}
	if top.K != 3 || len(top.Hours) != 3 {
		t.Fatalf("default k not applied: %+v", top)
	}
	all, err := e.TopK(context.Background(), baseline(t, e), intp(24))
	if err != nil || len(all.Hours) != 24 {
		t.Fatalf("k=24: %v", err)
	}
}

func TestValidationBeforeCompute(t *testing.T) {
	rec := &recorder{}
	e := ready(t, WithObserver(rec))

	short := Request{ID: "short", Features: modeltest.Const(12, 0)[:23]}
	for _, k := range []int{0, 25} {
		// k is checked before the matrix
		_, err := e.TopK(context.Background(), short, intp(k))
		if !perr.IsCode(err, perr.ErrorCodeInvalidParameter) || perr.Retryable(err) {
			t.Fatalf("k=%d: %v", k, err)
		}
	}

	_, err := e.Risk(context.Background(), short)
	if !perr.IsCode(err, perr.ErrorCodeShapeMismatch) {
		t.Fatalf("short: %v", err)
	}
	if !strings.Contains(err.Error(), "expected [24,12]") || !strings.Contains(err.Error(), "got [23,12]") {
		t.Fatalf("shape message %q", err.Error())
	}

	narrow := Request{ID: "narrow", Features: modeltest.Const(11, 0)}
	if _, err := e.Posteriors(context.Background(), narrow); !perr.IsCode(err, perr.ErrorCodeShapeMismatch) {
		t.Fatalf("narrow: %v", err)
	}

	bad := modeltest.Const(12, 0)
	bad[2][3] = math.Inf(1)
	if _, err := e.Risk(context.Background(), Request{Features: bad}); !perr.IsCode(err, perr.ErrorCodeInvalidParameter) {
		t.Fatalf("inf: %v", err)
	}

	want := []string{
		"topk:invalid_parameter", "topk:invalid_parameter",
		"risk:shape_mismatch", "posteriors:shape_mismatch", "risk:invalid_parameter",
	}
	if strings.Join(rec.calls, " ") != strings.Join(want, " ") {
		t.Fatalf("observed %v", rec.calls)
	}
}

func TestDeadlineIsTimeout(t *testing.T) {
	e := ready(t)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err := e.Risk(ctx, baseline(t, e))
	if !perr.IsCode(err, perr.ErrorCodeTimeout) || !perr.Retryable(err) {
		t.Fatalf("want retryable timeout, got %v", err)
	}
	_, err = e.TopK(ctx, baseline(t, e), intp(2))
	if !perr.IsCode(err, perr.ErrorCodeTimeout) {
		t.Fatalf("topk: %v", err)
	}
}

func TestDeterministicAcrossCalls(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := ready(t, WithClock(func() time.Time { return fixed }))
	req := Request{ID: "ramp", Features: modeltest.Ramp(12)}

	first, err := e.Risk(context.Background(), req)
	if err != nil {
		t.Fatalf("Risk: %v", err)
	}
	var wg sync.WaitGroup
	results := make([]RiskResult, 6)
	errs := make([]error, 6)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Risk(context.Background(), req)
		}(i)
	}
	wg.Wait()
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
		if results[i] != first {
			t.Fatalf("call %d differs: %+v vs %+v", i, results[i], first)
		}
	}
	if !first.ProducedAt.Equal(fixed) {
		t.Fatalf("produced_at = %v", first.ProducedAt)
	}
}

func TestDegenerateModelCollapsesBounds(t *testing.T) {
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Install(modeltest.ZeroStd(t, 3, 2, 2)); err != nil {
		t.Fatalf("Install: %v", err)
	}
	r, err := e.Risk(context.Background(), Request{Features: modeltest.Ramp(3)})
	if err != nil {
		t.Fatalf("Risk: %v", err)
	}
	if r.Risk.Lower != r.Risk.Mean || r.Risk.Mean != r.Risk.Upper {
		t.Fatalf("bounds = %+v", r.Risk)
	}
}

func TestInstallSwapsAtomically(t *testing.T) {
	e := ready(t)
	small := modeltest.New(t, 3, 2, 2)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		big, _ := e.Model()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			m := big
			if i%2 == 0 {
				m = small
			}
			if err := e.Install(m); err != nil {
				t.Errorf("Install: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		// each request sees either model in full: F=12 or F=3, never a mix
		_, err := e.Posteriors(context.Background(), Request{Features: modeltest.Const(3, 0)})
		if err != nil && !perr.IsCode(err, perr.ErrorCodeShapeMismatch) {
			t.Fatalf("unexpected error during swap: %v", err)
		}
	}
	close(stop)
	wg.Wait()

	if err := e.Install(nil); !perr.IsCode(err, perr.ErrorCodeInvalidParameter) {
		t.Fatalf("nil install: %v", err)
	}
}
