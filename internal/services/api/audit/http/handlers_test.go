package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	perr "auracast/internal/platform/errors"
	phttp "auracast/internal/platform/net/http"
	auditdom "auracast/internal/services/audit/domain"
)

type fakeQuery struct {
	limit int
	recs  []auditdom.Record
	err   error
}

func (f *fakeQuery) Recent(_ context.Context, limit int) ([]auditdom.Record, error) {
	f.limit = limit
	return f.recs, f.err
}

func (f *fakeQuery) ByRequest(_ context.Context, id string) (auditdom.Record, error) {
	for _, r := range f.recs {
		if r.RequestID == id {
			return r, nil
		}
	}
	if f.err != nil {
		return auditdom.Record{}, f.err
	}
	return auditdom.Record{}, perr.NotFoundf("no audit record for request %q", id)
}

func get(t *testing.T, q auditdom.QueryPort, path string) (int, phttp.Envelope) {
	t.Helper()
	m := chi.NewRouter()
	Register(phttp.AdaptChi(m), q)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, path, nil))
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, env
}

func TestRecent_PassesLimit(t *testing.T) {
	q := &fakeQuery{recs: []auditdom.Record{{RequestID: "a", Op: "risk", Code: "ok"}}}
	code, env := get(t, q, "/recent?limit=5")
	if code != stdhttp.StatusOK || q.limit != 5 {
		t.Fatalf("status=%d limit=%d", code, q.limit)
	}
	data, _ := env.Data.(map[string]any)
	if items, _ := data["items"].([]any); len(items) != 1 {
		t.Fatalf("data = %v", env.Data)
	}
}

func TestRecent_DefaultLimitAndEmpty(t *testing.T) {
	q := &fakeQuery{}
	code, env := get(t, q, "/recent")
	if code != stdhttp.StatusOK || q.limit != 0 {
		t.Fatalf("status=%d limit=%d", code, q.limit)
	}
	data, _ := env.Data.(map[string]any)
	if items, ok := data["items"].([]any); !ok || len(items) != 0 {
		t.Fatalf("items should be an empty list: %v", env.Data)
	}
}

func TestRecent_BadLimit(t *testing.T) {
	for _, v := range []string{"0", "-3", "ten"} {
		code, env := get(t, &fakeQuery{}, "/recent?limit="+v)
		if code != stdhttp.StatusUnprocessableEntity || env.Field != "limit" {
			t.Fatalf("%s: status=%d env=%+v", v, code, env)
		}
	}
}

func TestRecent_Unavailable(t *testing.T) {
	code, env := get(t, nil, "/recent")
	if code != stdhttp.StatusServiceUnavailable || !env.Retryable {
		t.Fatalf("status=%d env=%+v", code, env)
	}
	code, _ = get(t, &fakeQuery{err: perr.Unavailablef("audit store not configured")}, "/recent")
	if code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("status=%d", code)
	}
}

func TestLookup(t *testing.T) {
	q := &fakeQuery{recs: []auditdom.Record{{RequestID: "day-3", Op: "topk", Code: "ok", K: 2}}}

	code, env := get(t, q, "/lookup?request_id=day-3")
	if code != stdhttp.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if data, _ := env.Data.(map[string]any); data["request_id"] != "day-3" {
		t.Fatalf("data = %v", env.Data)
	}

	if code, env = get(t, q, "/lookup?request_id=other"); code != stdhttp.StatusNotFound {
		t.Fatalf("missing: status=%d env=%+v", code, env)
	}
	if code, env = get(t, q, "/lookup"); code != stdhttp.StatusUnprocessableEntity || env.Field != "request_id" {
		t.Fatalf("no id: status=%d env=%+v", code, env)
	}
	if code, env = get(t, q, "/lookup?request_id=has%20space"); code != stdhttp.StatusUnprocessableEntity || env.Field != "request_id" {
		t.Fatalf("malformed id: %d %+v", code, env)
	}
	if code, _ = get(t, nil, "/lookup?request_id=x"); code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("nil port: status=%d", code)
	}
}
