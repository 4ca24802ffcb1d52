package middleware_test

import (
	"bytes"
	"compress/flate"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	perr "auracast/internal/platform/errors"
	"auracast/internal/platform/logger"
	pnet "auracast/internal/platform/net"
	"auracast/internal/platform/net/middleware"
)

// logs collects every line the root logger writes in this package
type syncBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuf) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuf) lines(t *testing.T) []map[string]any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]any
	for _, ln := range strings.Split(strings.TrimSpace(s.b.String()), "\n") {
		if ln == "" {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal([]byte(ln), &m); err != nil {
			t.Fatalf("log line %q: %v", ln, err)
		}
		out = append(out, m)
	}
	s.b.Reset()
	return out
}

var logs = &syncBuf{}

func TestMain(m *testing.M) {
	logger.Init(logger.Options{Level: "debug", Writer: logs})
	os.Exit(m.Run())
}

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

type port struct {
	sub, scope string
	err        error
}

func (p port) Parse(*http.Request) (string, string, error) { return p.sub, p.scope, p.err }

func TestAuthAndScope(t *testing.T) {
	var seen pnet.Caller
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = pnet.CallerOf(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	chain := func(p middleware.AuthPort, scope string) http.Handler {
		return middleware.Auth(p)(middleware.RequireScope(scope)(inner))
	}
	cases := []struct {
		name string
		p    middleware.AuthPort
		want int
	}{
		{"granted", port{sub: "admin", scope: "model:reload"}, http.StatusNoContent},
		{"wrong scope", port{sub: "admin", scope: "audit:read"}, http.StatusForbidden},
		{"parse fails", port{err: perr.Unauthorizedf("invalid bearer token")}, http.StatusUnauthorized},
		// without a port Auth is a no-op and the scope check has no caller
		{"no port", nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = pnet.Caller{}
			rec := httptest.NewRecorder()
			chain(tc.p, "model:reload").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/model/reload", nil))
			if rec.Code != tc.want {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
			if tc.want == http.StatusNoContent && seen.Subject != "admin" {
				t.Fatalf("caller = %+v", seen)
			}
		})
	}
}

func TestRecoverJSON(t *testing.T) {
	h := middleware.RequestID()(middleware.RecoverJSON(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nan in posterior")
	})))
	req := httptest.NewRequest(http.MethodPost, "/inference/risk", nil)
	req.Header.Set("X-Request-Id", "day-7")
	rec := httptest.NewRecorder()
	logs.lines(t)
	h.ServeHTTP(rec, req)

	var env struct {
		StatusCode int            `json:"status_code"`
		Code       perr.ErrorCode `json:"code"`
		RequestID  string         `json:"request_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusInternalServerError || env.Code != perr.ErrorCodePanic || env.RequestID != "day-7" {
		t.Fatalf("status=%d env=%+v", rec.Code, env)
	}
	if rec.Header().Get("X-Request-ID") != "day-7" {
		t.Fatalf("request id header = %q", rec.Header().Get("X-Request-ID"))
	}
	ls := logs.lines(t)
	if len(ls) != 1 || ls[0]["panic"] != "nan in posterior" || ls[0]["component"] != "http" {
		t.Fatalf("logs = %v", ls)
	}

	abort := middleware.RecoverJSON(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if v := recover(); !errors.Is(v.(error), http.ErrAbortHandler) {
			t.Fatalf("abort should propagate, got %v", v)
		}
	}()
	abort.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestAccessLog(t *testing.T) {
	slow := middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: time.Nanosecond})
	quiet := middleware.AccessLogZerolog(middleware.AccessLogOptions{})
	body := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(time.Millisecond)
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, "queued")
	})

	logs.lines(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/recent", nil)
	middleware.RequestID()(slow(body)).ServeHTTP(httptest.NewRecorder(), req)
	quiet(body).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	ls := logs.lines(t)
	if len(ls) != 2 {
		t.Fatalf("lines = %v", ls)
	}
	if ls[0]["level"] != "warn" || ls[0]["status"] != float64(http.StatusAccepted) || ls[0]["bytes"] != float64(6) || ls[0]["request_id"] == nil {
		t.Fatalf("slow line = %v", ls[0])
	}
	if ls[1]["level"] != "info" || ls[1]["path"] != "/x" {
		t.Fatalf("quiet line = %v", ls[1])
	}
}

func TestCompress(t *testing.T) {
	h := middleware.Compress(flate.BestSpeed)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"hours":[`+strings.Repeat("0.5,", 1024)+`0.5]}`)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("encoding = %q", rec.Header().Get("Content-Encoding"))
	}
}

func TestAllowContentType(t *testing.T) {
	h := middleware.AllowContentType("application/json")(http.HandlerFunc(ok))
	for ct, want := range map[string]int{
		"application/json":                http.StatusNoContent,
		"application/json; charset=utf-8": http.StatusNoContent,
		"text/csv":                        http.StatusUnsupportedMediaType,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("%s: %d", ct, rec.Code)
		}
	}
}

func TestThrottle(t *testing.T) {
	release, entered := make(chan struct{}), make(chan struct{})
	h := middleware.Throttle(1)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}()
	<-entered
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	close(release)
	<-done
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("overflow = %d", rec.Code)
	}
}

func TestCORS_Defaults(t *testing.T) {
	h := middleware.CORS(middleware.CORSOptions{AllowedOrigins: []string{"https://clinic.example"}})(http.HandlerFunc(ok))
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/policy/topk", nil)
	req.Header.Set("Origin", "https://clinic.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://clinic.example" ||
		!strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost) {
		t.Fatalf("headers = %v", rec.Header())
	}
}
