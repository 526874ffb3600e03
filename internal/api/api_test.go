package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/levelup-labs/lifequest/internal/app/tracker"
	"github.com/levelup-labs/lifequest/internal/health"
	"github.com/levelup-labs/lifequest/internal/infra/sqlite"
)

var testNow = time.Date(2025, time.July, 18, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc := tracker.NewService(db, tracker.Options{
		Location: time.UTC,
		Clock:    func() time.Time { return testNow },
	})
	return NewServer(svc, opts)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
}

// ─── Health Check ───────────────────────────────────────────────────────────

func TestAPI_Health(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	w := do(t, h, "GET", "/health", "")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]string
	decodeBody(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, unexpected", body["status"])
	}
}

type fakeHealth struct{ ok bool }

func (f fakeHealth) Statuses() []health.Status {
	return []health.Status{{Name: "sqlite", Healthy: f.ok}}
}

func (f fakeHealth) IsHealthy() bool { return f.ok }

func TestAPI_HealthDegraded(t *testing.T) {
	h := newTestServer(t, Options{Health: fakeHealth{ok: false}}).Handler()
	w := do(t, h, "GET", "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var body struct {
		Status string          `json:"status"`
		Checks []health.Status `json:"checks"`
	}
	decodeBody(t, w, &body)
	if body.Status != "degraded" || len(body.Checks) != 1 {
		t.Errorf("body = %+v", body)
	}

	h = newTestServer(t, Options{Health: fakeHealth{ok: true}}).Handler()
	if w := do(t, h, "GET", "/health", ""); w.Code != http.StatusOK {
		t.Errorf("healthy status = %d", w.Code)
	}
}

func TestAPI_Version(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()
	if w := do(t, h, "GET", "/api/version", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAPI_MetricsOnlyWhenEnabled(t *testing.T) {
	off := newTestServer(t, Options{}).Handler()
	if w := do(t, off, "GET", "/metrics", ""); w.Code != http.StatusNotFound {
		t.Errorf("disabled /metrics status = %d", w.Code)
	}
	on := newTestServer(t, Options{MetricsEnabled: true}).Handler()
	w := do(t, on, "GET", "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "lifequest_") {
		t.Errorf("enabled /metrics status = %d", w.Code)
	}
}

// ─── Records & Tasks ────────────────────────────────────────────────────────

func TestAPI_TaskAndRecordFlow(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	w := do(t, h, "POST", "/api/users/ana/tasks", `{"name":"Running","unit":"km"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create task status = %d: %s", w.Code, w.Body.String())
	}
	var task struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decodeBody(t, w, &task)
	if task.ID == "" || task.Name != "Running" {
		t.Fatalf("task = %+v", task)
	}

	w = do(t, h, "POST", "/api/users/ana/records", `{"value":120,"task_type":"`+task.ID+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add record status = %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Record struct {
			Date string `json:"date"`
		} `json:"record"`
		Outcome struct {
			LevelAfter int `json:"level_after"`
		} `json:"outcome"`
	}
	decodeBody(t, w, &res)
	if res.Record.Date != "2025-07-18" {
		t.Errorf("record date defaulted to %q", res.Record.Date)
	}
	if res.Outcome.LevelAfter < 2 {
		t.Errorf("level after = %d", res.Outcome.LevelAfter)
	}

	w = do(t, h, "GET", "/api/users/ana/stats/total?from=2025-07-01&to=2025-07-31", "")
	var total struct {
		Total float64 `json:"total"`
	}
	decodeBody(t, w, &total)
	if total.Total != 120 {
		t.Errorf("total = %v", total.Total)
	}

	w = do(t, h, "GET", "/api/users/ana/dashboard", "")
	if w.Code != http.StatusOK {
		t.Errorf("dashboard status = %d", w.Code)
	}
}

func TestAPI_ErrorMapping(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"negative value", "POST", "/api/users/ana/records", `{"value":-3}`, http.StatusBadRequest},
		{"malformed body", "POST", "/api/users/ana/records", `{"value":`, http.StatusBadRequest},
		{"bad date", "GET", "/api/users/ana/stats/total?from=yesterday", "", http.StatusBadRequest},
		{"missing record", "DELETE", "/api/users/ana/records/nope", "", http.StatusNotFound},
		{"missing task", "POST", "/api/users/ana/goals/nope/evaluate", "", http.StatusNotFound},
		{"missing breach", "POST", "/api/users/ana/breaches/pact:nope/freeze", "", http.StatusNotFound},
		{"unknown friend", "POST", "/api/users/ana/friends", `{"friend_id":"ghost"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAPI_LockedPactIsConflict(t *testing.T) {
	srv := newTestServer(t, Options{})
	h := srv.Handler()

	w := do(t, h, "POST", "/api/users/ana/pacts", `{"text":"Call mom"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create pact status = %d: %s", w.Code, w.Body.String())
	}
	var pact struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &pact)

	testNow = testNow.AddDate(0, 0, 1)
	t.Cleanup(func() { testNow = testNow.AddDate(0, 0, -1) })

	w = do(t, h, "DELETE", "/api/users/ana/pacts/"+pact.ID, "")
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestAPI_WriteRateLimit(t *testing.T) {
	h := newTestServer(t, Options{WritesPerSec: 0.001, WriteBurst: 1}).Handler()

	if w := do(t, h, "POST", "/api/users/ana/records", `{"value":1}`); w.Code != http.StatusCreated {
		t.Fatalf("first write status = %d", w.Code)
	}
	w := do(t, h, "POST", "/api/users/ana/records", `{"value":1}`)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second write status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	// Reads are not limited.
	if w := do(t, h, "GET", "/api/users/ana/records", ""); w.Code != http.StatusOK {
		t.Errorf("read status = %d", w.Code)
	}
}

func TestAPI_CORS(t *testing.T) {
	h := newTestServer(t, Options{CORSOrigins: []string{"http://localhost:3000"}}).Handler()

	req := httptest.NewRequest("OPTIONS", "/api/users/ana/records", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("preflight = %d %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

func TestAPI_SkillUnlock(t *testing.T) {
	h := newTestServer(t, Options{}).Handler()

	w := do(t, h, "POST", "/api/users/ana/tasks", `{"name":"Reading"}`)
	var task struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &task)
	do(t, h, "POST", "/api/users/ana/records", `{"value":60,"task_type":"`+task.ID+`"}`)

	w = do(t, h, "POST", "/api/users/ana/constellations/"+task.ID+"/ember/unlock", "")
	if w.Code != http.StatusConflict {
		t.Errorf("ember before spark = %d", w.Code)
	}
	w = do(t, h, "POST", "/api/users/ana/constellations/"+task.ID+"/spark/unlock", "")
	if w.Code != http.StatusOK {
		t.Fatalf("spark = %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Unlocked        bool    `json:"unlocked"`
		AvailablePoints float64 `json:"available_points"`
	}
	decodeBody(t, w, &res)
	if !res.Unlocked || res.AvailablePoints != 10 {
		t.Errorf("unlock = %+v", res)
	}
}
