package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/cleanup"
	"github.com/plexsweep/plexsweep/internal/config"
	"github.com/plexsweep/plexsweep/internal/executor"
	"github.com/plexsweep/plexsweep/internal/history"
	"github.com/plexsweep/plexsweep/internal/logger"
	"github.com/plexsweep/plexsweep/internal/report"
	"github.com/plexsweep/plexsweep/internal/scanner"
	"github.com/plexsweep/plexsweep/internal/scheduler"
	"github.com/plexsweep/plexsweep/internal/testutil"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	cfg.Plex.Token = "secret-token"
	store := config.NewStore(cfg)

	tdb := testutil.NewTestDB(t)
	t.Cleanup(tdb.Close)
	hist := history.NewService(tdb.Conn, tdb.Logger)

	reports := report.NewStore(filepath.Join(dir, "reports"), 5, zerolog.Nop())
	writer := report.NewWriter(config.ReportingConfig{OutputDir: filepath.Join(dir, "reports"), GenerateJSON: true}, zerolog.Nop())

	sc := scanner.New(nil, nil, zerolog.Nop())
	cleanupSvc := cleanup.NewService(store.Get, sc, nil, writer, reports, hist, nil, zerolog.Nop())

	sched, err := scheduler.New(zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sched.Stop() })
	manager, err := scheduler.NewManager(filepath.Join(dir, "schedule.yaml"), sched, cleanupSvc, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	exec := executor.New(store.Get, dir, nil, nil, nil, hist, zerolog.Nop())

	stream := logger.NewStream(10)
	stream.Write([]byte(`{"level":"info","message":"server started"}`))

	return NewServer(Deps{
		Config:    store,
		Cleanup:   cleanupSvc,
		Executor:  exec,
		History:   hist,
		Reports:   reports,
		Schedule:  manager,
		Hub:       nil,
		LogStream: stream,
	}, zerolog.Nop())
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Errorf("resp = %v", resp)
	}
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if _, ok := resp["analysis"]; !ok {
		t.Error("status missing analysis snapshot")
	}
	if resp["plexConnected"] != false {
		t.Error("plexConnected = true without a Plex client")
	}
}

func TestGetConfigMasksSecrets(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret-token") {
		t.Error("plex token leaked in config response")
	}
	if !strings.Contains(rec.Body.String(), "********") {
		t.Error("masked token missing")
	}
}

func TestUpdateConfigKeepsMaskedSecrets(t *testing.T) {
	s := newTestServer(t)

	body := `{"plex":{"url":"http://plex:32400","token":"********","timeout":60}}`
	rec := doRequest(t, s, http.MethodPut, "/api/v1/config", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	cfg := s.deps.Config.Get()
	if cfg.Plex.Token != "secret-token" {
		t.Errorf("token = %q, want original kept", cfg.Plex.Token)
	}
	if cfg.Plex.URL != "http://plex:32400" {
		t.Errorf("url = %q, want updated", cfg.Plex.URL)
	}
}

func TestUpdateConfigRejectsInvalid(t *testing.T) {
	s := newTestServer(t)
	body := `{"libraries":[{"id":"1","name":"Movies","type":"movie","rules":"missing"}]}`
	rec := doRequest(t, s, http.MethodPut, "/api/v1/config", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLogs(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/logs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var entries []logger.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Message != "server started" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestAnalysisStatusEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/analysis/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var st cleanup.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Running || st.Stage != cleanup.StageIdle {
		t.Errorf("status = %+v", st)
	}
}

func TestScheduleRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/schedule", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}

	body := `{"enabled":true,"time":"02:30","cadence":"weekly","dayOfWeek":"sunday"}`
	rec = doRequest(t, s, http.MethodPut, "/api/v1/schedule", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/v1/schedule", "")
	if !strings.Contains(rec.Body.String(), `"cadence":"weekly"`) {
		t.Errorf("schedule not persisted: %s", rec.Body.String())
	}
}

func TestScheduleRejectsBadTime(t *testing.T) {
	s := newTestServer(t)
	body := `{"enabled":true,"time":"25:99","cadence":"daily"}`
	rec := doRequest(t, s, http.MethodPut, "/api/v1/schedule", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestReportsEmpty(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/reports", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"reports":[]`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestLatestPlanMissing(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/reports/latest", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestExecuteRequiresSelection(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/execute", `{"plexIds":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/v1/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"events":[]`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
