package arr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/plexsweep/plexsweep/internal/config"
)

func TestSonarr_ContinuingSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/series" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "key" {
			t.Error("api key header missing")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":1,"title":"Severance","status":"continuing","monitored":true},
			{"id":2,"title":"The Wire","status":"ended","monitored":false},
			{"id":3,"title":"Next Season","status":"upcoming","monitored":true}
		]`))
	}))
	defer srv.Close()

	s := NewSonarr(config.ArrConfig{Enabled: true, URL: srv.URL, APIKey: "key"}, zerolog.Nop())
	continuing, err := s.ContinuingSeries(context.Background())
	if err != nil {
		t.Fatalf("ContinuingSeries() error = %v", err)
	}

	if !continuing["severance"] || !continuing["next season"] {
		t.Errorf("continuing = %v", continuing)
	}
	if continuing["the wire"] {
		t.Error("ended series marked continuing")
	}
}

func TestSonarr_ContinuingSeriesDisabled(t *testing.T) {
	s := NewSonarr(config.ArrConfig{Enabled: false}, zerolog.Nop())
	continuing, err := s.ContinuingSeries(context.Background())
	if err != nil {
		t.Fatalf("ContinuingSeries() error = %v", err)
	}
	if len(continuing) != 0 {
		t.Errorf("disabled client returned %d entries", len(continuing))
	}
}

func TestSonarr_ContinuingSeriesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSonarr(config.ArrConfig{Enabled: true, URL: srv.URL, APIKey: "key"}, zerolog.Nop())
	if _, err := s.ContinuingSeries(context.Background()); err == nil {
		t.Error("ContinuingSeries() error = nil, want API error")
	}
}

func TestSonarr_Unmonitor(t *testing.T) {
	var updated map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet:
			w.Write([]byte(`[{"id":7,"title":"Dark Matter","status":"ended","monitored":true,"qualityProfileId":4}]`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/v3/series/7":
			json.NewDecoder(r.Body).Decode(&updated)
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	s := NewSonarr(config.ArrConfig{Enabled: true, URL: srv.URL, APIKey: "key"}, zerolog.Nop())
	if err := s.Unmonitor(context.Background(), "dark matter"); err != nil {
		t.Fatalf("Unmonitor() error = %v", err)
	}

	if updated == nil {
		t.Fatal("no PUT received")
	}
	if monitored, _ := updated["monitored"].(bool); monitored {
		t.Error("PUT body still monitored")
	}
	// Unrelated fields survive the round trip.
	if q, _ := updated["qualityProfileId"].(float64); q != 4 {
		t.Errorf("qualityProfileId = %v", updated["qualityProfileId"])
	}
}

func TestSonarr_UnmonitorNoMatchIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected %s request", r.Method)
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	s := NewSonarr(config.ArrConfig{Enabled: true, URL: srv.URL, APIKey: "key"}, zerolog.Nop())
	if err := s.Unmonitor(context.Background(), "ghost"); err != nil {
		t.Errorf("Unmonitor() error = %v, want nil for a miss", err)
	}
}

func TestRadarr_UnmonitorMatchesYear(t *testing.T) {
	var putPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`[
				{"id":1,"title":"Dune","year":1984,"monitored":true},
				{"id":2,"title":"Dune","year":2021,"monitored":true}
			]`))
		case http.MethodPut:
			putPath = r.URL.Path
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	rc := NewRadarr(config.ArrConfig{Enabled: true, URL: srv.URL, APIKey: "key"}, zerolog.Nop())
	if err := rc.Unmonitor(context.Background(), "Dune", 2021); err != nil {
		t.Fatalf("Unmonitor() error = %v", err)
	}
	if putPath != "/api/v3/movie/2" {
		t.Errorf("PUT path = %q, want /api/v3/movie/2", putPath)
	}
}

func TestRadarr_UnmonitorAlreadyUnmonitored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			t.Error("PUT sent for an already unmonitored movie")
		}
		w.Write([]byte(`[{"id":1,"title":"Heat","year":1995,"monitored":false}]`))
	}))
	defer srv.Close()

	rc := NewRadarr(config.ArrConfig{Enabled: true, URL: srv.URL, APIKey: "key"}, zerolog.Nop())
	if err := rc.Unmonitor(context.Background(), "Heat", 1995); err != nil {
		t.Errorf("Unmonitor() error = %v", err)
	}
}
