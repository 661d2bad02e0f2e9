package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/troupekit/troupe/internal/transcript"
)

func TestRecordEvent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/events" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	t.Setenv("TROUPE_URL", srv.URL)
	c := NewClient()

	if err := c.RecordEvent("kevin", "neiv", "teasing", 0.4, -2, "ribbed him about the loss"); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if got["source_id"] != "kevin" || got["event_type"] != "teasing" {
		t.Errorf("payload = %v", got)
	}
	if got["affinity_delta"] != float64(-2) {
		t.Errorf("affinity_delta = %v", got["affinity_delta"])
	}
}

func TestSubmitSweep(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sweep" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Setenv("TROUPE_URL", srv.URL)
	c := NewClient()

	msgs := []transcript.Message{{Speaker: "kevin", Content: "hello"}}
	if err := c.SubmitSweep(msgs); err != nil {
		t.Fatalf("SubmitSweep: %v", err)
	}
}

func TestPostErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	t.Setenv("TROUPE_URL", srv.URL)
	c := NewClient()

	if err := c.RecordEvent("kevin", "", "teasing", 0, 0, ""); err == nil {
		t.Error("expected error for 4xx response")
	}
}

func TestHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Setenv("TROUPE_URL", srv.URL)
	if !NewClient().Healthy() {
		t.Error("expected healthy")
	}

	srv.Close()
	if NewClient().Healthy() {
		t.Error("expected unhealthy after server shutdown")
	}
}
