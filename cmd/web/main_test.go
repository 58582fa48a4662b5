package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/crucial707/birthday-service/cmd/cli/client"
	"github.com/crucial707/birthday-service/internal/birthday"
)

func fakeAPI(t *testing.T, triggers *int) *httptest.Server {
	t.Helper()
	last := time.Date(2024, 2, 1, 0, 0, 5, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/status":
			json.NewEncoder(w).Encode(birthday.Status{
				LastExecution: &last,
				TargetDate:    "today",
				LastOutcome:   birthday.OutcomeCompleted,
				LastReport:    &birthday.Report{TargetDate: last, Succeeded: 3, Failed: 1},
			})
		case "/v1/runs":
			*triggers++
			w.Write([]byte(`{"status": true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDashboard(t *testing.T) {
	var triggers int
	api := fakeAPI(t, &triggers)
	h := newRouter(client.New(api.URL, "tok"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Report for 01 February, 2024", "completed", "<td>4</td>"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestTriggerRun_Redirects(t *testing.T) {
	var triggers int
	api := fakeAPI(t, &triggers)
	h := newRouter(client.New(api.URL, "tok"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/run", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if triggers != 1 {
		t.Errorf("triggers = %d, want 1", triggers)
	}
}

func TestDashboard_APIDown(t *testing.T) {
	api := httptest.NewServer(http.NotFoundHandler())
	url := api.URL
	api.Close()

	rec := httptest.NewRecorder()
	newRouter(client.New(url, "")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "failed to call API") {
		t.Errorf("expected error on page, got:\n%s", rec.Body.String())
	}
}
