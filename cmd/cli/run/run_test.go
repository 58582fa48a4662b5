package run

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRunCmd(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantPath string
		wantAuth string
	}{
		{"v1", nil, "/v1/runs", "Bearer op-token"},
		{"legacy", []string{"--legacy"}, "/api/run-birthday-service", "Bearer op-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != tt.wantPath {
					t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != tt.wantAuth {
					t.Errorf("Authorization = %q", got)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"status": true}`))
			}))
			defer srv.Close()
			t.Setenv("BDAY_API_URL", srv.URL)
			t.Setenv("BDAY_TOKEN", "op-token")

			var out bytes.Buffer
			cmd := runCmd()
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)
			if err := cmd.ExecuteContext(context.Background()); err != nil {
				t.Fatalf("run: %v", err)
			}
			if !strings.Contains(out.String(), "Run requested") {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}

func TestRunCmd_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid token"}`))
	}))
	defer srv.Close()
	t.Setenv("BDAY_API_URL", srv.URL)
	t.Setenv("BDAY_TOKEN", "stale")

	cmd := runCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)
	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "invalid token") {
		t.Fatalf("err = %v, want API error", err)
	}
}
