package main

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/crucial707/birthday-service/cmd/cli/client"
	"github.com/crucial707/birthday-service/internal/birthday"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates
var templatesFS embed.FS

const (
	defaultPort = "3001"
	defaultAPI  = "http://localhost:3000"
	envWebPort  = "BDAY_WEB_PORT"
	envAPIURL   = "BDAY_API_URL"
	envToken    = "BDAY_TOKEN"
)

var statusPage = template.Must(template.New("status.html").Funcs(template.FuncMap{
	"reportDate": birthday.FormatReportDate,
	"timestamp":  func(t *time.Time) string { return birthday.FormatTimestamp(*t) },
}).ParseFS(templatesFS, "templates/status.html"))

func main() {
	port := getEnv(envWebPort, defaultPort)
	apiBase := getEnv(envAPIURL, defaultAPI)
	api := client.New(apiBase, os.Getenv(envToken))

	slog.Info("Web UI running", "url", "http://localhost:"+port, "api", apiBase)
	if err := http.ListenAndServe(":"+port, newRouter(api)); err != nil {
		slog.Error("web UI stopped", "error", err)
		os.Exit(1)
	}
}

func newRouter(api *client.Client) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/", dashboard(api))
	r.Post("/run", triggerRun(api))
	return r
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type pageData struct {
	Status    *birthday.Status
	Error     string
	Triggered bool
}

func dashboard(api *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := pageData{Triggered: r.URL.Query().Get("triggered") == "1"}
		st, err := api.Status(r.Context())
		if err != nil {
			data.Error = err.Error()
		} else {
			data.Status = st
		}
		render(w, data)
	}
}

func triggerRun(api *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := api.TriggerRun(r.Context(), false); err != nil {
			render(w, pageData{Error: "Trigger failed: " + err.Error()})
			return
		}
		http.Redirect(w, r, "/?triggered=1", http.StatusSeeOther)
	}
}

func render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusPage.Execute(w, data); err != nil {
		slog.Error("template execute", "error", err)
	}
}
