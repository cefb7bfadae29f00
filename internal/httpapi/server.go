package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/bengreen/internal/dispatch"
	"github.com/hamed0406/bengreen/internal/domain"
	apimw "github.com/hamed0406/bengreen/internal/httpapi/middleware"
	"github.com/hamed0406/bengreen/internal/repo"
)

// Limits are per-client request rates for the two route groups.
type Limits struct {
	PublicRPM, PublicBurst int
	AdminRPM, AdminBurst   int
}

type Server struct {
	Logger     *zap.Logger
	Dispatcher *dispatch.Dispatcher
	Runs       repo.RunStore
	Gatherer   prometheus.Gatherer

	// Crashes names probes that would take the server down; they are
	// refused with 409. Nil allows every probe.
	Crashes func(name string) bool
}

func NewServer(l *zap.Logger, d *dispatch.Dispatcher, runs repo.RunStore, g prometheus.Gatherer) *Server {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return &Server{Logger: l, Dispatcher: d, Runs: runs, Gatherer: g}
}

func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, lim Limits) http.Handler {
	r := chi.NewRouter()
	r.Use(corsHandler(allowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(lim.PublicRPM, lim.PublicBurst))
		r.Use(apimw.RequireAny(keys))
		r.Get("/api/probes", s.handleListProbes)
		r.Get("/api/runs", s.handleListRuns)
		r.Get("/api/probes/{name}/last", s.handleLastRun)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(lim.AdminRPM, lim.AdminBurst))
		r.Use(apimw.RequireAdmin(keys))
		r.Post("/api/probes/{name}/run", s.handleRunProbe)
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	})
}

func (s *Server) handleListProbes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Dispatcher.Registry.Names())
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.Runs.List(r.Context())
	if err != nil {
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleLastRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.Dispatcher.Registry.Lookup(name); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "probe not found", "probe": name})
		return
	}
	run, err := s.Runs.LastByProbe(r.Context(), name)
	if err != nil {
		http.Error(w, "lookup error", http.StatusInternalServerError)
		return
	}
	if run == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no runs yet", "probe": name})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleRunProbe runs one probe synchronously. A failing probe is still a
// 200: the failure is the result.
func (s *Server) handleRunProbe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if s.Crashes != nil && s.Crashes(name) {
		s.Logger.Warn("api_probe_refused", zap.String("probe", name))
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "probe would crash the server; set FAULT_MODE=trap",
			"probe": name,
		})
		return
	}

	started := time.Now().UTC()
	out, ok := s.Dispatcher.RunOne(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "probe not found", "probe": name})
		return
	}

	run := &domain.Run{
		Probe:      name,
		Outcome:    out,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	if err := s.Runs.Append(r.Context(), run); err != nil {
		s.Logger.Warn("run_append_error", zap.String("probe", name), zap.Error(err))
	}

	s.Logger.Info("api_probe_run",
		zap.String("probe", name),
		zap.String("status", string(out.Status)),
		zap.Duration("elapsed", out.Duration),
	)
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
