package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sensortag-sheets/sensortag-sheets/publish"
	"github.com/sensortag-sheets/sensortag-sheets/sensortag"
)

// Server is the status endpoint for a running logger.
type Server struct {
	started time.Time
	log     zerolog.Logger

	sync.RWMutex
	latest *sensortag.Reading
}

func New(log zerolog.Logger) *Server {
	return &Server{
		started: time.Now(),
		log:     log,
	}
}

// Update records the latest reading.
func (s *Server) Update(r sensortag.Reading) {
	s.Lock()
	defer s.Unlock()

	s.latest = &r
}

func (s *Server) Handler(registry *prometheus.Registry) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/readings/latest", s.readings).Methods(http.MethodGet)

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return handlers.RecoveryHandler()(handlers.CombinedLoggingHandler(os.Stdout, r))
}

// Run serves the status endpoint until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string, registry *prometheus.Registry) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdown); err != nil {
			s.log.Warn().Err(err).Msg("status server shutdown")
		}
	}()

	s.log.Info().Str("address", addr).Msg("status server listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.RLock()
	latest := s.latest
	s.RUnlock()

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}

	if latest != nil {
		response["last-reading"] = latest.Timestamp.Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) readings(w http.ResponseWriter, r *http.Request) {
	s.RLock()
	latest := s.latest
	s.RUnlock()

	if latest == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "no readings yet"})
		return
	}

	writeJSON(w, http.StatusOK, publish.NewMessage(*latest))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(v)
}
