// Package api provides a read-only HTTP API over the run store.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/socweb/internal/persistence"
)

// Server serves recorded runs over HTTP.
type Server struct {
	DB   *persistence.DB
	Port int
}

// Handler returns the API routes wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	// Snapshot and network queries scan whole tables.
	queryLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/runs", s.handleRuns)
	mux.HandleFunc("GET /api/v1/run/{id}", s.handleRun)
	mux.HandleFunc("GET /api/v1/run/{id}/snapshot", RateLimitMiddleware(queryLimiter, s.handleSnapshot))
	mux.HandleFunc("GET /api/v1/run/{id}/species/{species}", s.handleSpeciesSeries)
	mux.HandleFunc("GET /api/v1/run/{id}/soc", s.handleSOC)
	mux.HandleFunc("GET /api/v1/run/{id}/networks", RateLimitMiddleware(queryLimiter, s.handleNetworks))

	return corsMiddleware(mux)
}

// Serve runs the API until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("HTTP API stopping")
		return srv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, 500)
	}
	runs, err := s.DB.Runs(limit)
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.DB.GetRun(r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}

	migrants, err := s.DB.TotalMigrants(run.ID)
	if err != nil {
		s.serverError(w, err)
		return
	}

	resp := map[string]any{
		"run":      run,
		"migrants": migrants,
	}
	if run.ParamsJSON != "" {
		resp["params"] = json.RawMessage(run.ParamsJSON)
	}
	if run.StatsJSON != nil {
		resp["stats"] = json.RawMessage(*run.StatsJSON)
	}
	writeJSON(w, resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	tick, ok := tickParam(w, r)
	if !ok {
		return
	}
	rows, err := s.DB.Snapshot(r.PathValue("id"), tick)
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, map[string]any{"tick": tick, "populations": rows})
}

func (s *Server) handleSpeciesSeries(w http.ResponseWriter, r *http.Request) {
	species, err := strconv.Atoi(r.PathValue("species"))
	if err != nil {
		http.Error(w, "invalid species id", http.StatusBadRequest)
		return
	}
	series, err := s.DB.SpeciesSeries(r.PathValue("id"), species)
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, map[string]any{"species": species, "totals": series})
}

func (s *Server) handleSOC(w http.ResponseWriter, r *http.Request) {
	rows, err := s.DB.SOC(r.PathValue("id"))
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, rows)
}

func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request) {
	tick, ok := tickParam(w, r)
	if !ok {
		return
	}
	rows, err := s.DB.NetworkLinks(r.PathValue("id"), tick)
	if err != nil {
		s.serverError(w, err)
		return
	}
	byKind := make(map[int][]persistence.LinkRow)
	for _, l := range rows {
		byKind[l.Kind] = append(byKind[l.Kind], l)
	}
	writeJSON(w, map[string]any{"tick": tick, "networks": byKind})
}

// tickParam reads the required ?tick= query parameter.
func tickParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	tick, err := strconv.Atoi(r.URL.Query().Get("tick"))
	if err != nil || tick < 0 {
		http.Error(w, "tick query parameter required", http.StatusBadRequest)
		return 0, false
	}
	return tick, true
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	slog.Error("api query failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
