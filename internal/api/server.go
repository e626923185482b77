// Package api exposes the extraction pipeline over HTTP for the
// surrounding catalog application.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/nazoreki/nazoreki-api/internal/event"
)

// ExtractService is the pipeline surface the server needs.
type ExtractService interface {
	Extract(ctx context.Context, url string) (event.Extracted, error)
}

// Server serves the extraction endpoint plus health and metrics.
type Server struct {
	Extractor ExtractService
	Addr      string
	// AllowedOrigins configures CORS; empty allows all origins.
	AllowedOrigins []string
}

type extractRequest struct {
	URL string `json:"url"`
}

type extractResponse struct {
	Success   bool            `json:"success"`
	Data      event.Extracted `json:"data"`
	SourceURL string          `json:"sourceUrl"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Handler builds the full HTTP handler: routes wrapped in request-ID,
// access-log and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/extract-event", s.handleExtractEvent)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: s.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return requestID(accessLog(c.Handler(mux)))
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleExtractEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be JSON with a url field", "")
		return
	}
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "url is required", "")
		return
	}
	if u, err := url.Parse(rawURL); err != nil || !u.IsAbs() || u.Host == "" {
		writeError(w, http.StatusBadRequest, "url is not a valid absolute URL", "")
		return
	}

	ev, err := s.Extractor.Extract(r.Context(), rawURL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client went away; nothing useful to write.
			return
		}
		log.Error().Err(err).Str("url", rawURL).Msg("extraction failed")
		writeError(w, http.StatusInternalServerError, "failed to extract event information", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, extractResponse{Success: true, Data: ev, SourceURL: rawURL})
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}
