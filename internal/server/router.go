package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bimmerbailey/jigyokei/internal/output"
)

// errBadRequest marks client errors in handlers.
var errBadRequest = errors.New("bad request")

func (s *Server) routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RealIP)
	mux.Use(requestID)
	mux.Use(s.accessLog)
	mux.Use(s.recordMetrics)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Get("/health", liveness)
	mux.Get("/ready", s.readiness)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.Get("/catalog", s.wrap(s.handleCatalog))

	mux.Group(func(r chi.Router) {
		r.Use(newRateLimiter(s.cfg.RateLimit, s.cfg.RateBurst).middleware)
		r.Post("/analyze", s.wrap(s.handleAnalyze))
		r.Post("/", s.wrap(s.handleAnalyze))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap converts handler errors into JSON error responses.
func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, output.ErrorResponse{
				Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			})
		case errors.Is(err, errBadRequest):
			writeJSON(w, http.StatusBadRequest, output.ErrorResponse{Error: err.Error()})
		default:
			s.logger.Error("request failed", "error", err, "path", r.URL.Path, "request_id", requestIDFrom(r.Context()))
			writeJSON(w, http.StatusInternalServerError, output.ErrorResponse{Error: "internal server error"})
		}
	}
}

type analyzeRequest struct {
	ConversationLog *string `json:"conversation_log"`
}

// POST /analyze and POST /
// Body: {"conversation_log": "..."}
// An empty analysis is reported as 200 with {"error": NoRisksMessage}.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var body analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	if body.ConversationLog == nil {
		return fmt.Errorf("%w: conversation_log is required", errBadRequest)
	}

	result := s.analyzer.Analyze(r.Context(), *body.ConversationLog)

	s.logger.Info("analysis completed",
		"risks", len(result.Risks),
		"request_id", requestIDFrom(r.Context()))

	writeJSON(w, http.StatusOK, output.BuildResponse(result))
	return nil
}

// GET /catalog
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, s.catalog)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
