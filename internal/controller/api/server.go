// Package api is the HTTP gateway in front of the session lifecycle.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Freeeeeet/tutorpay/internal/auth"
	"github.com/Freeeeeet/tutorpay/internal/model"
	"github.com/Freeeeeet/tutorpay/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type sessionManager interface {
	StartSession(ctx context.Context, tutorID string, studentIDs []string) (*model.Session, error)
	EndSession(ctx context.Context, sessionID, callerID string) (*service.EndResult, error)
}

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// Server HTTP API сервиса
type Server struct {
	sessions       sessionManager
	auth           authenticator
	metricsHandler http.Handler
	logger         *zap.Logger
}

func NewServer(sessions sessionManager, authn authenticator, logger *zap.Logger) *Server {
	return &Server{
		sessions: sessions,
		auth:     authn,
		logger:   logger,
	}
}

// SetMetricsHandler включает /metrics
func (s *Server) SetMetricsHandler(h http.Handler) { s.metricsHandler = h }

// Handler возвращает chi роутер со всеми маршрутами
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireTutor)
		r.Post("/sessions/start", s.handleStartSession)
		r.Post("/sessions/end", s.handleEndSession)
	})

	return r
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
