// Package api is the HTTP surface: the telephony webhook that delivers
// conversation turns, plus health, status, and metrics endpoints.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/frontdesk/internal/controller"
	"github.com/MikeSquared-Agency/frontdesk/internal/session"
)

type Server struct {
	router   *chi.Mux
	srv      *http.Server
	ctrl     *controller.Controller
	sessions *session.Store
	logger   *slog.Logger
}

// turnRequest is one transcribed caller turn from the telephony provider.
// Utterance is empty for a silence or timeout turn.
type turnRequest struct {
	Utterance string `json:"utterance"`
}

// turnResponse tells the provider what to speak and whether to hang up.
type turnResponse struct {
	Reply string `json:"reply"`
	End   bool   `json:"end"`
}

func NewServer(port int, ctrl *controller.Controller, sessions *session.Store, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		ctrl:     ctrl,
		sessions: sessions,
		logger:   logger,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/frontdesk/status", s.status)
	router.Handle("/metrics", promhttp.Handler())
	router.Post("/api/v1/calls/{callID}/turn", s.turn)

	return s
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) turn(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	if callID == "" {
		http.Error(w, "missing call id", http.StatusBadRequest)
		return
	}

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	reply, end := s.ctrl.HandleTurn(r.Context(), callID, req.Utterance)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(turnResponse{Reply: reply, End: end})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"service":      "frontdesk",
		"active_calls": s.sessions.ActiveCount(),
	})
}
