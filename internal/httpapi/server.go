package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/michelleprabhu/bankchatbot/internal/chat"
	"github.com/michelleprabhu/bankchatbot/internal/config"
	"github.com/michelleprabhu/bankchatbot/internal/observability"
	"github.com/michelleprabhu/bankchatbot/internal/session"
)

// Asker answers a question within a session.
type Asker interface {
	Ask(ctx context.Context, sess *session.Session, query string) chat.Reply
}

// StoreChecker reports whether the knowledge graph is reachable.
type StoreChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	cfg      config.Config
	sessions *session.Manager
	asker    Asker
	store    StoreChecker
	metrics  *observability.Metrics
	logger   *zap.Logger
	limiters *limiterSet
	upgrader websocket.Upgrader
	static   http.Handler
}

// New builds the HTTP server. store may be nil, in which case /readyz always
// reports ready.
func New(cfg config.Config, sessions *session.Manager, asker Asker, store StoreChecker, metrics *observability.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		asker:    asker,
		store:    store,
		metrics:  metrics,
		logger:   logger,
		limiters: newLimiterSet(cfg.AskRatePerSecond, cfg.AskBurst),
		static:   newStaticHandler(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOrigin,
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Get("/ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Handle("/ui/*", http.StripPrefix("/ui/", s.static))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Delete("/{id}", s.handleEndSession)
		r.Get("/{id}/history", s.handleHistory)
		r.Post("/{id}/ask", s.handleAsk)
		r.Post("/{id}/reset", s.handleReset)
		r.Get("/{id}/ws", s.handleSessionWS)
	})

	return r
}

// SessionExpired is installed as the session manager's expiry hook.
func (s *Server) SessionExpired(snap session.Snapshot) {
	s.limiters.forget(snap.ID)
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("expired").Inc()
	s.logger.Info("session expired", zap.String("session_id", snap.ID), zap.Int("turns", snap.Turns))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_sessions": s.sessions.ActiveCount(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			respondError(w, http.StatusServiceUnavailable, "store_unavailable", "knowledge graph unreachable")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type createSessionResponse struct {
	SessionID       string    `json:"session_id"`
	Status          string    `json:"status"`
	StartedAt       time.Time `json:"started_at"`
	InactivityTTLMS int64     `json:"inactivity_ttl_ms"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("created").Inc()

	respondJSON(w, http.StatusCreated, createSessionResponse{
		SessionID:       sess.ID,
		Status:          string(sess.Status()),
		StartedAt:       sess.StartedAt,
		InactivityTTLMS: s.cfg.SessionInactivityTimeout.Milliseconds(),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.sessions.End(id)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	s.limiters.forget(id)
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	respondJSON(w, http.StatusOK, snap)
}

type historyResponse struct {
	SessionID string         `json:"session_id"`
	History   []session.Turn `json:"history"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, historyResponse{SessionID: sess.ID, History: sess.History()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Reset(chi.URLParam(r, "id"))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	s.metrics.SessionEvents.WithLabelValues("reset").Inc()
	respondJSON(w, http.StatusOK, historyResponse{SessionID: sess.ID, History: sess.History()})
}

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	SessionID string         `json:"session_id"`
	Reply     chat.Reply     `json:"reply"`
	History   []session.Turn `json:"history"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondSessionError(w, err)
		return
	}

	var req askRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Query == "" {
		respondError(w, http.StatusBadRequest, "empty_query", "query is required")
		return
	}
	if !s.limiters.allow(sess.ID) {
		s.metrics.RateLimited.Inc()
		respondError(w, http.StatusTooManyRequests, "rate_limited", "too many questions, slow down")
		return
	}

	reply := s.asker.Ask(r.Context(), sess, req.Query)
	respondJSON(w, http.StatusOK, askResponse{
		SessionID: sess.ID,
		Reply:     reply,
		History:   sess.History(),
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrEnded):
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
