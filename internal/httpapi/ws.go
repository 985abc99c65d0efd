package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/michelleprabhu/bankchatbot/internal/chat"
	"github.com/michelleprabhu/bankchatbot/internal/session"
)

const (
	frameReply = "reply"
	frameError = "error"

	wsReadTimeout  = 10 * time.Minute
	wsWriteTimeout = 10 * time.Second
)

// serverFrame is the only message shape the server writes on the socket.
type serverFrame struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id"`
	Reply     *chat.Reply    `json:"reply,omitempty"`
	History   []session.Turn `json:"history,omitempty"`
	Code      string         `json:"code,omitempty"`
	Detail    string         `json:"detail,omitempty"`
}

// sameOrigin allows non-browser clients and same-host browser pages.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// handleSessionWS answers questions sent over a websocket, one at a time, in
// the order they arrive.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondSessionError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()
	defer s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}

		frame := s.answerFrame(r, sess, data)
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(frame); err != nil {
			s.logger.Debug("websocket write failed", zap.String("session_id", sess.ID), zap.Error(err))
			return
		}
	}
}

func (s *Server) answerFrame(r *http.Request, sess *session.Session, data []byte) serverFrame {
	var req askRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorFrame(sess.ID, "invalid_request", err.Error())
	}
	if req.Query == "" {
		return errorFrame(sess.ID, "empty_query", "query is required")
	}
	if sess.Status() != session.StatusActive {
		return errorFrame(sess.ID, "session_not_found", session.ErrEnded.Error())
	}
	if !s.limiters.allow(sess.ID) {
		s.metrics.RateLimited.Inc()
		return errorFrame(sess.ID, "rate_limited", "too many questions, slow down")
	}

	reply := s.asker.Ask(r.Context(), sess, req.Query)
	return serverFrame{
		Type:      frameReply,
		SessionID: sess.ID,
		Reply:     &reply,
		History:   sess.History(),
	}
}

func errorFrame(sessionID, code, detail string) serverFrame {
	return serverFrame{Type: frameError, SessionID: sessionID, Code: code, Detail: detail}
}
