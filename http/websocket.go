package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"weathersense/ml"
	"weathersense/presenter"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = wsPongWait * 9 / 10
	wsMaxMessageSize = maxRequestBody
	wsSendBuffer     = 16
)

type WSMessageType string

const (
	WSPrediction WSMessageType = "prediction"
	WSError      WSMessageType = "error"
)

// WSReply answers exactly one client message.
type WSReply struct {
	Type   WSMessageType     `json:"type"`
	Data   *presenter.View   `json:"data,omitempty"`
	Error  string            `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type wsSession struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	log  *zap.Logger
}

func newUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin) {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

// handlePredictWS treats every text message as a set of readings and replies
// with one prediction or error per message.
func (h *Handler) handlePredictWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s := &wsSession{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
		done: make(chan struct{}),
	}
	s.log = h.log.With(zap.String("session_id", s.id), zap.String("request_id", GetRequestID(r.Context())))
	s.log.Debug("websocket connected")

	go s.writePump()
	s.readPump(r.Context(), h)
}

func (s *wsSession) readPump(ctx context.Context, h *Handler) {
	defer close(s.send)

	s.conn.SetReadLimit(wsMaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(wsPongWait))

		reply := h.answer(ctx, data)
		msg, err := json.Marshal(reply)
		if err != nil {
			s.log.Error("encode websocket reply", zap.Error(err))
			return
		}
		select {
		case s.send <- msg:
		case <-s.done:
			return
		}
	}
}

// writePump owns all writes to the connection. done is closed when it
// returns so readPump stops queueing replies nobody will send.
func (s *wsSession) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		close(s.done)
		s.conn.Close()
		s.log.Debug("websocket closed")
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.log.Warn("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) answer(ctx context.Context, data []byte) WSReply {
	f := ml.DefaultFeatures()
	if err := json.Unmarshal(data, &f); err != nil {
		h.svc.Metrics().RecordInvalid()
		return WSReply{Type: WSError, Error: "invalid JSON message: " + err.Error()}
	}
	view, err := h.svc.Predict(ctx, f)
	if err != nil {
		var invalid *InvalidInputError
		if errors.As(err, &invalid) {
			return WSReply{Type: WSError, Error: invalid.Error(), Fields: invalid.Fields}
		}
		h.log.Error("websocket prediction failed", zap.Error(err))
		return WSReply{Type: WSError, Error: "prediction failed"}
	}
	return WSReply{Type: WSPrediction, Data: &view}
}
