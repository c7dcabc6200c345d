package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"roast-battle/runtime"
	"roast-battle/sink"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

// Events streams the battle as server-sent events, one JSON event per data frame.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		ErrorResponse(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	stream := sink.NewStreamSink(h.cfg.SubscriberBufferSize)
	sub, err := h.battles.Subscribe(r.Context(), r.PathValue("id"), stream)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	defer h.battles.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-stream.Done():
			h.log.Debug("SSE subscriber dropped", "battle_id", sub.BattleID, "subscriber_id", sub.ID)
			return
		case e := <-stream.Events():
			data, err := json.Marshal(e)
			if err != nil {
				h.log.Error("Failed to encode event", "type", e.Type, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
			sub.Touch(h.now())
		}
	}
}

func (h *Handlers) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return h.cfg.AllowedOrigin == "" || h.cfg.AllowedOrigin == "*" || origin == "" || origin == h.cfg.AllowedOrigin
		},
	}
}

// WebSocket streams the battle as JSON text frames.
// The subscription is made before the upgrade so an unknown battle is still a plain 404.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	stream := sink.NewStreamSink(h.cfg.SubscriberBufferSize)
	sub, err := h.battles.Subscribe(r.Context(), r.PathValue("id"), stream)
	if err != nil {
		writeError(h.log, w, err)
		return
	}
	defer h.battles.Unsubscribe(sub)

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("Websocket upgrade failed", "battle_id", sub.BattleID, "error", err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go h.readLoop(conn, sub, closed)

	for {
		select {
		case <-closed:
			return
		case <-stream.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"), time.Now().Add(time.Second))
			return
		case e := <-stream.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(e); err != nil {
				h.log.Debug("Websocket write failed", "battle_id", sub.BattleID, "error", err)
				return
			}
			sub.Touch(h.now())
		}
	}
}

// readLoop drains client frames until the connection goes away. Any frame counts as activity.
func (h *Handlers) readLoop(conn *websocket.Conn, sub *runtime.Subscriber, closed chan<- struct{}) {
	defer close(closed)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		sub.Touch(h.now())
	}
}
