package api

import (
	"encoding/json"
	"net/http"
	"time"

	"monopoly/internal/game"

	"github.com/gorilla/websocket"
)

const (
	streamWriteWait = 5 * time.Second
	streamReadWait  = 60 * time.Second
	streamPingEvery = 30 * time.Second
	streamBuffer    = 32
)

// handleStream pushes every session event as a JSON text message. Slow readers lose events
// rather than stall the session. The server pings every streamPingEvery and drops the
// connection when nothing, pongs included, arrives within streamReadWait.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	out := make(chan game.Event, streamBuffer)
	out <- game.Event{Kind: "snapshot", View: sess.View()}
	unsubscribe := sess.Subscribe(func(ev game.Event) {
		select {
		case out <- ev:
		default:
		}
	})
	defer unsubscribe()

	readWait := s.streamReadWait
	extend := func(string) error { return conn.SetReadDeadline(time.Now().Add(readWait)) }
	_ = extend("")
	conn.SetPongHandler(extend)

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			_ = extend("")
		}
	}()

	ping := time.NewTicker(s.streamPingEvery)
	defer ping.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-s.baseCtx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(time.Second))
			return
		case ev := <-out:
			b, err := json.Marshal(ev)
			if err != nil {
				s.log.Error("stream encode failed", "err", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
			if ev.Kind == game.EventClosed {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"), time.Now().Add(time.Second))
				return
			}
		}
	}
}
