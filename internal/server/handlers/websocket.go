// internal/server/handlers/websocket.go

package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
)

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 64 * 1024,
	}
}

// WebSocketUpgrader is used to upgrade HTTP connections to WebSocket
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, this should be more restrictive
		return true
	},
}

// TrendStreamHandler streams trend score events to WebSocket clients.
// Every event published under the configured topic (refreshed, outage)
// is forwarded as-is to each connected client.
func TrendStreamHandler(natsConn *nats.Conn, eventsTopic string) http.HandlerFunc {
	cfg := DefaultWebSocketConfig()

	return func(w http.ResponseWriter, r *http.Request) {
		if natsConn == nil {
			http.Error(w, "Event streaming unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		send := make(chan []byte, 64)

		sub, err := natsConn.Subscribe(eventsTopic+".>", func(msg *nats.Msg) {
			select {
			case send <- msg.Data:
			default:
				// Slow client: drop rather than block the bus callback
			}
		})
		if err != nil {
			log.Printf("NATS subscribe error: %v", err)
			conn.Close()
			return
		}

		go writePump(conn, send, cfg)
		go readPump(conn, sub, send, cfg)
	}
}

// writePump forwards events to the peer and keeps the connection alive
// with periodic pings.
func writePump(conn *websocket.Conn, send <-chan []byte, cfg WebSocketConfig) {
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client messages to process control frames and tears
// down the NATS subscription when the peer goes away.
func readPump(conn *websocket.Conn, sub *nats.Subscription, send chan []byte, cfg WebSocketConfig) {
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Printf("NATS unsubscribe error: %v", err)
		}
		close(send)
		conn.Close()
	}()

	conn.SetReadLimit(cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
	}
}
