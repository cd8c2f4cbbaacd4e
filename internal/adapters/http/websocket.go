package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/pizzazones/internal/core/domain"
	"github.com/samirrijal/pizzazones/internal/core/ports"
	"github.com/samirrijal/pizzazones/internal/pkg/metrics"
)

// wsMessage is sent from the client.
type wsMessage struct {
	Action string `json:"action"` // "ping"
}

// wsSnapshot is pushed to the client after every zone write.
type wsSnapshot struct {
	Type      string        `json:"type"`
	Zones     []domain.Zone `json:"zones"`
	Malformed int           `json:"malformed,omitempty"`
}

// WebSocketHandler returns a handler that upgrades to WebSocket and relays
// zone snapshots from the change feed. The current collection is sent as
// soon as the feed delivers it, so a fresh editor needs no extra fetch.
func WebSocketHandler(feed ports.ZoneChangeFeed) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		logger := slog.Default().With("remote_addr", remoteAddr)
		logger.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sub, err := feed.SubscribeZones(ctx, func(_ context.Context, docs []domain.ZoneDocument) {
			zones, errs := domain.DecodeZones(docs)
			if zones == nil {
				zones = []domain.Zone{}
			}
			_ = writeJSON(wsSnapshot{Type: "snapshot", Zones: zones, Malformed: len(errs)})
		})
		if err != nil {
			logger.Error("ws subscribe failed", "error", err)
			_ = writeJSON(map[string]string{"error": "subscribe failed"})
			return
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			switch m.Action {
			case "ping":
				_ = writeJSON(map[string]string{"type": "pong"})
			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		if err := sub.Unsubscribe(); err != nil {
			logger.Warn("ws unsubscribe failed", "error", err)
		}
		logger.Info("ws client disconnected")
	}
}
