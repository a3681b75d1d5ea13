package telemetryHandler

import (
	"VisionForge/internal/entity"
	"VisionForge/pkg/log"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	heartbeatInterval = 15 * time.Second
	writeTimeout      = 5 * time.Second
)

// Stream pushes telemetry events to one websocket client until it
// disconnects. Events arrive over the subscriber channel; a heartbeat
// fills gaps longer than heartbeatInterval so proxies keep the
// connection open.
func (h *TelemetryHandler) Stream(conn *websocket.Conn) {
	sub := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(sub)

	h.log.WithFields(log.Fields{
		"subscriber_id": sub.ID(),
		"remote":        conn.RemoteAddr().String(),
	}).Info("Telemetry client connected")

	// The client never sends application data; the read pump exists to
	// notice the close frame.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.writeEvent(conn, entity.NewConnectedEvent(h.store.InferenceCount())); err != nil {
		h.log.WithFields(log.Fields{
			"subscriber_id": sub.ID(),
			"error":         err.Error(),
		}).Warn("Failed to send connected event")
		return
	}

	heartbeat := time.NewTimer(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				// Dropped by the broadcaster for falling behind, or
				// the broadcaster shut down.
				h.log.WithFields(log.Fields{
					"subscriber_id": sub.ID(),
				}).Warn("Telemetry subscription closed upstream")
				return
			}
			if err := h.writeEvent(conn, event); err != nil {
				return
			}
			resetTimer(heartbeat, heartbeatInterval)

		case <-heartbeat.C:
			if err := h.writeEvent(conn, entity.NewHeartbeatEvent(h.store.InferenceCount())); err != nil {
				return
			}
			heartbeat.Reset(heartbeatInterval)

		case <-done:
			h.log.WithFields(log.Fields{
				"subscriber_id": sub.ID(),
			}).Info("Telemetry client disconnected")
			return
		}
	}
}

func (h *TelemetryHandler) writeEvent(conn *websocket.Conn, event entity.TelemetryEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
