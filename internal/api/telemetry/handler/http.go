package telemetryHandler

import (
	"VisionForge/internal/inference"
	"VisionForge/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type TelemetryHandler struct {
	log         *logrus.Logger
	broadcaster *telemetry.Broadcaster
	store       *inference.Store
}

func New(
	log *logrus.Logger,
	broadcaster *telemetry.Broadcaster,
	store *inference.Store,
) *TelemetryHandler {
	return &TelemetryHandler{
		log:         log,
		broadcaster: broadcaster,
		store:       store,
	}
}

func (h *TelemetryHandler) Start(srv fiber.Router) {
	stream := srv.Group("/telemetry")

	stream.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	stream.Get("/ws", websocket.New(h.Stream))
}
