package systemHandler

import (
	systemService "VisionForge/internal/api/system/service"
	"VisionForge/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type SystemHandler struct {
	log           *logrus.Logger
	middleware    middleware.Middleware
	systemService systemService.ISystemService
}

func New(
	log *logrus.Logger,
	middleware middleware.Middleware,
	ss systemService.ISystemService,
) *SystemHandler {
	return &SystemHandler{
		log:           log,
		middleware:    middleware,
		systemService: ss,
	}
}

func (h *SystemHandler) Start(srv fiber.Router) {
	srv.Get("/health", h.GetHealth)
	srv.Get("/health/integrity", h.CheckIntegrity)
	srv.Get("/health/report", h.GetReport)
	srv.Get("/model/status", h.GetModelStatus)
}
