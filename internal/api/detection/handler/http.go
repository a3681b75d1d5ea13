package detectionHandler

import (
	detectionService "VisionForge/internal/api/detection/service"
	"VisionForge/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type DetectionHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	detectionService detectionService.IDetectionService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	ds detectionService.IDetectionService,
) *DetectionHandler {
	return &DetectionHandler{
		log:              log,
		validator:        validate,
		middleware:       middleware,
		detectionService: ds,
	}
}

func (h *DetectionHandler) Start(srv fiber.Router) {
	srv.Post("/detect", h.middleware.NewRateLimiter, h.Detect)
}
