package analyticsHandler

import (
	analyticsService "VisionForge/internal/api/analytics/service"
	"VisionForge/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AnalyticsHandler struct {
	log              *logrus.Logger
	middleware       middleware.Middleware
	analyticsService analyticsService.IAnalyticsService
}

func New(
	log *logrus.Logger,
	middleware middleware.Middleware,
	as analyticsService.IAnalyticsService,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		log:              log,
		middleware:       middleware,
		analyticsService: as,
	}
}

func (h *AnalyticsHandler) Start(srv fiber.Router) {
	evaluation := srv.Group("/evaluation/latest")

	evaluation.Get("/metrics", h.GetMetrics)
	evaluation.Get("/pr-curve", h.GetPRCurve)
	evaluation.Get("/per-class", h.GetPerClassAP)
	evaluation.Get("/stability", h.GetStability)
	evaluation.Get("/fps-history", h.GetFPSHistory)
}
