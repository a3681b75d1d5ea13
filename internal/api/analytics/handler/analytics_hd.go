package analyticsHandler

import (
	contextPkg "VisionForge/pkg/context"
	"VisionForge/pkg/handlerUtil"
	"VisionForge/pkg/log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const defaultModel = "yolov5"

func (h *AnalyticsHandler) GetMetrics(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing get metrics request")

	metrics, err := h.analyticsService.GetMetrics(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_metrics")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, metrics)
	}
}

func (h *AnalyticsHandler) GetPRCurve(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	model := ctx.Query("model", defaultModel)

	curve, err := h.analyticsService.GetPRCurve(c, model)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_pr_curve")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, curve)
	}
}

func (h *AnalyticsHandler) GetPerClassAP(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	model := ctx.Query("model", defaultModel)

	perClass, err := h.analyticsService.GetPerClassAP(c, model)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_per_class_ap")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, perClass)
	}
}

func (h *AnalyticsHandler) GetStability(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	model := ctx.Query("model", defaultModel)

	dist, err := h.analyticsService.GetStability(c, model)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_stability")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, dist)
	}
}

func (h *AnalyticsHandler) GetFPSHistory(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	model := ctx.Query("model", defaultModel)

	history, err := h.analyticsService.GetFPSHistory(c, model)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_fps_history")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, history)
	}
}
