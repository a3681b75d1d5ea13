package systemHandler

import (
	contextPkg "VisionForge/pkg/context"
	"VisionForge/pkg/handlerUtil"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *SystemHandler) GetHealth(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	health, err := h.systemService.GetHealth(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_health")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, health)
}

func (h *SystemHandler) GetModelStatus(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	status, err := h.systemService.GetModelStatus(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_model_status")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, status)
	}
}

func (h *SystemHandler) CheckIntegrity(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	integrity, err := h.systemService.CheckIntegrity(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "check_integrity")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, integrity)
	}
}

func (h *SystemHandler) GetReport(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	report, err := h.systemService.GetReport(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_report")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, report)
	}
}
