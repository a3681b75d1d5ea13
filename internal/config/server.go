package config

import (
	analyticsHandler "VisionForge/internal/api/analytics/handler"
	analyticsService "VisionForge/internal/api/analytics/service"
	detectionHandler "VisionForge/internal/api/detection/handler"
	detectionService "VisionForge/internal/api/detection/service"
	systemHandler "VisionForge/internal/api/system/handler"
	systemService "VisionForge/internal/api/system/service"
	telemetryHandler "VisionForge/internal/api/telemetry/handler"
	"VisionForge/internal/evaluation"
	"VisionForge/internal/inference"
	"VisionForge/internal/middleware"
	"VisionForge/internal/telemetry"
	"VisionForge/pkg/detector"
	"VisionForge/pkg/groundtruth"
	"VisionForge/pkg/modelstatus"
	"VisionForge/pkg/utils"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	detector    detector.IDetector
	groundTruth groundtruth.ILookup
	modelStatus modelstatus.IModelStatus
	broadcaster *telemetry.Broadcaster
	store       *inference.Store
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithDetector(det detector.IDetector) ServerOption {
	return func(s *Server) error {
		s.detector = det
		return nil
	}
}

func WithGroundTruth(lookup groundtruth.ILookup) ServerOption {
	return func(s *Server) error {
		s.groundTruth = lookup
		return nil
	}
}

func WithModelStatus(status modelstatus.IModelStatus) ServerOption {
	return func(s *Server) error {
		s.modelStatus = status
		return nil
	}
}

func WithBroadcaster() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before broadcaster")
		}
		s.broadcaster = telemetry.NewBroadcaster(s.log)
		return nil
	}
}

func WithStore() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before store")
		}
		if s.broadcaster == nil {
			return fmt.Errorf("broadcaster must be initialized before store")
		}
		s.store = inference.New(s.log, evaluation.NewPipeline(), s.broadcaster)
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Detection
	detectionServices := detectionService.NewDetectionService(s.log, s.detector, s.groundTruth, s.store, s.broadcaster, s.utils)
	detectionHandlers := detectionHandler.New(s.log, s.validator, s.middleware, detectionServices)

	// Analytics
	analyticsServices := analyticsService.NewAnalyticsService(s.log, s.store)
	analyticsHandlers := analyticsHandler.New(s.log, s.middleware, analyticsServices)

	// Telemetry stream
	telemetryHandlers := telemetryHandler.New(s.log, s.broadcaster, s.store)

	// System health
	systemServices := systemService.NewSystemService(s.log, s.store, s.broadcaster, s.detector, s.modelStatus, s.groundTruth)
	systemHandlers := systemHandler.New(s.log, s.middleware, systemServices)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, detectionHandlers, analyticsHandlers, telemetryHandlers, systemHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		if s.detector != nil {
			s.detector.CloseConnections()
		}
		return err
	}

	return nil
}

func (s *Server) Shutdown() {
	if s.broadcaster != nil {
		s.broadcaster.Close()
	}
	if s.detector != nil {
		s.detector.CloseConnections()
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
