package main

import (
	"VisionForge/internal/config"
	"VisionForge/pkg/detector"
	"VisionForge/pkg/groundtruth"
	"VisionForge/pkg/log"
	"VisionForge/pkg/modelstatus"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded: %v", err)
	}

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()
	detectorClient := detector.NewWebSocketClient("yolov5", "detr")
	groundTruth := groundtruth.New(logger)
	modelStatus := modelstatus.New(logger)

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithMiddleware(),
		config.WithUtils(),
		config.WithDetector(detectorClient),
		config.WithGroundTruth(groundTruth),
		config.WithModelStatus(modelStatus),
		config.WithBroadcaster(),
		config.WithStore(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")
	server.Shutdown()
}
