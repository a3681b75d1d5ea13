package systemService

import (
	"VisionForge/internal/api/system"
	"VisionForge/internal/inference"
	"VisionForge/internal/telemetry"
	"VisionForge/pkg/detector"
	"VisionForge/pkg/groundtruth"
	"VisionForge/pkg/modelstatus"
	"context"

	"github.com/sirupsen/logrus"
)

type ISystemService interface {
	GetHealth(ctx context.Context) (*system.HealthResponse, error)
	GetModelStatus(ctx context.Context) (system.ModelStatusResponse, error)
	CheckIntegrity(ctx context.Context) (*system.IntegrityResponse, error)
	GetReport(ctx context.Context) (*system.HealthReport, error)
}

type systemService struct {
	log         *logrus.Logger
	store       *inference.Store
	broadcaster *telemetry.Broadcaster
	detector    detector.IDetector
	modelStatus modelstatus.IModelStatus
	groundTruth groundtruth.ILookup
}

func NewSystemService(
	log *logrus.Logger,
	store *inference.Store,
	broadcaster *telemetry.Broadcaster,
	det detector.IDetector,
	modelStatus modelstatus.IModelStatus,
	groundTruth groundtruth.ILookup,
) ISystemService {
	return &systemService{
		log:         log,
		store:       store,
		broadcaster: broadcaster,
		detector:    det,
		modelStatus: modelStatus,
		groundTruth: groundTruth,
	}
}
