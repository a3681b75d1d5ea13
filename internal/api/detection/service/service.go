package detectionService

import (
	"VisionForge/internal/api/detection"
	"VisionForge/internal/inference"
	"VisionForge/internal/telemetry"
	"VisionForge/pkg/detector"
	"VisionForge/pkg/groundtruth"
	"VisionForge/pkg/utils"
	"context"

	"github.com/sirupsen/logrus"
)

type IDetectionService interface {
	Detect(ctx context.Context, req detection.DetectRequest) (detection.DetectResponse, error)
}

type detectionService struct {
	log         *logrus.Logger
	detector    detector.IDetector
	groundTruth groundtruth.ILookup
	store       *inference.Store
	broadcaster *telemetry.Broadcaster
	utils       utils.IUtils
}

func NewDetectionService(
	log *logrus.Logger,
	det detector.IDetector,
	groundTruth groundtruth.ILookup,
	store *inference.Store,
	broadcaster *telemetry.Broadcaster,
	utilsInstance utils.IUtils,
) IDetectionService {
	return &detectionService{
		log:         log,
		detector:    det,
		groundTruth: groundTruth,
		store:       store,
		broadcaster: broadcaster,
		utils:       utilsInstance,
	}
}
