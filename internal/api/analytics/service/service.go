package analyticsService

import (
	"VisionForge/internal/api/analytics"
	"VisionForge/internal/entity"
	"VisionForge/internal/inference"
	"context"

	"github.com/sirupsen/logrus"
)

type IAnalyticsService interface {
	GetMetrics(ctx context.Context) (analytics.MetricsResponse, error)
	GetPRCurve(ctx context.Context, model string) ([]entity.CurvePoint, error)
	GetPerClassAP(ctx context.Context, model string) (*analytics.PerClassResponse, error)
	GetStability(ctx context.Context, model string) ([]entity.LatencyBin, error)
	GetFPSHistory(ctx context.Context, model string) ([]entity.FPSSample, error)
}

type analyticsService struct {
	log   *logrus.Logger
	store *inference.Store
}

func NewAnalyticsService(log *logrus.Logger, store *inference.Store) IAnalyticsService {
	return &analyticsService{
		log:   log,
		store: store,
	}
}
