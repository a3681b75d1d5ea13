package modelstatus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"VisionForge/internal/entity"
)

// IModelStatus reads the load state the model-runner backend publishes
// to Redis while it initializes (status string plus per-stage detail).
type IModelStatus interface {
	GetStatus(ctx context.Context, model string) (entity.ModelStatus, error)
}

type statusClient struct {
	client *redis.Client
	log    *logrus.Logger
}

func New(log *logrus.Logger) IModelStatus {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	log.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		log.Info("Successfully connected to Redis")
	}

	return &statusClient{client: client, log: log}
}

func (s *statusClient) GetStatus(ctx context.Context, model string) (entity.ModelStatus, error) {
	status, err := s.client.Get(ctx, "model:status:"+model).Result()
	if errors.Is(err, redis.Nil) {
		return entity.ModelStatus{Status: entity.ModelStatusInitializing}, nil
	} else if err != nil {
		s.log.Error(fmt.Sprintf("Error reading status for model %s: %v", model, err))
		return entity.ModelStatus{}, err
	}

	result := entity.ModelStatus{Status: status}

	raw, err := s.client.Get(ctx, "model:stages:"+model).Result()
	if errors.Is(err, redis.Nil) {
		return result, nil
	} else if err != nil {
		s.log.Error(fmt.Sprintf("Error reading stages for model %s: %v", model, err))
		return result, nil
	}

	stages := make(map[string]string)
	if err := jsoniter.UnmarshalFromString(raw, &stages); err != nil {
		s.log.Error(fmt.Sprintf("Invalid stage payload for model %s: %v", model, err))
		return result, nil
	}
	result.Stages = stages

	return result, nil
}
