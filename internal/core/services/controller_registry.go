package services

import (
	"context"
	"strings"
	"time"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
)

type controllerRegistry struct {
	repo   ports.ControllerRepository
	logger *logger.Logger
	now    func() time.Time
}

func NewControllerRegistry(repo ports.ControllerRepository, logger *logger.Logger, now func() time.Time) ports.ControllerRegistry {
	return &controllerRegistry{repo: repo, logger: logger, now: clockOrDefault(now)}
}

// RecordHeartbeat upserts the liveness record. Liveness never expires: a
// controller that stops polling keeps active=true with a stale last_ping.
func (r *controllerRegistry) RecordHeartbeat(ctx context.Context, controllerID string) (*domain.ControllerLiveness, error) {
	controllerID = strings.TrimSpace(controllerID)
	if controllerID == "" {
		return nil, ErrControllerNotFound
	}
	node, err := r.repo.Touch(ctx, controllerID, "Controller "+controllerID, r.now())
	if err != nil {
		r.logger.Errorw("controller_heartbeat_record_failed", "controller_id", controllerID, "error", err)
		return nil, err
	}
	return node, nil
}

func (r *controllerRegistry) List(ctx context.Context) ([]domain.ControllerLiveness, error) {
	return r.repo.GetAll(ctx)
}
