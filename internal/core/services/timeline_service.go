package services

import (
	"context"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
)

// Broadcaster pushes events to live subscribers.
type Broadcaster interface {
	Broadcast(event domain.TimelineEvent)
}

// TimelinePublisher persists events to the timeline and forwards them to
// live subscribers. Failures are logged and swallowed. Callers publish only
// after their transaction has committed.
type TimelinePublisher struct {
	repo        ports.TimelineRepository
	broadcaster Broadcaster
	logger      *logger.Logger
}

func NewTimelinePublisher(repo ports.TimelineRepository, broadcaster Broadcaster, logger *logger.Logger) *TimelinePublisher {
	return &TimelinePublisher{repo: repo, broadcaster: broadcaster, logger: logger}
}

func (p *TimelinePublisher) Publish(ctx context.Context, event domain.TimelineEvent) {
	if event.Status == "" {
		event.Status = domain.EventStatusSuccess
	}
	if p.repo != nil {
		if err := p.repo.Create(context.WithoutCancel(ctx), &event); err != nil {
			p.logger.Warnw("timeline_publish_failed", "type", event.Type, "resource_id", event.ResourceID, "error", err)
		}
	}
	if p.broadcaster != nil {
		p.broadcaster.Broadcast(event)
	}
}

func (p *TimelinePublisher) Recent(ctx context.Context, limit int) ([]domain.TimelineEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return p.repo.GetAll(ctx, limit)
}

func (p *TimelinePublisher) ForResource(ctx context.Context, resourceType, resourceID string) ([]domain.TimelineEvent, error) {
	return p.repo.GetByResource(ctx, resourceType, resourceID)
}

// publish hands event to pub once the current transaction, if any, commits.
func publish(ctx context.Context, pub ports.EventPublisher, event domain.TimelineEvent) {
	if pub == nil {
		return
	}
	afterCommit(ctx, func(ctx context.Context) {
		pub.Publish(ctx, event)
	})
}
