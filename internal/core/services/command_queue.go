package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"github.com/ivey1207/supperapp/internal/infrastructure/metrics"
)

type CommandQueueConfig struct {
	Repo   ports.CommandRepository
	Events ports.EventPublisher
	Logger *logger.Logger
	Now    func() time.Time
}

type commandQueue struct {
	repo   ports.CommandRepository
	events ports.EventPublisher
	logger *logger.Logger
	now    func() time.Time
}

func NewCommandQueue(cfg CommandQueueConfig) ports.CommandQueue {
	return &commandQueue{
		repo:   cfg.Repo,
		events: cfg.Events,
		logger: cfg.Logger,
		now:    clockOrDefault(cfg.Now),
	}
}

func (q *commandQueue) Enqueue(ctx context.Context, controllerID string, payload domain.CommandPayload, priority int) (*domain.Command, error) {
	controllerID = strings.TrimSpace(controllerID)
	if controllerID == "" {
		return nil, fmt.Errorf("%w: controller id is required", ErrCommandInvalidInput)
	}
	body, err := domain.EncodePayload(payload)
	if err != nil {
		q.logger.Errorw("command_payload_encode_failed", "controller_id", controllerID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCommandInvalidInput, err)
	}
	if priority == 0 {
		priority = domain.PriorityDefault
	}

	cmd := &domain.Command{
		ID:           uuid.NewString(),
		ControllerID: controllerID,
		CommandType:  payload.CommandType(),
		Payload:      body,
		Priority:     priority,
		Status:       domain.CommandStatusPending,
		CreatedAt:    q.now(),
	}
	if err := q.repo.Create(ctx, cmd); err != nil {
		q.logger.Errorw("command_enqueue_failed", "controller_id", controllerID, "command_type", cmd.CommandType, "error", err)
		return nil, err
	}

	afterCommit(ctx, func(context.Context) {
		metrics.IncCommandEnqueued(string(cmd.CommandType))
		q.logger.Infow("command_enqueue_ok", "command_id", cmd.ID, "controller_id", controllerID, "command_type", cmd.CommandType, "priority", priority)
	})
	publish(ctx, q.events, domain.TimelineEvent{
		Type:         domain.EventTypeCommandEnqueued,
		Message:      fmt.Sprintf("%s queued for %s", cmd.CommandType, controllerID),
		ResourceType: domain.ResourceCommand,
		ResourceID:   cmd.ID,
		Meta: domain.JSONB{
			"controller_id": controllerID,
			"command_type":  string(cmd.CommandType),
			"priority":      priority,
		},
	})
	return cmd, nil
}

func (q *commandQueue) SelectNext(ctx context.Context, controllerID string) (*domain.Command, error) {
	pending, err := q.repo.ListByController(ctx, controllerID, domain.CommandStatusPending)
	if err != nil {
		return nil, err
	}
	next := domain.SelectNext(pending)
	if next == nil {
		return nil, nil
	}
	selected := *next
	return &selected, nil
}

func (q *commandQueue) MarkExecuted(ctx context.Context, commandID, result string) (bool, error) {
	return q.complete(ctx, commandID, domain.CommandStatusExecuted, result)
}

func (q *commandQueue) MarkFailed(ctx context.Context, commandID, errorMessage string) (bool, error) {
	return q.complete(ctx, commandID, domain.CommandStatusFailed, errorMessage)
}

// complete reports false only for unknown commands. A report for a command
// that is already terminal is acknowledged without touching it.
func (q *commandQueue) complete(ctx context.Context, commandID string, status domain.CommandStatus, result string) (bool, error) {
	commandID = strings.TrimSpace(commandID)
	if commandID == "" {
		return false, nil
	}
	changed, err := q.repo.Complete(ctx, commandID, status, result, q.now())
	if errors.Is(err, ports.ErrRecordNotFound) {
		q.logger.Warnw("command_ack_unknown", "command_id", commandID, "status", status)
		return false, nil
	}
	if err != nil {
		q.logger.Errorw("command_ack_failed", "command_id", commandID, "status", status, "error", err)
		return false, err
	}
	if !changed {
		q.logger.Infow("command_ack_already_terminal", "command_id", commandID, "status", status)
		return true, nil
	}

	eventType := domain.EventTypeCommandExecuted
	eventStatus := domain.EventStatusSuccess
	if status == domain.CommandStatusFailed {
		eventType = domain.EventTypeCommandFailed
		eventStatus = domain.EventStatusFailed
	}
	afterCommit(ctx, func(context.Context) {
		metrics.AddCommandResults(string(status), 1)
		q.logger.Infow("command_ack_ok", "command_id", commandID, "status", status)
	})
	publish(ctx, q.events, domain.TimelineEvent{
		Type:         eventType,
		Status:       eventStatus,
		Message:      result,
		ResourceType: domain.ResourceCommand,
		ResourceID:   commandID,
	})
	return true, nil
}

func (q *commandQueue) CancelAllPending(ctx context.Context, controllerID string) (int, error) {
	n, err := q.repo.CompleteAllPending(ctx, controllerID, domain.CommandStatusExecuted, domain.CancelledResult, q.now())
	if err != nil {
		q.logger.Errorw("command_cancel_pending_failed", "controller_id", controllerID, "error", err)
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	afterCommit(ctx, func(context.Context) {
		metrics.AddCommandResults(metrics.CommandResultCancelled, n)
		q.logger.Infow("command_cancel_pending_ok", "controller_id", controllerID, "count", n)
	})
	publish(ctx, q.events, domain.TimelineEvent{
		Type:         domain.EventTypeCommandCancelled,
		Message:      fmt.Sprintf("%d pending commands cancelled", n),
		ResourceType: domain.ResourceKiosk,
		ResourceID:   controllerID,
		Meta:         domain.JSONB{"count": n},
	})
	return n, nil
}

func (q *commandQueue) Get(ctx context.Context, commandID string) (*domain.Command, error) {
	cmd, err := q.repo.GetByID(ctx, commandID)
	if errors.Is(err, ports.ErrRecordNotFound) {
		return nil, ErrCommandNotFound
	}
	return cmd, err
}

// List returns the controller's command ledger, newest first. An empty status
// matches every status.
func (q *commandQueue) List(ctx context.Context, controllerID string, status domain.CommandStatus) ([]domain.Command, error) {
	cmds, err := q.repo.ListByController(ctx, controllerID, status)
	if err != nil {
		return nil, err
	}
	domain.SortNewestFirst(cmds)
	return cmds, nil
}
