package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"github.com/ivey1207/supperapp/internal/infrastructure/metrics"
)

const (
	defaultExecutedDetail = "success"
	defaultFailedDetail   = "Unknown error"
	invalidPayloadDetail  = "invalid payload"
)

type HeartbeatGatewayConfig struct {
	Kiosks   ports.KioskRepository
	Registry ports.ControllerRegistry
	Queue    ports.CommandQueue
	// Sessions is optional. When set, a failed session_started report fails
	// the session it belongs to.
	Sessions ports.WashSessionManager
	Logger   *logger.Logger
	Now      func() time.Time
}

type heartbeatGateway struct {
	kiosks   ports.KioskRepository
	registry ports.ControllerRegistry
	queue    ports.CommandQueue
	sessions ports.WashSessionManager
	logger   *logger.Logger
	now      func() time.Time
}

func NewHeartbeatGateway(cfg HeartbeatGatewayConfig) ports.HeartbeatGateway {
	return &heartbeatGateway{
		kiosks:   cfg.Kiosks,
		registry: cfg.Registry,
		queue:    cfg.Queue,
		sessions: cfg.Sessions,
		logger:   cfg.Logger,
		now:      clockOrDefault(cfg.Now),
	}
}

// HandleHeartbeat records liveness for a registered kiosk and hands back at
// most one command. Delivery does not change the command; it is offered
// again on every poll until the device acknowledges it.
func (g *heartbeatGateway) HandleHeartbeat(ctx context.Context, deviceID string) (*ports.HeartbeatResult, error) {
	kiosk, err := g.resolveKiosk(ctx, deviceID)
	if err != nil {
		if errors.Is(err, ErrControllerNotFound) {
			metrics.IncHeartbeat(metrics.HeartbeatNotFound)
			g.logger.Warnw("heartbeat_unknown_controller", "device_id", deviceID)
		} else {
			metrics.IncHeartbeat(metrics.HeartbeatError)
		}
		return nil, err
	}
	controllerID := kiosk.KioskID

	if _, err := g.registry.RecordHeartbeat(ctx, controllerID); err != nil {
		metrics.IncHeartbeat(metrics.HeartbeatError)
		return nil, err
	}

	result := &ports.HeartbeatResult{ControllerID: controllerID, ServerTime: g.now()}
	for {
		cmd, err := g.queue.SelectNext(ctx, controllerID)
		if err != nil {
			metrics.IncHeartbeat(metrics.HeartbeatError)
			g.logger.Errorw("heartbeat_select_failed", "controller_id", controllerID, "error", err)
			return nil, err
		}
		if cmd == nil {
			break
		}
		payload, err := domain.DecodePayload(cmd.CommandType, cmd.Payload)
		if err != nil {
			// A stored payload that cannot be decoded would be offered forever.
			g.logger.Errorw("heartbeat_payload_decode_failed", "command_id", cmd.ID, "command_type", cmd.CommandType, "error", err)
			if _, err := g.queue.MarkFailed(ctx, cmd.ID, invalidPayloadDetail); err != nil {
				return nil, err
			}
			g.failStartedSession(ctx, cmd.ID, invalidPayloadDetail)
			continue
		}
		result.Command = cmd
		result.Payload = payload
		metrics.IncCommandDelivered(string(cmd.CommandType))
		break
	}

	metrics.IncHeartbeat(metrics.HeartbeatOK)
	if result.Command != nil {
		g.logger.Debugw("heartbeat_ok", "controller_id", controllerID, "command_id", result.Command.ID, "command_type", result.Command.CommandType)
	} else {
		g.logger.Debugw("heartbeat_ok", "controller_id", controllerID)
	}
	return result, nil
}

// resolveKiosk looks the device up by kiosk id first and by MAC id second.
// Unknown and archived devices are never auto-registered.
func (g *heartbeatGateway) resolveKiosk(ctx context.Context, deviceID string) (*domain.Kiosk, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, ErrControllerNotFound
	}
	kiosk, err := g.kiosks.GetByKioskID(ctx, deviceID)
	if errors.Is(err, ports.ErrRecordNotFound) {
		kiosk, err = g.kiosks.GetByMacID(ctx, domain.NormalizeMacID(deviceID))
	}
	if errors.Is(err, ports.ErrRecordNotFound) {
		return nil, ErrControllerNotFound
	}
	if err != nil {
		return nil, err
	}
	if kiosk.Archived {
		return nil, ErrControllerNotFound
	}
	return kiosk, nil
}

func (g *heartbeatGateway) HandleExecutionReport(ctx context.Context, commandID string, outcome ports.ExecutionOutcome, detail string) error {
	detail = strings.TrimSpace(detail)

	var (
		ok  bool
		err error
	)
	switch outcome {
	case ports.OutcomeExecuted:
		if detail == "" {
			detail = defaultExecutedDetail
		}
		ok, err = g.queue.MarkExecuted(ctx, commandID, detail)
	case ports.OutcomeFailed:
		if detail == "" {
			detail = defaultFailedDetail
		}
		ok, err = g.queue.MarkFailed(ctx, commandID, detail)
	default:
		return fmt.Errorf("%w: unknown outcome %q", ErrCommandInvalidInput, outcome)
	}
	if err != nil {
		return err
	}
	if !ok {
		return ErrCommandNotFound
	}

	if outcome == ports.OutcomeFailed {
		g.failStartedSession(ctx, commandID, "device_error: "+detail)
	}
	return nil
}

// failStartedSession moves the session to FAILED when its session_started
// command failed on the device or could not be delivered. Errors are logged
// only: the command outcome has already been recorded.
func (g *heartbeatGateway) failStartedSession(ctx context.Context, commandID, reason string) {
	if g.sessions == nil {
		return
	}
	cmd, err := g.queue.Get(ctx, commandID)
	// A late failure report for an already executed command changes nothing.
	if err != nil || cmd.CommandType != domain.CmdSessionStarted || cmd.Status != domain.CommandStatusFailed {
		return
	}
	sessionID, err := g.startedSessionID(ctx, cmd)
	if err != nil {
		g.logger.Errorw("heartbeat_find_session_failed", "command_id", commandID, "error", err)
		return
	}
	if sessionID == "" {
		return
	}
	_, err = g.sessions.FailSession(ctx, sessionID, reason)
	switch {
	case err == nil:
	case errors.Is(err, ErrSessionAlreadyFinished), errors.Is(err, ErrSessionNotFound):
	default:
		g.logger.Errorw("heartbeat_fail_session_failed", "command_id", commandID, "session_id", sessionID, "error", err)
	}
}

// startedSessionID reads the session id from the payload. An undecodable
// payload falls back to the kiosk's live session that still points at cmd.
func (g *heartbeatGateway) startedSessionID(ctx context.Context, cmd *domain.Command) (string, error) {
	payload, err := domain.DecodePayload(cmd.CommandType, cmd.Payload)
	if err == nil {
		if started, ok := payload.(domain.SessionStartedPayload); ok {
			return started.SessionID, nil
		}
		return "", nil
	}
	sessions, err := g.sessions.ListSessions(ctx, domain.SessionFilter{KioskID: cmd.ControllerID})
	if err != nil {
		return "", err
	}
	for _, session := range sessions {
		if session.CommandID == cmd.ID && !session.Status.IsTerminal() {
			return session.ID, nil
		}
	}
	return "", nil
}
