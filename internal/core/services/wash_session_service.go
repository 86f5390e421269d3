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
	"github.com/shopspring/decimal"
)

const (
	AnonymousUserID      = "anonymous"
	defaultFailReason    = "failed"
	defaultSessionsLimit = 100
	maxSessionsLimit     = 1000
)

type WashSessionServiceConfig struct {
	Kiosks      ports.KioskRepository
	Programs    ports.ProgramRepository
	Sessions    ports.WashSessionRepository
	Controllers ports.ControllerRepository
	Queue       ports.CommandQueue
	Tx          ports.Transactor
	Events      ports.EventPublisher
	Logger      *logger.Logger
	Now         func() time.Time
	EnableLocks bool
}

type washSessionService struct {
	kiosks      ports.KioskRepository
	programs    ports.ProgramRepository
	sessions    ports.WashSessionRepository
	controllers ports.ControllerRepository
	queue       ports.CommandQueue
	tx          ports.Transactor
	events      ports.EventPublisher
	logger      *logger.Logger
	now         func() time.Time
	locks       *keyLocks
}

func NewWashSessionService(cfg WashSessionServiceConfig) ports.WashSessionManager {
	return &washSessionService{
		kiosks:      cfg.Kiosks,
		programs:    cfg.Programs,
		sessions:    cfg.Sessions,
		controllers: cfg.Controllers,
		queue:       cfg.Queue,
		tx:          cfg.Tx,
		events:      cfg.Events,
		logger:      cfg.Logger,
		now:         clockOrDefault(cfg.Now),
		locks:       newKeyLocks(cfg.EnableLocks),
	}
}

func (s *washSessionService) getKiosk(ctx context.Context, kioskID string) (*domain.Kiosk, error) {
	kioskID = strings.TrimSpace(kioskID)
	if kioskID == "" {
		return nil, ErrKioskNotFound
	}
	kiosk, err := s.kiosks.GetByKioskID(ctx, kioskID)
	if errors.Is(err, ports.ErrRecordNotFound) {
		return nil, ErrKioskNotFound
	}
	if err != nil {
		return nil, err
	}
	if kiosk.Archived {
		return nil, ErrKioskNotFound
	}
	return kiosk, nil
}

func (s *washSessionService) activePrograms(ctx context.Context, branchID string) ([]domain.Program, error) {
	if branchID == "" {
		return []domain.Program{}, nil
	}
	all, err := s.programs.GetByBranchID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Program, 0, len(all))
	for _, p := range all {
		if p.Active && !p.Archived {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *washSessionService) GetDeviceInfo(ctx context.Context, kioskID string) (*ports.DeviceInfo, error) {
	kiosk, err := s.getKiosk(ctx, kioskID)
	if err != nil {
		return nil, err
	}
	info := &ports.DeviceInfo{Kiosk: *kiosk}

	active, err := s.sessions.GetOccupying(ctx, kiosk.KioskID)
	switch {
	case err == nil:
		info.SessionActive = true
		info.ActiveSessionID = active.ID
	case errors.Is(err, ports.ErrRecordNotFound):
	default:
		return nil, err
	}

	if s.controllers != nil {
		node, err := s.controllers.GetByID(ctx, kiosk.KioskID)
		switch {
		case err == nil:
			ping := node.LastPing
			info.LastPing = &ping
		case errors.Is(err, ports.ErrRecordNotFound):
		default:
			return nil, err
		}
	}

	if info.Programs, err = s.activePrograms(ctx, kiosk.BranchID); err != nil {
		return nil, err
	}
	return info, nil
}

// StartSession credits amount to the kiosk and opens an ACTIVE session in
// one transaction. The one-session-per-kiosk rule is enforced by storage, so
// of two concurrent starts exactly one commits.
func (s *washSessionService) StartSession(ctx context.Context, kioskID, userID string, amount decimal.Decimal) (*domain.WashSession, error) {
	if !domain.ValidAmount(amount) {
		return nil, ErrInvalidAmount
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = AnonymousUserID
	}
	kiosk, err := s.getKiosk(ctx, kioskID)
	if err != nil {
		return nil, err
	}
	programs, err := s.activePrograms(ctx, kiosk.BranchID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lockKeys(kioskLockKey(kiosk.KioskID))
	defer unlock()

	now := s.now()
	session := &domain.WashSession{
		ID:         uuid.NewString(),
		KioskID:    kiosk.KioskID,
		UserID:     userID,
		OrgID:      kiosk.OrgID,
		BranchID:   kiosk.BranchID,
		Status:     domain.SessionStatusActive,
		PaidAmount: amount,
		StartedAt:  now,
		UpdatedAt:  now,
	}

	err = runInTx(ctx, s.tx, func(ctx context.Context) error {
		if err := s.sessions.Create(ctx, session); err != nil {
			if errors.Is(err, ports.ErrDuplicate) {
				return ErrSessionAlreadyActive
			}
			return err
		}
		balance, err := s.kiosks.AddBalance(ctx, kiosk.KioskID, amount)
		if err != nil {
			return err
		}
		payload := domain.SessionStartedPayload{
			SessionID:  session.ID,
			KioskID:    kiosk.KioskID,
			Balance:    balance,
			PaidAmount: amount,
			StartedAt:  now.Format(time.RFC3339),
			Programs:   make([]domain.ProgramPayload, 0, len(programs)),
		}
		for _, p := range programs {
			payload.Programs = append(payload.Programs, p.ToPayload())
		}
		cmd, err := s.queue.Enqueue(ctx, kiosk.KioskID, payload, domain.PrioritySession)
		if err != nil {
			return err
		}
		session.CommandID = cmd.ID
		if err := s.sessions.Update(ctx, session); err != nil {
			return err
		}

		afterCommit(ctx, func(context.Context) {
			metrics.IncSessionTransition(string(domain.SessionStatusActive))
			metrics.ObserveBalanceCredit(metrics.CreditSourceSession, amount.InexactFloat64())
			s.logger.Infow("session_start_ok", "session_id", session.ID, "kiosk_id", kiosk.KioskID, "user_id", userID, "amount", amount.String(), "balance", balance.String())
		})
		publish(ctx, s.events, domain.TimelineEvent{
			Type:         domain.EventTypeSessionStarted,
			Message:      fmt.Sprintf("session started on %s", kiosk.KioskID),
			ResourceType: domain.ResourceSession,
			ResourceID:   session.ID,
			Meta: domain.JSONB{
				"kiosk_id":    kiosk.KioskID,
				"user_id":     userID,
				"paid_amount": amount.String(),
				"command_id":  cmd.ID,
			},
		})
		publish(ctx, s.events, balanceCreditedEvent(kiosk.KioskID, amount, balance, metrics.CreditSourceSession))
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSessionAlreadyActive) {
			s.logger.Warnw("session_start_conflict", "kiosk_id", kiosk.KioskID, "user_id", userID)
		} else {
			s.logger.Errorw("session_start_failed", "kiosk_id", kiosk.KioskID, "user_id", userID, "error", err)
		}
		return nil, err
	}
	return session, nil
}

func (s *washSessionService) getSession(ctx context.Context, sessionID string) (*domain.WashSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, ports.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	return session, err
}

// mutate locks the session's kiosk, re-reads the session inside a
// transaction and hands it to fn. Terminal sessions are rejected before fn
// runs.
func (s *washSessionService) mutate(ctx context.Context, sessionID string, fn func(ctx context.Context, session *domain.WashSession) error) (*domain.WashSession, error) {
	current, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, ErrSessionAlreadyFinished
	}

	unlock := s.locks.lockKeys(kioskLockKey(current.KioskID))
	defer unlock()

	var out *domain.WashSession
	err = runInTx(ctx, s.tx, func(ctx context.Context) error {
		session, err := s.getSession(ctx, current.ID)
		if err != nil {
			return err
		}
		if session.Status.IsTerminal() {
			return ErrSessionAlreadyFinished
		}
		if err := fn(ctx, session); err != nil {
			return err
		}
		session.UpdatedAt = s.now()
		if err := s.sessions.Update(ctx, session); err != nil {
			return err
		}
		out = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StopSession cancels everything still queued for the kiosk, then sends
// session_stopped and finishes the session.
func (s *washSessionService) StopSession(ctx context.Context, sessionID, reason string) (*domain.WashSession, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = domain.FinishReasonUserStop
	}
	session, err := s.mutate(ctx, sessionID, func(ctx context.Context, session *domain.WashSession) error {
		if _, err := s.queue.CancelAllPending(ctx, session.KioskID); err != nil {
			return err
		}
		cmd, err := s.queue.Enqueue(ctx, session.KioskID, domain.SessionStoppedPayload{Reason: reason}, domain.PrioritySession)
		if err != nil {
			return err
		}
		finished := s.now()
		session.Status = domain.SessionStatusFinished
		session.FinishedAt = &finished
		session.FinishReason = reason
		session.CommandID = cmd.ID
		s.afterTransition(ctx, session, domain.EventTypeSessionFinished, reason)
		return nil
	})
	if err != nil {
		s.logger.Warnw("session_stop_failed", "session_id", sessionID, "error", err)
		return nil, err
	}
	return session, nil
}

// PauseSession sends pause_service or resume_service and flips the session
// between ACTIVE and PAUSED. Pending commands are left in place.
func (s *washSessionService) PauseSession(ctx context.Context, sessionID string, pause bool) (*domain.WashSession, error) {
	target := domain.SessionStatusActive
	var payload domain.CommandPayload = domain.ResumeServicePayload{}
	eventType := domain.EventTypeSessionResumed
	if pause {
		target = domain.SessionStatusPaused
		payload = domain.PauseServicePayload{}
		eventType = domain.EventTypeSessionPaused
	}

	session, err := s.mutate(ctx, sessionID, func(ctx context.Context, session *domain.WashSession) error {
		if !domain.CanTransition(session.Status, target) {
			return fmt.Errorf("%w: %s -> %s", ErrSessionInvalidTransition, session.Status, target)
		}
		cmd, err := s.queue.Enqueue(ctx, session.KioskID, payload, domain.PriorityPause)
		if err != nil {
			return err
		}
		session.Status = target
		session.CommandID = cmd.ID
		s.afterTransition(ctx, session, eventType, "")
		return nil
	})
	if err != nil {
		s.logger.Warnw("session_pause_failed", "session_id", sessionID, "pause", pause, "error", err)
		return nil, err
	}
	return session, nil
}

// FailSession marks a non-terminal session FAILED and drops whatever is
// still queued for its kiosk.
func (s *washSessionService) FailSession(ctx context.Context, sessionID, reason string) (*domain.WashSession, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultFailReason
	}
	session, err := s.mutate(ctx, sessionID, func(ctx context.Context, session *domain.WashSession) error {
		if _, err := s.queue.CancelAllPending(ctx, session.KioskID); err != nil {
			return err
		}
		finished := s.now()
		session.Status = domain.SessionStatusFailed
		session.FinishedAt = &finished
		session.FinishReason = reason
		s.afterTransition(ctx, session, domain.EventTypeSessionFailed, reason)
		return nil
	})
	if err != nil {
		s.logger.Warnw("session_fail_failed", "session_id", sessionID, "error", err)
		return nil, err
	}
	return session, nil
}

func (s *washSessionService) afterTransition(ctx context.Context, session *domain.WashSession, eventType, reason string) {
	status := session.Status
	id, kioskID, commandID := session.ID, session.KioskID, session.CommandID
	afterCommit(ctx, func(context.Context) {
		metrics.IncSessionTransition(string(status))
		s.logger.Infow("session_transition_ok", "session_id", id, "kiosk_id", kioskID, "status", status, "reason", reason)
	})
	eventStatus := domain.EventStatusSuccess
	if status == domain.SessionStatusFailed {
		eventStatus = domain.EventStatusFailed
	}
	meta := domain.JSONB{"kiosk_id": kioskID, "status": string(status)}
	if commandID != "" {
		meta["command_id"] = commandID
	}
	if reason != "" {
		meta["reason"] = reason
	}
	publish(ctx, s.events, domain.TimelineEvent{
		Type:         eventType,
		Status:       eventStatus,
		Message:      fmt.Sprintf("session %s on %s", strings.ToLower(string(status)), kioskID),
		ResourceType: domain.ResourceSession,
		ResourceID:   id,
		Meta:         meta,
	})
}

func (s *washSessionService) GetSession(ctx context.Context, sessionID string) (*domain.WashSession, error) {
	return s.getSession(ctx, sessionID)
}

func (s *washSessionService) ActiveSessionForUser(ctx context.Context, userID string) (*domain.WashSession, error) {
	session, err := s.sessions.GetOccupyingByUser(ctx, strings.TrimSpace(userID))
	if errors.Is(err, ports.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	return session, err
}

func (s *washSessionService) ListSessions(ctx context.Context, filter domain.SessionFilter) ([]domain.WashSession, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultSessionsLimit
	}
	if filter.Limit > maxSessionsLimit {
		filter.Limit = maxSessionsLimit
	}
	return s.sessions.List(ctx, filter)
}

func balanceCreditedEvent(kioskID string, amount, balance decimal.Decimal, source string) domain.TimelineEvent {
	return domain.TimelineEvent{
		Type:         domain.EventTypeBalanceCredited,
		Message:      fmt.Sprintf("%s credited to %s", amount.String(), kioskID),
		ResourceType: domain.ResourceKiosk,
		ResourceID:   kioskID,
		Meta: domain.JSONB{
			"amount":  amount.String(),
			"balance": balance.String(),
			"source":  source,
		},
	}
}
