package ports

import (
	"context"
	"time"

	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/shopspring/decimal"
)

type ControllerRegistry interface {
	RecordHeartbeat(ctx context.Context, controllerID string) (*domain.ControllerLiveness, error)
	List(ctx context.Context) ([]domain.ControllerLiveness, error)
}

type CommandQueue interface {
	Enqueue(ctx context.Context, controllerID string, payload domain.CommandPayload, priority int) (*domain.Command, error)
	SelectNext(ctx context.Context, controllerID string) (*domain.Command, error)
	MarkExecuted(ctx context.Context, commandID, result string) (bool, error)
	MarkFailed(ctx context.Context, commandID, errorMessage string) (bool, error)
	CancelAllPending(ctx context.Context, controllerID string) (int, error)
	Get(ctx context.Context, commandID string) (*domain.Command, error)
	List(ctx context.Context, controllerID string, status domain.CommandStatus) ([]domain.Command, error)
}

// ExecutionOutcome is what a device reports after running a command.
type ExecutionOutcome string

const (
	OutcomeExecuted ExecutionOutcome = "executed"
	OutcomeFailed   ExecutionOutcome = "failed"
)

type HeartbeatResult struct {
	ControllerID string
	Command      *domain.Command
	Payload      domain.CommandPayload
	ServerTime   time.Time
}

type HeartbeatGateway interface {
	HandleHeartbeat(ctx context.Context, deviceID string) (*HeartbeatResult, error)
	HandleExecutionReport(ctx context.Context, commandID string, outcome ExecutionOutcome, detail string) error
}

type DeviceInfo struct {
	Kiosk           domain.Kiosk
	SessionActive   bool
	ActiveSessionID string
	LastPing        *time.Time
	Programs        []domain.Program
}

type WashSessionManager interface {
	GetDeviceInfo(ctx context.Context, kioskID string) (*DeviceInfo, error)
	StartSession(ctx context.Context, kioskID, userID string, amount decimal.Decimal) (*domain.WashSession, error)
	StopSession(ctx context.Context, sessionID, reason string) (*domain.WashSession, error)
	PauseSession(ctx context.Context, sessionID string, pause bool) (*domain.WashSession, error)
	FailSession(ctx context.Context, sessionID, reason string) (*domain.WashSession, error)
	GetSession(ctx context.Context, sessionID string) (*domain.WashSession, error)
	ActiveSessionForUser(ctx context.Context, userID string) (*domain.WashSession, error)
	ListSessions(ctx context.Context, filter domain.SessionFilter) ([]domain.WashSession, error)
}

type DevicePaymentInput struct {
	MacID       string
	PaymentType domain.PaymentType
	Amount      decimal.Decimal
	RFIDCardID  string
	Description string
}

type DevicePaymentResult struct {
	Transaction  *domain.PaymentTransaction
	KioskBalance decimal.Decimal
}

type TopUpService interface {
	TopUp(ctx context.Context, kioskID string, amount decimal.Decimal, adminID string) (*domain.Kiosk, error)
	RegisterDevicePayment(ctx context.Context, input DevicePaymentInput) (*DevicePaymentResult, error)
}

// EventPublisher fans dispatch and session events out to the audit trail
// and live subscribers. Publishing never fails the calling operation.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.TimelineEvent)
}
