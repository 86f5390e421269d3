package ports

import (
	"context"
	"errors"
	"time"

	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/shopspring/decimal"
)

// Storage-level errors every repository implementation translates to.
var (
	ErrRecordNotFound = errors.New("repo: record not found")
	ErrDuplicate      = errors.New("repo: duplicate key")
)

// Transactor runs fn inside one storage transaction. Repositories called
// with the ctx handed to fn take part in that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type CommandRepository interface {
	Create(ctx context.Context, cmd *domain.Command) error
	GetByID(ctx context.Context, id string) (*domain.Command, error)
	ListByController(ctx context.Context, controllerID string, status domain.CommandStatus) ([]domain.Command, error)
	// Complete moves a pending command to a terminal status. It reports false
	// when the command was already terminal and leaves it untouched.
	Complete(ctx context.Context, id string, status domain.CommandStatus, result string, at time.Time) (bool, error)
	CompleteAllPending(ctx context.Context, controllerID string, status domain.CommandStatus, result string, at time.Time) (int, error)
}

type ControllerRepository interface {
	Touch(ctx context.Context, controllerID, name string, at time.Time) (*domain.ControllerLiveness, error)
	GetByID(ctx context.Context, controllerID string) (*domain.ControllerLiveness, error)
	GetAll(ctx context.Context) ([]domain.ControllerLiveness, error)
}

type KioskRepository interface {
	Create(ctx context.Context, kiosk *domain.Kiosk) error
	GetByKioskID(ctx context.Context, kioskID string) (*domain.Kiosk, error)
	GetByMacID(ctx context.Context, macID string) (*domain.Kiosk, error)
	GetAll(ctx context.Context) ([]domain.Kiosk, error)
	// AddBalance atomically adds amount to the kiosk balance and returns the
	// new balance.
	AddBalance(ctx context.Context, kioskID string, amount decimal.Decimal) (decimal.Decimal, error)
}

type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) error
	GetByBranchID(ctx context.Context, branchID string) ([]domain.Program, error)
}

type WashSessionRepository interface {
	// Create fails with ErrDuplicate when the kiosk already has an
	// ACTIVE or PAUSED session.
	Create(ctx context.Context, session *domain.WashSession) error
	GetByID(ctx context.Context, id string) (*domain.WashSession, error)
	GetOccupying(ctx context.Context, kioskID string) (*domain.WashSession, error)
	GetOccupyingByUser(ctx context.Context, userID string) (*domain.WashSession, error)
	List(ctx context.Context, filter domain.SessionFilter) ([]domain.WashSession, error)
	Update(ctx context.Context, session *domain.WashSession) error
}

type PaymentRepository interface {
	Create(ctx context.Context, tx *domain.PaymentTransaction) error
	ListByKiosk(ctx context.Context, kioskID string, limit int) ([]domain.PaymentTransaction, error)
}

type TimelineRepository interface {
	Create(ctx context.Context, event *domain.TimelineEvent) error
	GetByResource(ctx context.Context, resourceType, resourceID string) ([]domain.TimelineEvent, error)
	GetAll(ctx context.Context, limit int) ([]domain.TimelineEvent, error)
}
