package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	SessionStatusPending  SessionStatus = "PENDING"
	SessionStatusActive   SessionStatus = "ACTIVE"
	SessionStatusPaused   SessionStatus = "PAUSED"
	SessionStatusFinished SessionStatus = "FINISHED"
	SessionStatusFailed   SessionStatus = "FAILED"
)

func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusFinished || s == SessionStatusFailed
}

// Occupying reports whether the session holds its kiosk. At most one
// occupying session may exist per kiosk.
func (s SessionStatus) Occupying() bool {
	return s == SessionStatusActive || s == SessionStatusPaused
}

// OccupyingStatuses lists the statuses covered by the one-session-per-kiosk rule.
var OccupyingStatuses = []SessionStatus{SessionStatusActive, SessionStatusPaused}

var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusPending: {SessionStatusActive, SessionStatusFinished, SessionStatusFailed},
	SessionStatusActive:  {SessionStatusPaused, SessionStatusFinished, SessionStatusFailed},
	SessionStatusPaused:  {SessionStatusActive, SessionStatusFinished, SessionStatusFailed},
}

// CanTransition reports whether from -> to is a legal session transition.
func CanTransition(from, to SessionStatus) bool {
	for _, s := range sessionTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Finish reasons used by the backend itself.
const (
	FinishReasonUserStop  = "user_stop"
	FinishReasonAdminStop = "admin_stop"
)

// WashSession is the period during which a paying user operates one kiosk.
type WashSession struct {
	ID           string          `gorm:"primaryKey;size:36" json:"id"`
	KioskID      string          `gorm:"size:64;not null;index" json:"kiosk_id"`
	UserID       string          `gorm:"size:64;not null;index" json:"user_id"`
	OrgID        string          `gorm:"size:64" json:"org_id,omitempty"`
	BranchID     string          `gorm:"size:64" json:"branch_id,omitempty"`
	Status       SessionStatus   `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	PaidAmount   decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"paid_amount"`
	CommandID    string          `gorm:"size:36" json:"command_id,omitempty"`
	StartedAt    time.Time       `gorm:"index" json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	FinishReason string          `gorm:"size:255" json:"finish_reason,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SessionFilter narrows session listings. Empty fields match everything.
type SessionFilter struct {
	KioskID string
	UserID  string
	Status  SessionStatus
	Limit   int
}
