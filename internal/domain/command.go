package domain

import (
	"sort"
	"time"
)

// CommandType tags the instruction a kiosk has to execute. The set is open:
// admin actions may enqueue types the backend does not know about.
type CommandType string

const (
	CmdSessionStarted  CommandType = "session_started"
	CmdSessionStopped  CommandType = "session_stopped"
	CmdPauseService    CommandType = "pause_service"
	CmdResumeService   CommandType = "resume_service"
	CmdKioskTopup      CommandType = "kiosk_topup"
	CmdPaymentReceived CommandType = "payment_received"
)

// Priorities used by the dispatch path.
const (
	PrioritySession = 10
	PriorityPause   = 9
	PriorityDefault = 1
)

// CommandStatus represents the current status of a command
type CommandStatus string

const (
	CommandStatusPending  CommandStatus = "pending"
	CommandStatusExecuted CommandStatus = "executed"
	CommandStatusFailed   CommandStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s CommandStatus) IsTerminal() bool {
	return s == CommandStatusExecuted || s == CommandStatusFailed
}

func (s CommandStatus) Valid() bool {
	return s == CommandStatusPending || s.IsTerminal()
}

// CancelledResult is recorded on commands invalidated by CancelAllPending.
const CancelledResult = "cancelled"

// Command is one instruction destined for exactly one controller. Rows are
// append-only; only the status, result and execution time ever change.
type Command struct {
	ID           string        `gorm:"primaryKey;size:36" json:"id"`
	ControllerID string        `gorm:"size:64;not null;index:idx_commands_controller_status,priority:1" json:"controller_id"`
	CommandType  CommandType   `gorm:"size:64;not null" json:"command_type"`
	Payload      string        `gorm:"type:text" json:"payload"`
	Priority     int           `gorm:"not null;default:1" json:"priority"`
	Status       CommandStatus `gorm:"size:20;not null;default:'pending';index:idx_commands_controller_status,priority:2" json:"status"`
	Result       string        `gorm:"type:text" json:"result,omitempty"`
	CreatedAt    time.Time     `gorm:"not null;index" json:"created_at"`
	ExecutedAt   *time.Time    `json:"executed_at,omitempty"`
}

// SelectNext picks the single command a polling controller should receive.
// A pending pause_service always wins; otherwise the most recently created
// command wins, ties broken by priority and then id so the result does not
// depend on input order.
func SelectNext(pending []Command) *Command {
	var pause, latest *Command
	for i := range pending {
		cmd := &pending[i]
		if cmd.Status != CommandStatusPending {
			continue
		}
		if cmd.CommandType == CmdPauseService && (pause == nil || newer(cmd, pause)) {
			pause = cmd
		}
		if latest == nil || newer(cmd, latest) {
			latest = cmd
		}
	}
	if pause != nil {
		return pause
	}
	return latest
}

func newer(a, b *Command) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.ID > b.ID
}

// SortNewestFirst orders a command ledger for display.
func SortNewestFirst(cmds []Command) {
	sort.SliceStable(cmds, func(i, j int) bool {
		return newer(&cmds[i], &cmds[j])
	})
}
