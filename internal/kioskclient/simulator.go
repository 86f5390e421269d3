package kioskclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Device is the part of the client the simulator depends on.
type Device interface {
	Heartbeat(ctx context.Context) (*HeartbeatResponse, error)
	ReportExecuted(ctx context.Context, commandID, result string) error
	ReportFailed(ctx context.Context, commandID, message string) error
}

// State is what a kiosk display would show.
type State struct {
	Balance   decimal.Decimal
	Running   bool
	Paused    bool
	SessionID string
	Programs  []string
}

var errUnsupported = errors.New("unsupported command")

// Simulator plays a kiosk controller: every Tick polls once, applies the
// delivered command to local state and reports the outcome.
type Simulator struct {
	device Device
	logger *zap.Logger

	mu    sync.Mutex
	state State
}

func NewSimulator(device Device, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{device: device, logger: logger}
}

func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Programs = append([]string(nil), s.state.Programs...)
	return st
}

// AcceptCash adds money taken by the local acceptor. The backend is told
// through RegisterPayment and does not send it back.
func (s *Simulator) AcceptCash(amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Balance = s.state.Balance.Add(amount)
}

// Tick runs one heartbeat round and returns the number of commands handled.
// Report failures are logged; the command will be offered again next round.
func (s *Simulator) Tick(ctx context.Context) (int, error) {
	resp, err := s.device.Heartbeat(ctx)
	if err != nil {
		return 0, err
	}
	for _, cmd := range resp.Commands {
		if applyErr := s.apply(cmd); applyErr != nil {
			s.logger.Warn("kiosk_command_failed", zap.String("command_id", cmd.ID), zap.String("type", cmd.kind()), zap.Error(applyErr))
			if err := s.device.ReportFailed(ctx, cmd.ID, applyErr.Error()); err != nil {
				s.logger.Warn("kiosk_report_failed", zap.String("command_id", cmd.ID), zap.Error(err))
			}
			continue
		}
		s.logger.Info("kiosk_command_executed", zap.String("command_id", cmd.ID), zap.String("type", cmd.kind()))
		if err := s.device.ReportExecuted(ctx, cmd.ID, "success"); err != nil {
			s.logger.Warn("kiosk_report_failed", zap.String("command_id", cmd.ID), zap.Error(err))
		}
	}
	return len(resp.Commands), nil
}

func (c Command) kind() string {
	if c.CommandType != "" {
		return c.CommandType
	}
	return c.Type
}

type sessionStarted struct {
	SessionID  string          `json:"session_id"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Programs   []struct {
		Name string `json:"name"`
	} `json:"programs"`
}

func (s *Simulator) apply(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.kind() {
	case "session_started":
		var p sessionStarted
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return fmt.Errorf("bad session payload: %w", err)
		}
		s.state.Balance = s.state.Balance.Add(p.PaidAmount)
		s.state.SessionID = p.SessionID
		s.state.Running, s.state.Paused = true, false
		s.state.Programs = s.state.Programs[:0]
		for _, prog := range p.Programs {
			s.state.Programs = append(s.state.Programs, prog.Name)
		}
	case "session_stopped":
		s.state.Running, s.state.Paused = false, false
		s.state.SessionID = ""
	case "pause_service":
		if !s.state.Running {
			return errors.New("nothing to pause")
		}
		s.state.Paused = true
	case "resume_service":
		s.state.Paused = false
	case "kiosk_topup":
		if cmd.Amount == nil {
			return errors.New("top-up without amount")
		}
		s.state.Balance = s.state.Balance.Add(*cmd.Amount)
	case "payment_received":
		if cmd.PaymentAmount != nil {
			s.state.Balance = s.state.Balance.Add(*cmd.PaymentAmount)
		}
	default:
		return errUnsupported
	}
	return nil
}
