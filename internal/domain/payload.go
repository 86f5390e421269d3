package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// CommandPayload is the typed body of a command. Each variant is keyed by the
// command type it travels with.
type CommandPayload interface {
	CommandType() CommandType
}

// ProgramPayload is one executable wash mode as the kiosk screen sees it.
type ProgramPayload struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	RelayBits       string `json:"relay_bits"`
	MotorFrequency  int    `json:"motor_frequency"`
	Pump1Power      int    `json:"pump1_power"`
	Pump2Power      int    `json:"pump2_power"`
	Pump3Power      int    `json:"pump3_power"`
	Pump4Power      int    `json:"pump4_power"`
	MotorFlag       string `json:"motor_flag"`
	Command         string `json:"command"`
	DurationMinutes int    `json:"duration_minutes"`
	PricePerMinute  int    `json:"price_per_minute"`
}

type SessionStartedPayload struct {
	SessionID  string           `json:"session_id"`
	KioskID    string           `json:"kiosk_id"`
	Balance    decimal.Decimal  `json:"balance"`
	PaidAmount decimal.Decimal  `json:"paid_amount"`
	StartedAt  string           `json:"started_at"`
	Programs   []ProgramPayload `json:"programs"`
}

func (SessionStartedPayload) CommandType() CommandType { return CmdSessionStarted }

type SessionStoppedPayload struct {
	Reason string `json:"reason"`
}

func (SessionStoppedPayload) CommandType() CommandType { return CmdSessionStopped }

type PauseServicePayload struct{}

func (PauseServicePayload) CommandType() CommandType { return CmdPauseService }

type ResumeServicePayload struct{}

func (ResumeServicePayload) CommandType() CommandType { return CmdResumeService }

type KioskTopupPayload struct {
	KioskID       string          `json:"kiosk_id"`
	KioskName     string          `json:"kiosk_name"`
	Amount        decimal.Decimal `json:"amount"`
	CashFromAdmin bool            `json:"cash_from_admin"`
	Timestamp     string          `json:"timestamp"`
}

func (KioskTopupPayload) CommandType() CommandType { return CmdKioskTopup }

type PaymentReceivedPayload struct {
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	PaymentType   string          `json:"payment_type"`
	ServiceName   string          `json:"service_name,omitempty"`
	ServiceCost   decimal.Decimal `json:"service_cost"`
}

func (PaymentReceivedPayload) CommandType() CommandType { return CmdPaymentReceived }

// RawPayload carries admin-defined command types the backend does not model.
type RawPayload struct {
	Type CommandType
	Data json.RawMessage
}

func (p RawPayload) CommandType() CommandType { return p.Type }

func (p RawPayload) MarshalJSON() ([]byte, error) {
	if len(p.Data) == 0 {
		return []byte("{}"), nil
	}
	return p.Data, nil
}

var ErrInvalidPayload = errors.New("payload: invalid")

// EncodePayload serializes a payload for storage in Command.Payload.
func EncodePayload(p CommandPayload) (string, error) {
	if p == nil {
		return "", fmt.Errorf("%w: nil payload", ErrInvalidPayload)
	}
	if p.CommandType() == "" {
		return "", fmt.Errorf("%w: empty command type", ErrInvalidPayload)
	}
	if raw, ok := p.(RawPayload); ok && len(raw.Data) > 0 && !json.Valid(raw.Data) {
		return "", fmt.Errorf("%w: raw payload is not JSON", ErrInvalidPayload)
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return string(b), nil
}

// DecodePayload turns a stored payload back into its typed variant. Unknown
// command types come back as RawPayload.
func DecodePayload(t CommandType, text string) (CommandPayload, error) {
	if text == "" {
		text = "{}"
	}
	var (
		p   CommandPayload
		err error
	)
	switch t {
	case CmdSessionStarted:
		var v SessionStartedPayload
		err = json.Unmarshal([]byte(text), &v)
		p = v
	case CmdSessionStopped:
		var v SessionStoppedPayload
		err = json.Unmarshal([]byte(text), &v)
		p = v
	case CmdPauseService:
		p = PauseServicePayload{}
	case CmdResumeService:
		p = ResumeServicePayload{}
	case CmdKioskTopup:
		var v KioskTopupPayload
		err = json.Unmarshal([]byte(text), &v)
		p = v
	case CmdPaymentReceived:
		var v PaymentReceivedPayload
		err = json.Unmarshal([]byte(text), &v)
		p = v
	default:
		if !json.Valid([]byte(text)) {
			return nil, fmt.Errorf("%w: %s payload is not JSON", ErrInvalidPayload, t)
		}
		p = RawPayload{Type: t, Data: json.RawMessage(text)}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, t, err)
	}
	return p, nil
}
