package dto

import (
	"encoding/json"
	"time"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/shopspring/decimal"
)

// CommandWire is one command as polling kiosks receive it. Legacy firmware
// reads the type-specific fields from the top level, so kiosk_topup and
// payment_received bodies are flattened next to the full payload.
type CommandWire struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	CommandType   string          `json:"command_type"`
	Action        *string         `json:"action"`
	PostID        *string         `json:"post_id"`
	CommandFormat *string         `json:"command_format"`
	Frame         *string         `json:"frame"`
	Priority      int             `json:"priority"`
	CreatedAt     string          `json:"created_at"`
	Payload       json.RawMessage `json:"payload"`

	KioskID       string           `json:"kiosk_id,omitempty"`
	KioskName     string           `json:"kiosk_name,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	CashFromAdmin *bool            `json:"cash_from_admin,omitempty"`
	Timestamp     string           `json:"timestamp,omitempty"`

	PaymentAmount *decimal.Decimal `json:"payment_amount,omitempty"`
	PaymentType   string           `json:"payment_type,omitempty"`
	ServiceName   string           `json:"service_name,omitempty"`
	ServiceCost   *decimal.Decimal `json:"service_cost,omitempty"`
}

type HeartbeatResponse struct {
	Status       string        `json:"status"`
	ControllerID string        `json:"controller_id"`
	Commands     []CommandWire `json:"commands"`
	ServerTime   string        `json:"server_time"`
}

func HeartbeatToResponse(res *ports.HeartbeatResult) HeartbeatResponse {
	out := HeartbeatResponse{
		Status:       "ok",
		ControllerID: res.ControllerID,
		Commands:     []CommandWire{},
		ServerTime:   res.ServerTime.UTC().Format(time.RFC3339Nano),
	}
	if res.Command != nil {
		out.Commands = append(out.Commands, CommandToWire(res.Command, res.Payload))
	}
	return out
}

// rawHints are the optional routing fields admin-defined commands may carry.
type rawHints struct {
	Action        *string `json:"action"`
	PostID        *string `json:"post_id"`
	CommandFormat *string `json:"command_format"`
	Frame         *string `json:"frame"`
}

func CommandToWire(cmd *domain.Command, payload domain.CommandPayload) CommandWire {
	w := CommandWire{
		ID:          cmd.ID,
		Type:        string(cmd.CommandType),
		CommandType: string(cmd.CommandType),
		Priority:    cmd.Priority,
		CreatedAt:   cmd.CreatedAt.UTC().Format(time.RFC3339Nano),
		Payload:     json.RawMessage("{}"),
	}
	if payload == nil {
		return w
	}
	if body, err := json.Marshal(payload); err == nil {
		w.Payload = body
	}

	switch p := payload.(type) {
	case domain.KioskTopupPayload:
		amount, cash := p.Amount, p.CashFromAdmin
		w.KioskID = p.KioskID
		w.KioskName = p.KioskName
		w.Amount = &amount
		w.CashFromAdmin = &cash
		w.Timestamp = p.Timestamp
	case domain.PaymentReceivedPayload:
		paid, cost := p.PaymentAmount, p.ServiceCost
		w.PaymentAmount = &paid
		w.PaymentType = p.PaymentType
		if w.PaymentType == "" {
			w.PaymentType = "online"
		}
		w.ServiceName = p.ServiceName
		w.ServiceCost = &cost
	case domain.RawPayload:
		var hints rawHints
		if json.Unmarshal(p.Data, &hints) == nil {
			w.Action = hints.Action
			w.PostID = hints.PostID
			w.CommandFormat = hints.CommandFormat
			w.Frame = hints.Frame
		}
	}
	return w
}

// CommandResponse is the admin ledger view of a command.
type CommandResponse struct {
	ID           string          `json:"id"`
	ControllerID string          `json:"controller_id"`
	CommandType  string          `json:"command_type"`
	Payload      json.RawMessage `json:"payload"`
	Priority     int             `json:"priority"`
	Status       string          `json:"status"`
	Result       string          `json:"result,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ExecutedAt   *time.Time      `json:"executed_at,omitempty"`
}

func CommandToResponse(cmd *domain.Command) CommandResponse {
	payload := json.RawMessage(cmd.Payload)
	if !json.Valid(payload) {
		payload = json.RawMessage("{}")
	}
	return CommandResponse{
		ID:           cmd.ID,
		ControllerID: cmd.ControllerID,
		CommandType:  string(cmd.CommandType),
		Payload:      payload,
		Priority:     cmd.Priority,
		Status:       string(cmd.Status),
		Result:       cmd.Result,
		CreatedAt:    cmd.CreatedAt,
		ExecutedAt:   cmd.ExecutedAt,
	}
}

func CommandsToResponse(cmds []domain.Command) []CommandResponse {
	out := make([]CommandResponse, len(cmds))
	for i := range cmds {
		out[i] = CommandToResponse(&cmds[i])
	}
	return out
}

// EnqueueCommandRequest lets an operator queue an arbitrary command.
type EnqueueCommandRequest struct {
	CommandType string          `json:"command_type"`
	Payload     json.RawMessage `json:"payload"`
	Priority    int             `json:"priority"`
}

func (r *EnqueueCommandRequest) Validate() []string {
	var errors []string
	if r.CommandType == "" {
		errors = append(errors, "command_type is required")
	}
	if len(r.Payload) > 0 && !json.Valid(r.Payload) {
		errors = append(errors, "payload must be valid JSON")
	}
	if r.Priority < 0 {
		errors = append(errors, "priority must not be negative")
	}
	return errors
}

// ToPayload decodes the request body into the typed variant for known
// command types and a raw payload otherwise.
func (r *EnqueueCommandRequest) ToPayload() (domain.CommandPayload, error) {
	body := string(r.Payload)
	if body == "" || body == "null" {
		body = "{}"
	}
	return domain.DecodePayload(domain.CommandType(r.CommandType), body)
}

type ExecutionReportRequest struct {
	ExecutionResult string `json:"executionResult"`
	ErrorMessage    string `json:"errorMessage"`
}

type ControllerResponse struct {
	ControllerID string    `json:"controller_id"`
	Name         string    `json:"name"`
	LastPing     time.Time `json:"last_ping"`
	Active       bool      `json:"active"`
}

func ControllersToResponse(nodes []domain.ControllerLiveness) []ControllerResponse {
	out := make([]ControllerResponse, len(nodes))
	for i, n := range nodes {
		out[i] = ControllerResponse{ControllerID: n.ControllerID, Name: n.Name, LastPing: n.LastPing, Active: n.Active}
	}
	return out
}
