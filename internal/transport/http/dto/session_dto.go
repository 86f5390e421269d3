package dto

import (
	"encoding/json"
	"time"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/shopspring/decimal"
)

type StopSessionRequest struct {
	Reason string `json:"reason"`
}

type PauseSessionRequest struct {
	Pause *bool `json:"pause"`
}

type SessionResponse struct {
	ID           string          `json:"id"`
	KioskID      string          `json:"kiosk_id"`
	UserID       string          `json:"user_id"`
	OrgID        string          `json:"org_id,omitempty"`
	BranchID     string          `json:"branch_id,omitempty"`
	Status       string          `json:"status"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	CommandID    string          `json:"command_id,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
}

func SessionToResponse(s *domain.WashSession) SessionResponse {
	return SessionResponse{
		ID:           s.ID,
		KioskID:      s.KioskID,
		UserID:       s.UserID,
		OrgID:        s.OrgID,
		BranchID:     s.BranchID,
		Status:       string(s.Status),
		PaidAmount:   s.PaidAmount,
		CommandID:    s.CommandID,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		FinishReason: s.FinishReason,
	}
}

func SessionsToResponse(sessions []domain.WashSession) []SessionResponse {
	out := make([]SessionResponse, len(sessions))
	for i := range sessions {
		out[i] = SessionToResponse(&sessions[i])
	}
	return out
}

type ProgramResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Category        string `json:"category,omitempty"`
	PricePerMinute  int    `json:"price_per_minute"`
	DurationMinutes int    `json:"duration_minutes"`
}

type KioskInfoResponse struct {
	KioskID         string            `json:"kiosk_id"`
	Name            string            `json:"name"`
	Status          string            `json:"status"`
	Balance         decimal.Decimal   `json:"balance"`
	SessionActive   bool              `json:"session_active"`
	ActiveSessionID string            `json:"active_session_id,omitempty"`
	LastPing        *time.Time        `json:"last_ping,omitempty"`
	Programs        []ProgramResponse `json:"programs"`
}

func DeviceInfoToResponse(info *ports.DeviceInfo) KioskInfoResponse {
	out := KioskInfoResponse{
		KioskID:         info.Kiosk.KioskID,
		Name:            info.Kiosk.Name,
		Status:          string(info.Kiosk.Status),
		Balance:         info.Kiosk.Balance,
		SessionActive:   info.SessionActive,
		ActiveSessionID: info.ActiveSessionID,
		LastPing:        info.LastPing,
		Programs:        make([]ProgramResponse, len(info.Programs)),
	}
	for i, p := range info.Programs {
		out.Programs[i] = ProgramResponse{
			ID:              p.ID,
			Name:            p.Name,
			Description:     p.Description,
			Category:        p.Category,
			PricePerMinute:  p.PricePerMinute,
			DurationMinutes: p.DurationMinutes,
		}
	}
	return out
}

type KioskBalanceResponse struct {
	KioskID string          `json:"kiosk_id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// DevicePaymentRequest uses the camelCase keys the kiosk firmware sends.
type DevicePaymentRequest struct {
	MacID       string          `json:"macId"`
	PaymentType string          `json:"paymentType"`
	Amount      json.RawMessage `json:"amount"`
	RFIDCardID  string          `json:"rfidCardId"`
	Description string          `json:"description"`
}

type DevicePaymentResponse struct {
	Status        string          `json:"status"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	KioskBalance  decimal.Decimal `json:"kioskBalance"`
}
