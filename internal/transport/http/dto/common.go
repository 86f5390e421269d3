package dto

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount accepts a JSON number or a numeric string and rejects anything
// that is not strictly positive or has more than two fractional digits.
func ParseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, ErrInvalidAmount
		}
		text = strings.TrimSpace(s)
	}
	amount, err := decimal.NewFromString(text)
	if err != nil || !domain.ValidAmount(amount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// AmountRequest is the body of start-session and top-up calls.
type AmountRequest struct {
	Amount json.RawMessage `json:"amount"`
}
