package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/shopspring/decimal"
)

func TestCommandToWireFlattensTopup(t *testing.T) {
	cmd := &domain.Command{ID: "c1", CommandType: domain.CmdKioskTopup, Priority: 10, CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	payload := domain.KioskTopupPayload{KioskID: "K1", KioskName: "Bay 1", Amount: decimal.NewFromInt(20000), CashFromAdmin: true, Timestamp: "2026-03-01T10:00:00Z"}

	body, err := json.Marshal(CommandToWire(cmd, payload))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var wire map[string]interface{}
	if err := json.Unmarshal(body, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if wire["type"] != "kiosk_topup" || wire["command_type"] != "kiosk_topup" || wire["kiosk_name"] != "Bay 1" {
		t.Fatalf("unexpected wire %s", body)
	}
	if amount, ok := wire["amount"].(float64); !ok || amount != 20000 {
		t.Fatalf("amount should be a JSON number, got %s", body)
	}
	if _, ok := wire["action"]; !ok {
		t.Fatalf("legacy keys must always be present: %s", body)
	}
	if _, ok := wire["payment_amount"]; ok {
		t.Fatalf("payment fields leaked into top-up: %s", body)
	}
}

func TestCommandToWireRawHints(t *testing.T) {
	cmd := &domain.Command{ID: "c2", CommandType: "relay", CreatedAt: time.Now()}
	payload := domain.RawPayload{Type: "relay", Data: json.RawMessage(`{"action":"open","frame":"AA01"}`)}

	w := CommandToWire(cmd, payload)
	if w.Action == nil || *w.Action != "open" || w.Frame == nil || *w.Frame != "AA01" || w.PostID != nil {
		t.Fatalf("unexpected hints %+v", w)
	}
	if string(w.Payload) != `{"action":"open","frame":"AA01"}` {
		t.Fatalf("payload not passed through: %s", w.Payload)
	}
}

func TestCommandToWirePaymentDefaultsType(t *testing.T) {
	cmd := &domain.Command{ID: "c3", CommandType: domain.CmdPaymentReceived, CreatedAt: time.Now()}
	w := CommandToWire(cmd, domain.PaymentReceivedPayload{PaymentAmount: decimal.NewFromInt(5)})
	if w.PaymentType != "online" || w.PaymentAmount == nil || !w.PaymentAmount.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected payment wire %+v", w)
	}
}
