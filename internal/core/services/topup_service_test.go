package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/shopspring/decimal"
)

func TestTopUpCreditsAndQueuesCommand(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	kiosk, err := env.topups.TopUp(ctx, "K1", amount(20000), "admin-1")
	if err != nil {
		t.Fatalf("top-up: %v", err)
	}
	if !kiosk.Balance.Equal(amount(30000)) {
		t.Fatalf("expected 30000, got %s", kiosk.Balance)
	}
	pending := env.commands(t, "K1", domain.CommandStatusPending)
	if len(pending) != 1 || pending[0].CommandType != domain.CmdKioskTopup || pending[0].Priority != domain.PrioritySession {
		t.Fatalf("expected kiosk_topup, got %+v", pending)
	}
	payload, _ := domain.DecodePayload(pending[0].CommandType, pending[0].Payload)
	topup := payload.(domain.KioskTopupPayload)
	if topup.KioskID != "K1" || topup.KioskName != "Kiosk K1" || !topup.CashFromAdmin || topup.Timestamp == "" {
		t.Fatalf("unexpected payload %+v", topup)
	}
}

func TestTopUpValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.topups.TopUp(ctx, "K1", amount(0), "a"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := env.topups.TopUp(ctx, "K1", decimal.RequireFromString("0.001"), "a"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("sub-cent top-up: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := env.sessions.StartSession(ctx, "K1", "U1", decimal.New(1, -9)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("sub-cent session: expected ErrInvalidAmount, got %v", err)
	}
	if _, err := env.topups.TopUp(ctx, "K9", amount(10), "a"); !errors.Is(err, ErrKioskNotFound) {
		t.Fatalf("expected ErrKioskNotFound, got %v", err)
	}
	if len(env.commands(t, "K1", "")) != 0 {
		t.Fatalf("rejected top-ups must not enqueue")
	}
}

func TestRegisterDevicePayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.topups.RegisterDevicePayment(ctx, ports.DevicePaymentInput{
		MacID:       "aa:bb:cc:00:00:01",
		PaymentType: "rfid",
		Amount:      amount(7000),
		RFIDCardID:  "CARD-1",
	})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if !res.KioskBalance.Equal(amount(17000)) {
		t.Fatalf("expected 17000, got %s", res.KioskBalance)
	}
	if res.Transaction.KioskID != "K1" || res.Transaction.PaymentType != domain.PaymentTypeRFID || res.Transaction.RFIDCardID != "CARD-1" {
		t.Fatalf("unexpected transaction %+v", res.Transaction)
	}
	if res.Transaction.Description != "RFID payment" || res.Transaction.Currency != "UZS" {
		t.Fatalf("unexpected defaults %+v", res.Transaction)
	}
	payments, _ := env.store.Payments().ListByKiosk(ctx, "K1", 10)
	if len(payments) != 1 {
		t.Fatalf("expected one stored payment, got %d", len(payments))
	}
	// The kiosk already counted the money it reported.
	if cmds := env.commands(t, "K1", ""); len(cmds) != 0 {
		t.Fatalf("device payments must not queue commands, got %+v", cmds)
	}
	beat, err := env.gateway.HandleHeartbeat(ctx, "AA:BB:CC:00:00:01")
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if beat.Command != nil {
		t.Fatalf("expected no command after a device payment, got %+v", beat.Command)
	}
}

func TestRegisterDevicePaymentValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input ports.DevicePaymentInput
		want  error
	}{
		{"missing mac", ports.DevicePaymentInput{Amount: amount(1)}, ErrKioskInvalidInput},
		{"bad type", ports.DevicePaymentInput{MacID: "AA:BB:CC:00:00:01", PaymentType: "CARD", Amount: amount(1)}, ErrKioskInvalidInput},
		{"zero amount", ports.DevicePaymentInput{MacID: "AA:BB:CC:00:00:01", Amount: amount(0)}, ErrInvalidAmount},
		{"sub-cent amount", ports.DevicePaymentInput{MacID: "AA:BB:CC:00:00:01", Amount: decimal.RequireFromString("12.345")}, ErrInvalidAmount},
		{"unknown kiosk", ports.DevicePaymentInput{MacID: "00:00:00:00:00:00", Amount: amount(1)}, ErrKioskNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.topups.RegisterDevicePayment(ctx, tt.input); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if !env.balance(t, "K1").Equal(amount(10000)) {
		t.Fatalf("rejected payments must not credit")
	}
}
