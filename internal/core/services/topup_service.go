package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"github.com/ivey1207/supperapp/internal/infrastructure/metrics"
	"github.com/shopspring/decimal"
)

const (
	defaultCurrency      = "UZS"
	paymentStatusSuccess = "SUCCESS"
)

type TopUpServiceConfig struct {
	Kiosks      ports.KioskRepository
	Payments    ports.PaymentRepository
	Queue       ports.CommandQueue
	Tx          ports.Transactor
	Events      ports.EventPublisher
	Logger      *logger.Logger
	Now         func() time.Time
	EnableLocks bool
}

type topUpService struct {
	kiosks   ports.KioskRepository
	payments ports.PaymentRepository
	queue    ports.CommandQueue
	tx       ports.Transactor
	events   ports.EventPublisher
	logger   *logger.Logger
	now      func() time.Time
	locks    *keyLocks
}

func NewTopUpService(cfg TopUpServiceConfig) ports.TopUpService {
	return &topUpService{
		kiosks:   cfg.Kiosks,
		payments: cfg.Payments,
		queue:    cfg.Queue,
		tx:       cfg.Tx,
		events:   cfg.Events,
		logger:   cfg.Logger,
		now:      clockOrDefault(cfg.Now),
		locks:    newKeyLocks(cfg.EnableLocks),
	}
}

// TopUp credits cash an operator handed over at the kiosk and tells the
// device about it with a kiosk_topup command.
func (s *topUpService) TopUp(ctx context.Context, kioskID string, amount decimal.Decimal, adminID string) (*domain.Kiosk, error) {
	if !domain.ValidAmount(amount) {
		return nil, ErrInvalidAmount
	}
	kiosk, err := s.kiosks.GetByKioskID(ctx, strings.TrimSpace(kioskID))
	if errors.Is(err, ports.ErrRecordNotFound) || (err == nil && kiosk.Archived) {
		return nil, ErrKioskNotFound
	}
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lockKeys(kioskLockKey(kiosk.KioskID))
	defer unlock()

	err = runInTx(ctx, s.tx, func(ctx context.Context) error {
		balance, err := s.kiosks.AddBalance(ctx, kiosk.KioskID, amount)
		if err != nil {
			return err
		}
		kiosk.Balance = balance
		payload := domain.KioskTopupPayload{
			KioskID:       kiosk.KioskID,
			KioskName:     kiosk.Name,
			Amount:        amount,
			CashFromAdmin: true,
			Timestamp:     s.now().Format(time.RFC3339),
		}
		if _, err := s.queue.Enqueue(ctx, kiosk.KioskID, payload, domain.PrioritySession); err != nil {
			return err
		}

		afterCommit(ctx, func(context.Context) {
			metrics.ObserveBalanceCredit(metrics.CreditSourceAdmin, amount.InexactFloat64())
			s.logger.Infow("kiosk_topup_ok", "kiosk_id", kiosk.KioskID, "admin_id", adminID, "amount", amount.String(), "balance", balance.String())
		})
		event := balanceCreditedEvent(kiosk.KioskID, amount, balance, metrics.CreditSourceAdmin)
		if adminID != "" {
			event.Meta["admin_id"] = adminID
		}
		publish(ctx, s.events, event)
		return nil
	})
	if err != nil {
		s.logger.Errorw("kiosk_topup_failed", "kiosk_id", kiosk.KioskID, "admin_id", adminID, "error", err)
		return nil, err
	}
	return kiosk, nil
}

// RegisterDevicePayment records cash or RFID money accepted by the kiosk
// itself and credits it. The device already holds the money, so nothing is
// queued back to it.
func (s *topUpService) RegisterDevicePayment(ctx context.Context, input ports.DevicePaymentInput) (*ports.DevicePaymentResult, error) {
	macID := domain.NormalizeMacID(input.MacID)
	if macID == "" {
		return nil, fmt.Errorf("%w: macId is required", ErrKioskInvalidInput)
	}
	paymentType := domain.PaymentType(strings.ToUpper(strings.TrimSpace(string(input.PaymentType))))
	if paymentType == "" {
		paymentType = domain.PaymentTypeCash
	}
	if paymentType != domain.PaymentTypeCash && paymentType != domain.PaymentTypeRFID {
		return nil, fmt.Errorf("%w: unsupported payment type %q", ErrKioskInvalidInput, input.PaymentType)
	}
	if !domain.ValidAmount(input.Amount) {
		return nil, ErrInvalidAmount
	}

	kiosk, err := s.kiosks.GetByMacID(ctx, macID)
	if errors.Is(err, ports.ErrRecordNotFound) || (err == nil && kiosk.Archived) {
		s.logger.Warnw("device_payment_unknown_kiosk", "mac_id", macID)
		return nil, ErrKioskNotFound
	}
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = string(paymentType) + " payment"
	}
	payment := &domain.PaymentTransaction{
		ID:          uuid.NewString(),
		KioskID:     kiosk.KioskID,
		MacID:       macID,
		OrgID:       kiosk.OrgID,
		BranchID:    kiosk.BranchID,
		PaymentType: paymentType,
		Amount:      input.Amount,
		Currency:    defaultCurrency,
		Description: description,
		Status:      paymentStatusSuccess,
		CreatedAt:   s.now(),
	}
	if paymentType == domain.PaymentTypeRFID {
		payment.RFIDCardID = strings.TrimSpace(input.RFIDCardID)
	}

	unlock := s.locks.lockKeys(kioskLockKey(kiosk.KioskID))
	defer unlock()

	var balance decimal.Decimal
	err = runInTx(ctx, s.tx, func(ctx context.Context) error {
		if err := s.payments.Create(ctx, payment); err != nil {
			return err
		}
		var err error
		if balance, err = s.kiosks.AddBalance(ctx, kiosk.KioskID, input.Amount); err != nil {
			return err
		}

		afterCommit(ctx, func(context.Context) {
			metrics.ObserveBalanceCredit(metrics.CreditSourceDevice, input.Amount.InexactFloat64())
			s.logger.Infow("device_payment_ok", "kiosk_id", kiosk.KioskID, "payment_id", payment.ID, "payment_type", paymentType, "amount", input.Amount.String())
		})
		event := balanceCreditedEvent(kiosk.KioskID, input.Amount, balance, metrics.CreditSourceDevice)
		event.Meta["payment_id"] = payment.ID
		event.Meta["payment_type"] = string(paymentType)
		publish(ctx, s.events, event)
		return nil
	})
	if err != nil {
		s.logger.Errorw("device_payment_failed", "kiosk_id", kiosk.KioskID, "error", err)
		return nil, err
	}
	return &ports.DevicePaymentResult{Transaction: payment, KioskBalance: balance}, nil
}
