package db

import (
	"context"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentRepository(db *gorm.DB, log *logger.Logger) ports.PaymentRepository {
	return &paymentRepository{db: db, log: log}
}

func (r *paymentRepository) Create(ctx context.Context, tx *domain.PaymentTransaction) error {
	if err := conn(ctx, r.db).Create(tx).Error; err != nil {
		r.log.Errorw("payment_repo_create_failed", "kiosk_id", tx.KioskID, "error", err)
		return translateErr(err)
	}
	return nil
}

func (r *paymentRepository) ListByKiosk(ctx context.Context, kioskID string, limit int) ([]domain.PaymentTransaction, error) {
	var txs []domain.PaymentTransaction
	q := conn(ctx, r.db).Where("kiosk_id = ?", kioskID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&txs).Error; err != nil {
		r.log.Errorw("payment_repo_list_failed", "kiosk_id", kioskID, "error", err)
		return nil, err
	}
	return txs, nil
}
