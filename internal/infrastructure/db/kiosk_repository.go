package db

import (
	"context"
	"time"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type kioskRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKioskRepository(db *gorm.DB, log *logger.Logger) ports.KioskRepository {
	return &kioskRepository{db: db, log: log}
}

func (r *kioskRepository) Create(ctx context.Context, kiosk *domain.Kiosk) error {
	kiosk.MacID = domain.NormalizeMacID(kiosk.MacID)
	if err := conn(ctx, r.db).Create(kiosk).Error; err != nil {
		r.log.Errorw("kiosk_repo_create_failed", "kiosk_id", kiosk.KioskID, "error", err)
		return translateErr(err)
	}
	r.log.Infow("kiosk_repo_create_ok", "id", kiosk.ID, "kiosk_id", kiosk.KioskID)
	return nil
}

func (r *kioskRepository) GetByKioskID(ctx context.Context, kioskID string) (*domain.Kiosk, error) {
	var kiosk domain.Kiosk
	if err := conn(ctx, r.db).Where("kiosk_id = ?", kioskID).First(&kiosk).Error; err != nil {
		return nil, translateErr(err)
	}
	return &kiosk, nil
}

func (r *kioskRepository) GetByMacID(ctx context.Context, macID string) (*domain.Kiosk, error) {
	var kiosk domain.Kiosk
	if err := conn(ctx, r.db).Where("mac_id = ?", domain.NormalizeMacID(macID)).First(&kiosk).Error; err != nil {
		return nil, translateErr(err)
	}
	return &kiosk, nil
}

func (r *kioskRepository) GetAll(ctx context.Context) ([]domain.Kiosk, error) {
	var kiosks []domain.Kiosk
	if err := conn(ctx, r.db).Order("kiosk_id").Find(&kiosks).Error; err != nil {
		r.log.Errorw("kiosk_repo_list_failed", "error", err)
		return nil, err
	}
	return kiosks, nil
}

// AddBalance is a single UPDATE ... RETURNING so concurrent credits never
// overwrite each other.
func (r *kioskRepository) AddBalance(ctx context.Context, kioskID string, amount decimal.Decimal) (decimal.Decimal, error) {
	var kiosk domain.Kiosk
	res := conn(ctx, r.db).Model(&kiosk).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "balance"}}}).
		Where("kiosk_id = ?", kioskID).
		UpdateColumns(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		r.log.Errorw("kiosk_repo_add_balance_failed", "kiosk_id", kioskID, "amount", amount.String(), "error", res.Error)
		return decimal.Zero, res.Error
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, ports.ErrRecordNotFound
	}
	return kiosk.Balance, nil
}
