package db

import (
	"context"
	"time"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type controllerRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewControllerRepository(db *gorm.DB, log *logger.Logger) ports.ControllerRepository {
	return &controllerRepository{db: db, log: log}
}

// Touch inserts the liveness row on first sight and afterwards only moves
// last_ping forward. The name is kept from the first insert.
func (r *controllerRepository) Touch(ctx context.Context, controllerID, name string, at time.Time) (*domain.ControllerLiveness, error) {
	node := &domain.ControllerLiveness{
		ControllerID: controllerID,
		Name:         name,
		LastPing:     at,
		Active:       true,
		CreatedAt:    at,
	}
	db := conn(ctx, r.db)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "controller_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_ping", "active"}),
	}).Create(node).Error
	if err != nil {
		r.log.Errorw("controller_repo_touch_failed", "controller_id", controllerID, "error", err)
		return nil, translateErr(err)
	}
	return r.GetByID(ctx, controllerID)
}

func (r *controllerRepository) GetByID(ctx context.Context, controllerID string) (*domain.ControllerLiveness, error) {
	var node domain.ControllerLiveness
	if err := conn(ctx, r.db).Where("controller_id = ?", controllerID).First(&node).Error; err != nil {
		return nil, translateErr(err)
	}
	return &node, nil
}

func (r *controllerRepository) GetAll(ctx context.Context) ([]domain.ControllerLiveness, error) {
	var nodes []domain.ControllerLiveness
	if err := conn(ctx, r.db).Order("controller_id").Find(&nodes).Error; err != nil {
		r.log.Errorw("controller_repo_list_failed", "error", err)
		return nil, err
	}
	return nodes, nil
}
