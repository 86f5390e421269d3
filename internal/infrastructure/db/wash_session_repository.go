package db

import (
	"context"
	"errors"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type washSessionRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWashSessionRepository(db *gorm.DB, log *logger.Logger) ports.WashSessionRepository {
	return &washSessionRepository{db: db, log: log}
}

// Create relies on idx_wash_sessions_kiosk_occupying; a second occupying
// session for the same kiosk fails with ports.ErrDuplicate.
func (r *washSessionRepository) Create(ctx context.Context, session *domain.WashSession) error {
	if err := conn(ctx, r.db).Create(session).Error; err != nil {
		err = translateErr(err)
		if !errors.Is(err, ports.ErrDuplicate) {
			r.log.Errorw("wash_session_repo_create_failed", "kiosk_id", session.KioskID, "error", err)
		}
		return err
	}
	return nil
}

func (r *washSessionRepository) GetByID(ctx context.Context, id string) (*domain.WashSession, error) {
	var session domain.WashSession
	if err := conn(ctx, r.db).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, translateErr(err)
	}
	return &session, nil
}

func (r *washSessionRepository) GetOccupying(ctx context.Context, kioskID string) (*domain.WashSession, error) {
	var session domain.WashSession
	err := conn(ctx, r.db).
		Where("kiosk_id = ? AND status IN ?", kioskID, domain.OccupyingStatuses).
		Order("started_at desc").
		First(&session).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &session, nil
}

func (r *washSessionRepository) GetOccupyingByUser(ctx context.Context, userID string) (*domain.WashSession, error) {
	var session domain.WashSession
	err := conn(ctx, r.db).
		Where("user_id = ? AND status IN ?", userID, domain.OccupyingStatuses).
		Order("started_at desc").
		First(&session).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &session, nil
}

func (r *washSessionRepository) List(ctx context.Context, filter domain.SessionFilter) ([]domain.WashSession, error) {
	var sessions []domain.WashSession
	q := conn(ctx, r.db)
	if filter.KioskID != "" {
		q = q.Where("kiosk_id = ?", filter.KioskID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Order("started_at desc").Find(&sessions).Error; err != nil {
		r.log.Errorw("wash_session_repo_list_failed", "error", err)
		return nil, err
	}
	return sessions, nil
}

func (r *washSessionRepository) Update(ctx context.Context, session *domain.WashSession) error {
	if err := conn(ctx, r.db).Save(session).Error; err != nil {
		r.log.Errorw("wash_session_repo_update_failed", "id", session.ID, "error", err)
		return translateErr(err)
	}
	return nil
}
