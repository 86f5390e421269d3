package db

import (
	"context"
	"time"

	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type commandRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommandRepository(db *gorm.DB, log *logger.Logger) ports.CommandRepository {
	return &commandRepository{db: db, log: log}
}

func (r *commandRepository) Create(ctx context.Context, cmd *domain.Command) error {
	if err := conn(ctx, r.db).Create(cmd).Error; err != nil {
		r.log.Errorw("command_repo_create_failed", "controller_id", cmd.ControllerID, "command_type", cmd.CommandType, "error", err)
		return translateErr(err)
	}
	r.log.Debugw("command_repo_create_ok", "id", cmd.ID, "controller_id", cmd.ControllerID)
	return nil
}

func (r *commandRepository) GetByID(ctx context.Context, id string) (*domain.Command, error) {
	var cmd domain.Command
	if err := conn(ctx, r.db).Where("id = ?", id).First(&cmd).Error; err != nil {
		return nil, translateErr(err)
	}
	return &cmd, nil
}

func (r *commandRepository) ListByController(ctx context.Context, controllerID string, status domain.CommandStatus) ([]domain.Command, error) {
	var cmds []domain.Command
	q := conn(ctx, r.db).Where("controller_id = ?", controllerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at desc").Find(&cmds).Error; err != nil {
		r.log.Errorw("command_repo_list_failed", "controller_id", controllerID, "status", status, "error", err)
		return nil, err
	}
	return cmds, nil
}

// Complete only touches rows that are still pending, so a terminal command
// never changes again.
func (r *commandRepository) Complete(ctx context.Context, id string, status domain.CommandStatus, result string, at time.Time) (bool, error) {
	db := conn(ctx, r.db)
	res := db.Model(&domain.Command{}).
		Where("id = ? AND status = ?", id, domain.CommandStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"result":      result,
			"executed_at": at,
		})
	if res.Error != nil {
		r.log.Errorw("command_repo_complete_failed", "id", id, "status", status, "error", res.Error)
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	if err := db.Model(&domain.Command{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, ports.ErrRecordNotFound
	}
	return false, nil
}

func (r *commandRepository) CompleteAllPending(ctx context.Context, controllerID string, status domain.CommandStatus, result string, at time.Time) (int, error) {
	res := conn(ctx, r.db).Model(&domain.Command{}).
		Where("controller_id = ? AND status = ?", controllerID, domain.CommandStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"result":      result,
			"executed_at": at,
		})
	if res.Error != nil {
		r.log.Errorw("command_repo_complete_all_failed", "controller_id", controllerID, "error", res.Error)
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}
