package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/ivey1207/supperapp/internal/core/ports"
	"github.com/ivey1207/supperapp/internal/domain"
	"github.com/ivey1207/supperapp/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type programRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgramRepository(db *gorm.DB, log *logger.Logger) ports.ProgramRepository {
	return &programRepository{db: db, log: log}
}

func (r *programRepository) Create(ctx context.Context, program *domain.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	if err := conn(ctx, r.db).Create(program).Error; err != nil {
		r.log.Errorw("program_repo_create_failed", "name", program.Name, "error", err)
		return translateErr(err)
	}
	return nil
}

func (r *programRepository) GetByBranchID(ctx context.Context, branchID string) ([]domain.Program, error) {
	var programs []domain.Program
	if err := conn(ctx, r.db).Where("branch_id = ?", branchID).Order("name").Find(&programs).Error; err != nil {
		r.log.Errorw("program_repo_list_failed", "branch_id", branchID, "error", err)
		return nil, err
	}
	return programs, nil
}
