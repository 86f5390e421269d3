package db

import (
	"github.com/ivey1207/supperapp/internal/domain"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.Kiosk{},
		&domain.Program{},
		&domain.ControllerLiveness{},
		&domain.Command{},
		&domain.WashSession{},
		&domain.PaymentTransaction{},
		&domain.TimelineEvent{},
	)
	if err != nil {
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		return err
	}

	return nil
}

// At most one occupying session per kiosk. Inserts that break it surface as
// ports.ErrDuplicate through translateErr.
const occupyingSessionIndexSQL = `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_wash_sessions_kiosk_occupying
		ON wash_sessions (kiosk_id)
		WHERE status IN ('ACTIVE', 'PAUSED')
	`

func createCustomIndexes(db *gorm.DB) error {
	if err := db.Exec(occupyingSessionIndexSQL).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_commands_controller_pending
		ON commands (controller_id, created_at DESC)
		WHERE status = 'pending'
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_timeline_events_resource
		ON timeline_events (resource_type, resource_id)
	`).Error; err != nil {
		return err
	}

	return nil
}
