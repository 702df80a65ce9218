package zones

import (
	"fmt"
	"log"

	"github.com/EmpoweredVote/czone-backend/internal/db"
	"gorm.io/gorm"
)

// Migrate ensures the czone schema and its four tables exist.
func Migrate(d *gorm.DB) error {
	if err := db.EnsureSchema(d, "czone"); err != nil {
		return err
	}

	if err := d.AutoMigrate(
		&ConvenienceZone{},
		&PaPData{},
		&MovementPattern{},
		&SimData{},
	); err != nil {
		return fmt.Errorf("auto-migrate czone tables: %w", err)
	}

	log.Println("[zones] schema migrated")
	return nil
}
