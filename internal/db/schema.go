package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// EnsureSchema creates the Postgres schema if it does not exist yet.
func EnsureSchema(d *gorm.DB, schema string) error {
	quoted := `"` + strings.ReplaceAll(schema, `"`, `""`) + `"`
	if err := d.Exec(`CREATE SCHEMA IF NOT EXISTS ` + quoted).Error; err != nil {
		return fmt.Errorf("ensure schema %s: %w", schema, err)
	}
	return nil
}
