package zones

import (
	"time"

	"github.com/lib/pq"
)

// ConvenienceZone is a named region with its census block groups.
type ConvenienceZone struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Label     *string        `json:"label"`
	Latitude  float64        `gorm:"not null" json:"latitude"`
	Longitude float64        `gorm:"not null" json:"longitude"`
	CBGList   pq.StringArray `gorm:"column:cbg_list;type:text[];not null" json:"cbg_list"`
	Size      float64        `gorm:"not null" json:"size"`
	StartDate time.Time      `gorm:"not null" json:"start_date"`
}

// ZoneSummary is a zone as returned by the listing, with readiness derived
// from the presence of PaP data.
type ZoneSummary struct {
	ConvenienceZone
	Ready bool `json:"ready"`
}

// PaPData is precomputed analysis data for a zone, stored as JSON text.
// One per zone, never updated.
type PaPData struct {
	ID      uint             `gorm:"primaryKey" json:"id"`
	CZoneID uint             `gorm:"column:czone_id;not null;uniqueIndex:idx_pap_data_czone_id" json:"czone_id"`
	PaPData string           `gorm:"column:papdata;type:text;not null" json:"-"`
	Zone    *ConvenienceZone `gorm:"foreignKey:CZoneID;references:ID;constraint:OnDelete:RESTRICT" json:"-"`
}

// MovementPattern is mobility data for a zone, stored as JSON text.
// One per zone, never updated.
type MovementPattern struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CZoneID   uint             `gorm:"column:czone_id;not null;uniqueIndex:idx_movement_patterns_czone_id" json:"czone_id"`
	Patterns  string           `gorm:"column:patterns;type:text;not null" json:"-"`
	StartDate time.Time        `gorm:"not null" json:"start_date"`
	Zone      *ConvenienceZone `gorm:"foreignKey:CZoneID;references:ID;constraint:OnDelete:RESTRICT" json:"-"`
}

// SimData is the simulator cache for a zone. Replaced on every write.
type SimData struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CZoneID   uint             `gorm:"column:czone_id;not null;uniqueIndex:idx_sim_data_czone_id" json:"czone_id"`
	SimData   string           `gorm:"column:simdata;type:text;not null" json:"simdata"`
	UpdatedAt time.Time        `json:"updated_at"`
	Zone      *ConvenienceZone `gorm:"foreignKey:CZoneID;references:ID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (ConvenienceZone) TableName() string { return "czone.convenience_zones" }
func (PaPData) TableName() string         { return "czone.pap_data" }
func (MovementPattern) TableName() string { return "czone.movement_patterns" }
func (SimData) TableName() string         { return "czone.sim_data" }
