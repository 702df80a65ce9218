package zones

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrZoneMissing = errors.New("convenience zone does not exist")
	ErrConflict    = errors.New("data already exists for this zone")
)

// Store is the persistence the zone handlers need.
type Store interface {
	ListZones(ctx context.Context) ([]ZoneSummary, error)
	CreateZone(ctx context.Context, zone *ConvenienceZone) error
	DeleteZone(ctx context.Context, id uint) (ConvenienceZone, error)

	// CreatePatterns stores both payloads for a zone, or neither.
	CreatePatterns(ctx context.Context, czoneID uint, papdata, patterns string) (PaPData, MovementPattern, error)
	GetPatterns(ctx context.Context, czoneID uint) (PaPData, MovementPattern, error)

	UpsertSimData(ctx context.Context, czoneID uint, simdata string) error
	GetSimData(ctx context.Context, czoneID uint) (SimData, error)
}

// GormStore implements Store on Postgres.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func (s *GormStore) ListZones(ctx context.Context) ([]ZoneSummary, error) {
	var zones []ConvenienceZone
	if err := s.db.WithContext(ctx).Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}

	var readyIDs []uint
	if err := s.db.WithContext(ctx).Model(&PaPData{}).Pluck("czone_id", &readyIDs).Error; err != nil {
		return nil, fmt.Errorf("list papdata zone ids: %w", err)
	}
	ready := make(map[uint]struct{}, len(readyIDs))
	for _, id := range readyIDs {
		ready[id] = struct{}{}
	}

	out := make([]ZoneSummary, 0, len(zones))
	for _, z := range zones {
		_, ok := ready[z.ID]
		out = append(out, ZoneSummary{ConvenienceZone: z, Ready: ok})
	}
	return out, nil
}

func (s *GormStore) CreateZone(ctx context.Context, zone *ConvenienceZone) error {
	if err := s.db.WithContext(ctx).Create(zone).Error; err != nil {
		return fmt.Errorf("create zone: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteZone(ctx context.Context, id uint) (ConvenienceZone, error) {
	var zone ConvenienceZone
	if err := s.db.WithContext(ctx).First(&zone, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ConvenienceZone{}, fmt.Errorf("zone %d: %w", id, ErrNotFound)
		}
		return ConvenienceZone{}, fmt.Errorf("find zone %d: %w", id, err)
	}

	if err := s.db.WithContext(ctx).Delete(&ConvenienceZone{}, "id = ?", id).Error; err != nil {
		return ConvenienceZone{}, fmt.Errorf("delete zone %d: %w", id, err)
	}
	return zone, nil
}

func (s *GormStore) CreatePatterns(ctx context.Context, czoneID uint, papdata, patterns string) (PaPData, MovementPattern, error) {
	pap := PaPData{CZoneID: czoneID, PaPData: papdata}
	mp := MovementPattern{CZoneID: czoneID, Patterns: patterns, StartDate: s.now()}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := zoneExists(tx, czoneID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&pap).Error; err != nil {
			return translate("create papdata", err)
		}
		if err := tx.Omit(clause.Associations).Create(&mp).Error; err != nil {
			return translate("create patterns", err)
		}
		return nil
	})
	if err != nil {
		return PaPData{}, MovementPattern{}, err
	}
	return pap, mp, nil
}

func (s *GormStore) GetPatterns(ctx context.Context, czoneID uint) (PaPData, MovementPattern, error) {
	var pap PaPData
	if err := s.db.WithContext(ctx).First(&pap, "czone_id = ?", czoneID).Error; err != nil {
		return PaPData{}, MovementPattern{}, notFound("papdata", czoneID, err)
	}
	var mp MovementPattern
	if err := s.db.WithContext(ctx).First(&mp, "czone_id = ?", czoneID).Error; err != nil {
		return PaPData{}, MovementPattern{}, notFound("patterns", czoneID, err)
	}
	return pap, mp, nil
}

func (s *GormStore) UpsertSimData(ctx context.Context, czoneID uint, simdata string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := zoneExists(tx, czoneID); err != nil {
			return err
		}
		row := SimData{CZoneID: czoneID, SimData: simdata, UpdatedAt: s.now()}
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "czone_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"simdata", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return translate("upsert simdata", err)
		}
		return nil
	})
}

func (s *GormStore) GetSimData(ctx context.Context, czoneID uint) (SimData, error) {
	var sd SimData
	if err := s.db.WithContext(ctx).First(&sd, "czone_id = ?", czoneID).Error; err != nil {
		return SimData{}, notFound("simdata", czoneID, err)
	}
	return sd, nil
}

func zoneExists(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&ConvenienceZone{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check zone %d: %w", id, err)
	}
	if count == 0 {
		return fmt.Errorf("zone %d: %w", id, ErrZoneMissing)
	}
	return nil
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w", op, ErrZoneMissing)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func notFound(what string, czoneID uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s for zone %d: %w", what, czoneID, ErrNotFound)
	}
	return fmt.Errorf("find %s for zone %d: %w", what, czoneID, err)
}
