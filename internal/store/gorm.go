package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// documentRow is the table layout shared by every collection.
type documentRow struct {
	ID        string         `gorm:"column:id;primaryKey;size:64"`
	Data      datatypes.JSON `gorm:"column:data;not null"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	Origin    string         `gorm:"column:origin;size:16"`
}

// GormBackend stores each collection in its own table of JSON documents.
// It serves as the on-device fallback (sqlite) and as a direct remote (postgres).
type GormBackend struct {
	name string
	db   *gorm.DB
}

// OpenSQLite opens (or creates) a sqlite database file and prepares the collections.
func OpenSQLite(path string) (*GormBackend, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return NewGormBackend("sqlite", db)
}

// OpenPostgres connects to postgres using a DSN and prepares the collections.
func OpenPostgres(dsn string) (*GormBackend, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewGormBackend("postgres", db)
}

// NewGormBackend wraps an open connection and migrates one table per known collection.
func NewGormBackend(name string, db *gorm.DB) (*GormBackend, error) {
	for _, kind := range []Kind{KindSponsorships, KindFeedback, KindUsage, kindOutbox} {
		if err := db.Table(string(kind)).AutoMigrate(&documentRow{}); err != nil {
			return nil, fmt.Errorf("migrate %s: %w", kind, err)
		}
	}
	return &GormBackend{name: name, db: db}, nil
}

func (g *GormBackend) Name() string {
	return g.name
}

func (g *GormBackend) List(ctx context.Context, kind Kind) ([]Record, error) {
	var rows []documentRow
	err := g.db.WithContext(ctx).Table(string(kind)).
		Order("created_at DESC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

// Insert upserts so that replaying a write is harmless.
func (g *GormBackend) Insert(ctx context.Context, kind Kind, rec Record) (Record, error) {
	rec, err := prepare(rec)
	if err != nil {
		return Record{}, err
	}
	row := documentRow{
		ID:        rec.ID,
		Data:      datatypes.JSON(rec.Data),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: time.Now().UTC(),
		Origin:    string(rec.Origin),
	}
	err = g.db.WithContext(ctx).Table(string(kind)).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (g *GormBackend) Update(ctx context.Context, kind Kind, id string, fields Fields) (Record, error) {
	var out Record
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row documentRow
		if err := tx.Table(string(kind)).Where("id = ?", id).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		merged, err := mergeFields(json.RawMessage(row.Data), fields)
		if err != nil {
			return err
		}
		row.Data = datatypes.JSON(merged)
		row.UpdatedAt = time.Now().UTC()
		if err := tx.Table(string(kind)).Where("id = ?", id).
			Updates(map[string]any{"data": row.Data, "updated_at": row.UpdatedAt}).Error; err != nil {
			return err
		}
		out = row.record()
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

func (g *GormBackend) Delete(ctx context.Context, kind Kind, id string) error {
	res := g.db.WithContext(ctx).Table(string(kind)).Where("id = ?", id).Delete(&documentRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r documentRow) record() Record {
	return Record{
		ID:        r.ID,
		Data:      json.RawMessage(r.Data),
		CreatedAt: r.CreatedAt.UTC(),
		Origin:    Origin(r.Origin),
	}
}
