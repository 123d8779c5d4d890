// Package store persists annotation records in a local SQLite database,
// keyed by background image.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"markcanvas/internal/annotation"
	"markcanvas/internal/shape"
	"markcanvas/pkg/geometry"
)

// ErrNotFound is returned by Load for an image key with no saved session.
var ErrNotFound = errors.New("no annotations stored for image")

// Image is one annotated background.
type Image struct {
	ID        uint   `gorm:"primarykey"`
	ImageKey  string `gorm:"uniqueIndex;not null"`
	Width     float64
	Height    float64
	UpdatedAt time.Time

	Annotations []Annotation `gorm:"constraint:OnDelete:CASCADE"`
}

// Annotation is one stored record. Points hold the record's pointList.
type Annotation struct {
	ID       uint `gorm:"primarykey"`
	ImageID  uint `gorm:"index;not null"`
	Position int
	Type     string
	Label    string
	Color    string
	Points   datatypes.JSON
}

// Store is a handle on the database.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open opens or creates the database at path and migrates the schema. An
// empty path opens a private in-memory database.
func Open(path string, log zerolog.Logger) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store %q: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if path == "" {
		// every connection would get its own memory database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.Exec("PRAGMA foreign_keys = ON;").Error; err != nil {
		return nil, fmt.Errorf("error setting PRAGMA: %w", err)
	}
	if err := db.AutoMigrate(&Image{}, &Annotation{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}

	if path == "" {
		log.Debug().Msg("using in-memory annotation store")
	} else {
		log.Info().Str("path", path).Msg("using annotation store")
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save replaces the records stored for key.
func (s *Store) Save(key string, size geometry.Size, records []annotation.Record) error {
	rows := make([]Annotation, 0, len(records))
	for i, rec := range records {
		pts, err := json.Marshal(rec.PointList)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		rows = append(rows, Annotation{
			Position: i,
			Type:     string(rec.Type),
			Label:    rec.Label,
			Color:    rec.Color,
			Points:   datatypes.JSON(pts),
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var img Image
		if err := tx.Where(Image{ImageKey: key}).FirstOrCreate(&img).Error; err != nil {
			return err
		}
		img.Width, img.Height = size.Width, size.Height
		if err := tx.Save(&img).Error; err != nil {
			return err
		}
		if err := tx.Where("image_id = ?", img.ID).Delete(&Annotation{}).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].ImageID = img.ID
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save annotations for %s: %w", key, err)
	}

	s.log.Debug().Str("image", key).Int("records", len(records)).Msg("annotations saved")
	return nil
}

// Load returns the records and image size saved for key, renumbered 1..N.
func (s *Store) Load(key string) ([]annotation.Record, geometry.Size, error) {
	var img Image
	err := s.db.Preload("Annotations", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).Where("image_key = ?", key).First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, geometry.Size{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, geometry.Size{}, fmt.Errorf("failed to load annotations for %s: %w", key, err)
	}

	records := make([]annotation.Record, 0, len(img.Annotations))
	for i, row := range img.Annotations {
		var pts []geometry.Point2D
		if err := json.Unmarshal(row.Points, &pts); err != nil {
			return nil, geometry.Size{}, fmt.Errorf("annotation %d of %s: %w", row.ID, key, err)
		}
		records = append(records, annotation.Record{
			Index:     i + 1,
			Type:      shape.Kind(row.Type),
			Label:     row.Label,
			Color:     row.Color,
			PointList: pts,
		})
	}
	return records, geometry.Size{Width: img.Width, Height: img.Height}, nil
}

// Keys lists every stored image key, most recently saved first.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	if err := s.db.Model(&Image{}).Order("updated_at desc").Pluck("image_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return keys, nil
}

// Delete drops everything stored for key. Unknown keys are not an error.
func (s *Store) Delete(key string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var img Image
		err := tx.Where("image_key = ?", key).First(&img).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Where("image_id = ?", img.ID).Delete(&Annotation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&img).Error
	})
}
