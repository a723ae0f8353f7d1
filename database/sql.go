package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"cropwatch/apperr"
	"cropwatch/models"
)

// SQLImageStore keeps the gallery in a gorm database. It is opened on an
// in-memory SQLite database by default, so nothing outlives the process.
type SQLImageStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSQLImageStore(db *gorm.DB) (*SQLImageStore, error) {
	if err := db.AutoMigrate(&models.FieldImage{}); err != nil {
		return nil, fmt.Errorf("migrate field images: %w", err)
	}
	return &SQLImageStore{db: db, now: time.Now}, nil
}

func (s *SQLImageStore) List(ctx context.Context) ([]models.FieldImage, error) {
	var images []models.FieldImage
	if err := s.db.WithContext(ctx).Order("seq DESC").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return images, nil
}

func (s *SQLImageStore) Get(ctx context.Context, id string) (models.FieldImage, error) {
	var img models.FieldImage
	if err := s.db.WithContext(ctx).First(&img, "id = ?", id).Error; err != nil {
		return models.FieldImage{}, notFound(err, id)
	}
	return img, nil
}

func (s *SQLImageStore) Prepend(ctx context.Context, img models.FieldImage) error {
	if img.ID == "" {
		return apperr.Invalidf("record has no id")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.FieldImage{}).Where("id = ?", img.ID).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return fmt.Errorf("%w: %s", apperr.ErrDuplicateID, img.ID)
		}
		var head struct{ Max int64 }
		if err := tx.Model(&models.FieldImage{}).Select("COALESCE(MAX(seq), 0) AS max").Scan(&head).Error; err != nil {
			return err
		}
		now := s.now()
		img.Seq = head.Max + 1
		if img.CreatedAt.IsZero() {
			img.CreatedAt = now
		}
		img.UpdatedAt = now
		return tx.Create(&img).Error
	})
}

func (s *SQLImageStore) Update(ctx context.Context, id string, fn func(*models.FieldImage) error) (models.FieldImage, error) {
	var out models.FieldImage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.FieldImage
		if err := tx.First(&cur, "id = ?", id).Error; err != nil {
			return notFound(err, id)
		}
		next := cur.Clone()
		if err := fn(&next); err != nil {
			return err
		}
		if next.ID != id {
			return apperr.Invalidf("update changed id %s to %s", id, next.ID)
		}
		next.UpdatedAt = s.now()
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return models.FieldImage{}, err
	}
	return out, nil
}

func (s *SQLImageStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.FieldImage{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete image %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, id)
	}
	return nil
}

func (s *SQLImageStore) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.FieldImage{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *SQLImageStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, id)
	}
	return err
}
