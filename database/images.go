package database

import (
	"context"
	"time"

	"cropwatch/models"
)

// ImageStore is the repository for the field-image gallery.
type ImageStore interface {
	List(ctx context.Context) ([]models.FieldImage, error)
	Get(ctx context.Context, id string) (models.FieldImage, error)
	// Prepend adds a new image at the head of the gallery.
	Prepend(ctx context.Context, img models.FieldImage) error
	// Update applies fn to the image in a single atomic step. Nothing is
	// written when fn returns an error.
	Update(ctx context.Context, id string, fn func(*models.FieldImage) error) (models.FieldImage, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

// MemoryImageStore keeps the gallery in process memory.
type MemoryImageStore struct {
	images *Collection[models.FieldImage]
	now    func() time.Time
}

func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{
		images: NewCollection(models.FieldImage.Clone),
		now:    time.Now,
	}
}

func (s *MemoryImageStore) List(ctx context.Context) ([]models.FieldImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.images.List(), nil
}

func (s *MemoryImageStore) Get(ctx context.Context, id string) (models.FieldImage, error) {
	if err := ctx.Err(); err != nil {
		return models.FieldImage{}, err
	}
	return s.images.Get(id)
}

func (s *MemoryImageStore) Prepend(ctx context.Context, img models.FieldImage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := s.now()
	if img.CreatedAt.IsZero() {
		img.CreatedAt = now
	}
	img.UpdatedAt = now
	return s.images.Prepend(img)
}

func (s *MemoryImageStore) Update(ctx context.Context, id string, fn func(*models.FieldImage) error) (models.FieldImage, error) {
	if err := ctx.Err(); err != nil {
		return models.FieldImage{}, err
	}
	return s.images.Update(id, func(img *models.FieldImage) error {
		if err := fn(img); err != nil {
			return err
		}
		img.UpdatedAt = s.now()
		return nil
	})
}

func (s *MemoryImageStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.images.Delete(id)
}

func (s *MemoryImageStore) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(s.images.Len()), nil
}

func (s *MemoryImageStore) Close() error { return nil }
