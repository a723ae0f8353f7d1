package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropwatch/apperr"
	"cropwatch/fixtures"
	"cropwatch/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// storeFactories lets every behavioral test run against both stores.
func storeFactories() map[string]func(t *testing.T) ImageStore {
	return map[string]func(t *testing.T) ImageStore{
		DriverMemory: func(*testing.T) ImageStore { return NewMemoryImageStore() },
		DriverSQLite: func(t *testing.T) ImageStore {
			s, err := Open(Options{Driver: DriverSQLite, Logger: quietLogger()})
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func img(id string) models.FieldImage {
	return models.FieldImage{ID: id, Name: "image " + id, Status: models.StatusPending, Tags: []string{}}
}

func ids(images []models.FieldImage) []string {
	out := make([]string, len(images))
	for i, im := range images {
		out[i] = im.ID
	}
	return out
}

func TestImageStore_PrependOrder(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			require.NoError(t, s.Prepend(ctx, img("a")))
			require.NoError(t, s.Prepend(ctx, img("b")))
			require.NoError(t, s.Prepend(ctx, img("c")))

			list, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"c", "b", "a"}, ids(list))

			err = s.Prepend(ctx, img("b"))
			require.ErrorIs(t, err, apperr.ErrDuplicateID)

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 3, n)
		})
	}
}

func TestImageStore_UpdateIsAtomic(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			require.NoError(t, s.Prepend(ctx, img("2")))

			boom := errors.New("boom")
			_, err := s.Update(ctx, "2", func(im *models.FieldImage) error {
				im.Status = models.StatusAnalyzed
				return boom
			})
			require.ErrorIs(t, err, boom)

			got, err := s.Get(ctx, "2")
			require.NoError(t, err)
			assert.Equal(t, models.StatusPending, got.Status, "failed update must not write")

			updated, err := s.Update(ctx, "2", func(im *models.FieldImage) error {
				im.Status = models.StatusAnalyzed
				im.Analysis = &models.AnalysisResult{HealthScore: 70, Recommendations: []string{"x"}}
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, "2", updated.ID)
			assert.Equal(t, models.StatusAnalyzed, updated.Status)

			got, err = s.Get(ctx, "2")
			require.NoError(t, err)
			require.NotNil(t, got.Analysis)
			assert.Equal(t, 70, got.Analysis.HealthScore)

			_, err = s.Update(ctx, "2", func(im *models.FieldImage) error {
				im.ID = "other"
				return nil
			})
			require.ErrorIs(t, err, apperr.ErrInvalidArgument)

			_, err = s.Update(ctx, "missing", func(*models.FieldImage) error { return nil })
			require.ErrorIs(t, err, apperr.ErrNotFound)
		})
	}
}

func TestImageStore_Delete(t *testing.T) {
	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			require.NoError(t, Seed(ctx, s, []models.FieldImage{img("1"), img("2"), img("3")}))

			require.NoError(t, s.Delete(ctx, "2"))
			list, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"1", "3"}, ids(list))

			require.ErrorIs(t, s.Delete(ctx, "2"), apperr.ErrNotFound)
			list, err = s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 2)
		})
	}
}

func TestImageStore_RoundTripsAnalysis(t *testing.T) {
	d, err := fixtures.Load()
	require.NoError(t, err)

	for name, newStore := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			require.NoError(t, Seed(ctx, s, d.Images))

			got, err := s.Get(ctx, "1")
			require.NoError(t, err)
			require.NotNil(t, got.Analysis)
			assert.Equal(t, d.Images[0].Analysis.DetectedIssues, got.Analysis.DetectedIssues)
			assert.Equal(t, []string{"wheat", "nitrogen-deficiency"}, got.Tags)
		})
	}
}

func TestMemoryImageStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryImageStore()
	im := img("1")
	im.Tags = []string{"wheat"}
	require.NoError(t, s.Prepend(ctx, im))

	got, err := s.Get(ctx, "1")
	require.NoError(t, err)
	got.Tags[0] = "mutated"

	again, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"wheat"}, again.Tags)
}

func TestCollection_ConcurrentPrepend(t *testing.T) {
	c := NewCollection[models.Field](nil)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Prepend(models.Field{ID: string(rune('A' + i))})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
	assert.Len(t, c.List(), 50)
}

func TestCollection_AppendAndEmptyID(t *testing.T) {
	c := NewCollection[models.Report](nil)
	require.NoError(t, c.Append(models.Report{ID: "1"}))
	require.NoError(t, c.Append(models.Report{ID: "2"}))
	require.ErrorIs(t, c.Append(models.Report{}), apperr.ErrInvalidArgument)

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].ID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Options{Driver: "mongo", Logger: quietLogger()})
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestOpen_RejectsFileDSN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cropwatch.db")
	_, err := Open(Options{Driver: DriverSQLite, DSN: path, Logger: quietLogger()})
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	assert.NoFileExists(t, path)
}

func TestCatalog(t *testing.T) {
	d, err := fixtures.Load()
	require.NoError(t, err)
	c, err := NewCatalog(d)
	require.NoError(t, err)

	assert.Equal(t, 4, c.Fields.Len())
	l, err := c.Layer("pest")
	require.NoError(t, err)
	assert.Equal(t, "pestRisk", l.Metric)
	_, err = c.Layer("radar")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	a, err := c.SetAlertStatus("1", models.AlertResolved)
	require.NoError(t, err)
	assert.Equal(t, models.AlertResolved, a.Status)

	got, err := c.Alerts.Get("1")
	require.NoError(t, err)
	assert.Equal(t, models.AlertResolved, got.Status)

	_, err = c.SetAlertStatus("99", models.AlertResolved)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
