package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropwatch/apperr"
	"cropwatch/database"
	"cropwatch/fixtures"
	"cropwatch/models"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)
	jpegBytes = append([]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0}, 32)...)
)

func fileOf(name string, b []byte) File {
	return File{
		Name: name,
		Size: int64(len(b)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(b)), nil },
	}
}

func seeded(t *testing.T) database.ImageStore {
	t.Helper()
	d, err := fixtures.Load()
	require.NoError(t, err)
	s := database.NewMemoryImageStore()
	require.NoError(t, database.Seed(context.Background(), s, d.Images))
	return s
}

func ids(t *testing.T, s database.ImageStore) []string {
	t.Helper()
	list, err := s.List(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(list))
	for _, img := range list {
		out = append(out, img.ID)
	}
	return out
}

func TestDecode_Image(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 17, 23, 30, 0, 0, time.UTC)
	img, err := Decode("north.png", bytes.NewReader(pngBytes), 1024, now)
	require.NoError(t, err)

	assert.NotEmpty(t, img.ID)
	assert.Equal(t, "north.png", img.Name)
	assert.Equal(t, "2024-05-17", img.Date)
	assert.Equal(t, models.StatusPending, img.Status)
	assert.Empty(t, img.Location)
	assert.Empty(t, img.Notes)
	assert.NotNil(t, img.Tags)
	assert.Empty(t, img.Tags)
	assert.Nil(t, img.Analysis)

	prefix := "data:image/png;base64,"
	require.True(t, strings.HasPrefix(img.URL, prefix), img.URL)
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(img.URL, prefix))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, raw)
}

func TestDecode_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		max  int64
		want error
	}{
		{"text", []byte("just some notes about the field"), 1024, apperr.ErrInvalidInputType},
		{"empty", nil, 1024, apperr.ErrInvalidInputType},
		{"pdf", []byte("%PDF-1.7\n%binary"), 1024, apperr.ErrInvalidInputType},
		{"oversize", jpegBytes, 8, apperr.ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(tt.name, bytes.NewReader(tt.data), tt.max, time.Now())
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode_UniqueIDs(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 100 {
		img, err := Decode("a.jpg", bytes.NewReader(jpegBytes), 0, time.Now())
		require.NoError(t, err)
		require.False(t, seen[img.ID], "duplicate id %s", img.ID)
		seen[img.ID] = true
	}
}

func TestIngest_RejectedFileLeavesCollectionUnchanged(t *testing.T) {
	t.Parallel()

	store := seeded(t)
	before := ids(t, store)

	in := NewIngester(store, 1024, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	res, err := in.Ingest(context.Background(), []File{fileOf("notes.txt", []byte("not an image"))})
	require.NoError(t, err)

	assert.Empty(t, res.Accepted)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, "notes.txt", res.Notices[0].Subject)
	assert.ErrorIs(t, res.Notices[0], apperr.ErrInvalidInputType)
	assert.Equal(t, before, ids(t, store))
}

func TestIngest_MixedBatch(t *testing.T) {
	t.Parallel()

	store := seeded(t)
	in := NewIngester(store, 1024, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	res, err := in.Ingest(context.Background(), []File{
		fileOf("a.png", pngBytes),
		fileOf("b.txt", []byte("plain text")),
		fileOf("c.jpg", jpegBytes),
		{Name: "huge.png", Size: 4096, Open: func() (io.ReadCloser, error) {
			t.Error("oversize file must not be opened")
			return nil, io.EOF
		}},
	})
	require.NoError(t, err)
	require.Len(t, res.Accepted, 2)
	require.Len(t, res.Notices, 2)

	list := ids(t, store)
	require.Len(t, list, 4)
	// Head follows completion order, most recent first; seeds keep their order.
	assert.Equal(t, []string{res.Accepted[1].ID, res.Accepted[0].ID, "1", "2"}, list)
}

func TestIngest_NoticesKeepBatchOrder(t *testing.T) {
	t.Parallel()

	store := seeded(t)
	in := NewIngester(store, 1024, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	slowText := File{Name: "slow.txt", Open: func() (io.ReadCloser, error) {
		// Finish after the oversize file, which is rejected without opening.
		time.Sleep(20 * time.Millisecond)
		return io.NopCloser(bytes.NewReader([]byte("plain text"))), nil
	}}
	huge := File{Name: "huge.png", Size: 4096, Open: func() (io.ReadCloser, error) {
		t.Error("oversize file must not be opened")
		return nil, io.EOF
	}}

	res, err := in.Ingest(context.Background(), []File{slowText, fileOf("a.png", pngBytes), huge})
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)
	require.Len(t, res.Notices, 2)

	assert.Equal(t, 0, res.Notices[0].Index)
	assert.Equal(t, "slow.txt", res.Notices[0].Subject)
	assert.ErrorIs(t, res.Notices[0], apperr.ErrInvalidInputType)
	assert.Equal(t, 2, res.Notices[1].Index)
	assert.ErrorIs(t, res.Notices[1], apperr.ErrTooLarge)
}

func TestIngest_StoreFailure(t *testing.T) {
	t.Parallel()

	store := seeded(t)
	in := NewIngester(store, 0, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := in.Ingest(ctx, []File{fileOf("a.png", pngBytes)})
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, ids(t, store), 2)
}
