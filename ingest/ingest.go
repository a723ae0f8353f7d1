// Package ingest turns uploaded files into pending gallery records.
package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cropwatch/apperr"
	"cropwatch/database"
	"cropwatch/metrics"
	"cropwatch/models"
)

const (
	DefaultMaxBytes = 10 << 20
	DateLayout      = "2006-01-02"

	decodeWorkers = 4
)

// Decode reads one upload and returns the record it becomes. Content that is
// not an image fails with apperr.ErrInvalidInputType, content longer than
// maxBytes with apperr.ErrTooLarge.
func Decode(name string, r io.Reader, maxBytes int64, now time.Time) (models.FieldImage, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return models.FieldImage{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if n > maxBytes {
		return models.FieldImage{}, fmt.Errorf("%w: limit is %d bytes", apperr.ErrTooLarge, maxBytes)
	}

	data := buf.Bytes()
	mime, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	if !strings.HasPrefix(mime, "image/") {
		return models.FieldImage{}, fmt.Errorf("%w: detected %s", apperr.ErrInvalidInputType, mime)
	}

	return models.FieldImage{
		ID:     uuid.NewString(),
		URL:    "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
		Name:   name,
		Date:   now.UTC().Format(DateLayout),
		Status: models.StatusPending,
		Tags:   []string{},
	}, nil
}

// File is one part of an upload batch.
type File struct {
	Name string
	Size int64 // as declared by the client, zero if unknown
	Open func() (io.ReadCloser, error)
}

// Result reports what happened to every file of a batch.
type Result struct {
	Accepted []models.FieldImage `json:"accepted"`
	Notices  []*apperr.Notice    `json:"notices"`
}

type Ingester struct {
	store    database.ImageStore
	maxBytes int64
	log      *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewIngester(store database.ImageStore, maxBytes int64, log *slog.Logger, m *metrics.Metrics) *Ingester {
	if log == nil {
		log = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Ingester{
		store:    store,
		maxBytes: maxBytes,
		log:      log.With("component", "ingest"),
		metrics:  m,
		now:      time.Now,
	}
}

// Ingest decodes every file concurrently. Each accepted file is prepended to
// the store as soon as it is decoded, so the head of the gallery follows
// completion order. Rejected files become notices and never reach the store.
// Notices come back in batch order whatever order decoding finished in. The
// returned error is reserved for store failures.
func (in *Ingester) Ingest(ctx context.Context, files []File) (Result, error) {
	var (
		mu  sync.Mutex
		res = Result{Accepted: []models.FieldImage{}, Notices: []*apperr.Notice{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(decodeWorkers)
	for i, f := range files {
		g.Go(func() error {
			img, err := in.decode(f)
			if err != nil {
				in.metrics.RecordUpload(false)
				in.log.Info("upload rejected", "file", f.Name, "error", err)
				mu.Lock()
				n := apperr.NewNotice(f.Name, err)
				n.Index = i
				res.Notices = append(res.Notices, n)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if err := in.store.Prepend(gctx, img); err != nil {
				return fmt.Errorf("failed to store %s: %w", f.Name, err)
			}
			in.metrics.RecordUpload(true)
			in.log.Info("upload accepted", "file", f.Name, "id", img.ID, "bytes", f.Size)
			res.Accepted = append(res.Accepted, img)
			return nil
		})
	}
	err := g.Wait()
	slices.SortFunc(res.Notices, func(a, b *apperr.Notice) int { return a.Index - b.Index })
	return res, err
}

func (in *Ingester) decode(f File) (models.FieldImage, error) {
	if f.Size > in.maxBytes {
		return models.FieldImage{}, fmt.Errorf("%w: limit is %d bytes", apperr.ErrTooLarge, in.maxBytes)
	}
	rc, err := f.Open()
	if err != nil {
		return models.FieldImage{}, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return Decode(f.Name, rc, in.maxBytes, in.now())
}
