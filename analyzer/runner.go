// Package analyzer produces field-image analyses and merges them back into
// the gallery.
//
// Submitting an analysis returns immediately with a job token. The job waits
// out a fixed delay, asks the Provider for a result and, in one store update,
// sets the image status to analyzed and swaps in the new analysis. When the
// same image is submitted again before an older job finishes, only the most
// recent token may write; older completions are discarded as superseded.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"cropwatch/apperr"
	"cropwatch/database"
	"cropwatch/metrics"
	"cropwatch/models"
)

type JobState string

const (
	JobPending    JobState = "pending"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
	JobSuperseded JobState = "superseded"
)

const (
	DefaultDelay  = 2 * time.Second
	DefaultJobTTL = 10 * time.Minute
)

// Job is a snapshot of one analysis request.
type Job struct {
	Token       string             `json:"token"`
	ImageID     string             `json:"imageId"`
	State       JobState           `json:"state"`
	Error       string             `json:"error,omitempty"`
	SubmittedAt time.Time          `json:"submittedAt"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
	Image       *models.FieldImage `json:"image,omitempty"`

	err error
}

// Err returns the failure cause of a failed job.
func (j *Job) Err() error { return j.err }

type job struct {
	mu   sync.Mutex
	snap Job
	done chan struct{}
}

func (j *job) snapshot() *Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := j.snap
	if s.Image != nil {
		img := s.Image.Clone()
		s.Image = &img
	}
	return &s
}

type Runner struct {
	provider Provider
	store    database.ImageStore
	delay    time.Duration
	jobs     *cache.Cache
	log      *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu     sync.Mutex
	latest map[string]string // image id -> newest token

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Runner)

// WithDelay sets the simulated inference latency.
func WithDelay(d time.Duration) Option { return func(r *Runner) { r.delay = d } }

// WithJobTTL sets how long settled jobs stay queryable.
func WithJobTTL(ttl time.Duration) Option {
	return func(r *Runner) { r.jobs = cache.New(ttl, 0) }
}

func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(r *Runner) { r.metrics = m } }

func NewRunner(provider Provider, store database.ImageStore, opts ...Option) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		provider: provider,
		store:    store,
		delay:    DefaultDelay,
		// No janitor goroutine; expired jobs are swept on Submit.
		jobs:   cache.New(DefaultJobTTL, 0),
		log:    slog.Default(),
		now:    time.Now,
		latest: make(map[string]string),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With("component", "analyzer", "provider", provider.Name())
	return r
}

// Submit schedules an analysis of image id.
func (r *Runner) Submit(ctx context.Context, id string) (*Job, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: runner closed", apperr.ErrAnalysisFailed)
	}
	img, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	r.jobs.DeleteExpired()
	j := &job{
		snap: Job{
			Token:       uuid.NewString(),
			ImageID:     id,
			State:       JobPending,
			SubmittedAt: r.now(),
		},
		done: make(chan struct{}),
	}

	r.mu.Lock()
	r.latest[id] = j.snap.Token
	r.mu.Unlock()

	r.jobs.SetDefault(j.snap.Token, j)
	r.metrics.AnalysisStarted()
	r.log.Info("analysis submitted", "image", id, "token", j.snap.Token, "delay", r.delay)

	r.wg.Add(1)
	go r.run(j, img)
	return j.snapshot(), nil
}

func (r *Runner) run(j *job, img models.FieldImage) {
	defer r.wg.Done()

	timer := time.NewTimer(r.delay)
	select {
	case <-timer.C:
	case <-r.ctx.Done():
		timer.Stop()
		r.settle(j, JobFailed, nil, fmt.Errorf("%w: runner closed", apperr.ErrAnalysisFailed))
		return
	}

	result, err := r.provider.Analyze(r.ctx, img)
	if err == nil && result == nil {
		err = errors.New("provider returned no result")
	}
	if err != nil {
		if !errors.Is(err, apperr.ErrAnalysisFailed) {
			err = fmt.Errorf("%w: %w", apperr.ErrAnalysisFailed, err)
		}
		r.settle(j, JobFailed, nil, err)
		return
	}

	r.mu.Lock()
	if r.latest[img.ID] != j.snap.Token {
		r.mu.Unlock()
		r.settle(j, JobSuperseded, nil, nil)
		return
	}
	updated, err := r.store.Update(r.ctx, img.ID, func(cur *models.FieldImage) error {
		cur.Status = models.StatusAnalyzed
		cur.Analysis = result
		return nil
	})
	r.mu.Unlock()

	if err != nil {
		r.settle(j, JobFailed, nil, err)
		return
	}
	r.settle(j, JobCompleted, &updated, nil)
}

// settle records the outcome of j. A job that is still the latest for its
// image releases that slot whatever the outcome.
func (r *Runner) settle(j *job, state JobState, img *models.FieldImage, err error) {
	r.mu.Lock()
	if r.latest[j.snap.ImageID] == j.snap.Token {
		delete(r.latest, j.snap.ImageID)
	}
	r.mu.Unlock()

	j.mu.Lock()
	now := r.now()
	j.snap.State = state
	j.snap.CompletedAt = &now
	j.snap.Image = img
	j.snap.err = err
	if err != nil {
		j.snap.Error = err.Error()
	}
	took := now.Sub(j.snap.SubmittedAt)
	token, id := j.snap.Token, j.snap.ImageID
	j.mu.Unlock()
	close(j.done)

	r.metrics.AnalysisSettled(string(state), took)
	switch state {
	case JobFailed:
		r.log.Warn("analysis failed", "image", id, "token", token, "error", err)
	case JobSuperseded:
		r.log.Info("analysis superseded by a newer request", "image", id, "token", token)
	default:
		r.log.Info("analysis completed", "image", id, "token", token, "took", took)
	}
}

// Job returns the current state of the job with token.
func (r *Runner) Job(token string) (*Job, bool) {
	v, ok := r.jobs.Get(token)
	if !ok {
		return nil, false
	}
	return v.(*job).snapshot(), true
}

// Wait blocks until the job with token settles or ctx is done.
func (r *Runner) Wait(ctx context.Context, token string) (*Job, error) {
	v, ok := r.jobs.Get(token)
	if !ok {
		return nil, fmt.Errorf("%w: job %s", apperr.ErrNotFound, token)
	}
	j := v.(*job)
	select {
	case <-j.done:
		return j.snapshot(), nil
	case <-ctx.Done():
		return j.snapshot(), ctx.Err()
	}
}

// Close abandons pending jobs and waits for their goroutines to exit.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}
