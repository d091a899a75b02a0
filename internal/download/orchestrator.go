package download

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ytmp3/internal/config"
	"ytmp3/internal/models"
	"ytmp3/internal/store"
	"ytmp3/internal/youtube"
)

// ErrInvalidInput is returned by Submit for a malformed or non-YouTube URL.
var ErrInvalidInput = errors.New("invalid YouTube URL")

// Orchestrator accepts submissions and drives each accepted job through
// the pipeline to a terminal state. It owns no job state itself; every
// observable change goes through the store.
type Orchestrator struct {
	store    *store.Store
	cfg      *config.Manager
	pipeline Pipeline
	timeout  time.Duration

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// New creates an Orchestrator.
func New(st *store.Store, cfg *config.Manager, pipeline Pipeline) *Orchestrator {
	return &Orchestrator{
		store:    st,
		cfg:      cfg,
		pipeline: pipeline,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// SetTimeout arms a per-job watchdog: a pipeline still running after d
// is failed with a timeout error. Zero disables it (the default, where
// a stuck pipeline leaves the job downloading until deleted).
func (o *Orchestrator) SetTimeout(d time.Duration) {
	o.timeout = d
}

// Submit validates the URL, admits a job, and launches the pipeline in
// the background. It returns the new job id without waiting for any
// pipeline work; failures past this point are only visible by polling.
func (o *Orchestrator) Submit(rawURL, customName string) (string, error) {
	url := strings.TrimSpace(rawURL)
	if !youtube.IsValidURL(url) {
		return "", ErrInvalidInput
	}

	job, err := o.store.Create(url, customName)
	if err != nil {
		return "", err
	}

	// The output directory is captured now; config changes mid-flight
	// only affect jobs submitted after them.
	cfg := o.cfg.Get()
	opts := RunOptions{
		CustomName:       customName,
		OutputDir:        cfg.DownloadPath,
		OrganizeByDate:   cfg.OrganizeByDate,
		OrganizeByArtist: cfg.OrganizeByArtist,
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if o.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), o.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	o.mu.Lock()
	o.cancels[job.ID] = cancel
	o.mu.Unlock()

	go o.run(ctx, job.ID, url, opts)

	return job.ID, nil
}

// Cancel signals the job's pipeline to stop. Best effort: the pipeline
// may already be finishing, in which case its late updates are dropped
// by the store once the record is deleted.
func (o *Orchestrator) Cancel(id string) {
	o.mu.Lock()
	cancel, ok := o.cancels[id]
	o.mu.Unlock()
	if ok {
		cancel()
	}
}

func (o *Orchestrator) run(ctx context.Context, id, url string, opts RunOptions) {
	defer func() {
		o.mu.Lock()
		cancel := o.cancels[id]
		delete(o.cancels, id)
		o.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}()

	o.apply(id, store.Update{Status: statusPtr(models.StatusDownloading)})

	// Exactly one terminal update per job: events arriving after the
	// pipeline returned are dropped here, not forwarded to the store.
	var finished atomic.Bool
	emit := func(ev Event) {
		if finished.Load() {
			return
		}
		u := store.Update{Progress: &ev.Percent}
		if ev.Title != "" {
			u.Title = &ev.Title
		}
		o.apply(id, u)
	}

	result, err := o.pipeline.Run(ctx, url, opts, emit)
	finished.Store(true)

	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled {
			// Cancelled via delete; the record is gone and there is
			// nothing left to report.
			log.Printf("Download %s cancelled", id)
			return
		}
		msg := classifyError(err)
		log.Printf("Download %s failed: %v", id, err)
		o.apply(id, store.Update{Status: statusPtr(models.StatusError), Error: &msg})
		return
	}

	log.Printf("Download %s completed: %s", id, result.OutputPath)
	o.apply(id, store.Update{
		Status:     statusPtr(models.StatusCompleted),
		Title:      &result.Title,
		OutputPath: &result.OutputPath,
	})
}

// apply forwards an update to the store. A missing record means the job
// was deleted while the pipeline was still running; such stale updates
// are swallowed rather than treated as fatal.
func (o *Orchestrator) apply(id string, u store.Update) {
	if _, err := o.store.Update(id, u); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return
		}
		log.Printf("Failed to update job %s: %v", id, err)
	}
}

// classifyError turns a pipeline error into the human-readable message
// stored on the job. The pipeline wraps errors per stage (resolve,
// fetch, transcode, move), which carries the classification.
func classifyError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "download timed out"
	}
	return err.Error()
}

func statusPtr(s models.Status) *models.Status {
	return &s
}
