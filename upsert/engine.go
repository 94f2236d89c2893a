package upsert

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/s3flow/logger"
	"github.com/theapemachine/s3flow/storage"
)

// Probe results as reported to a Recorder
const (
	ProbeFound  = "found"
	ProbeAbsent = "absent"
	ProbeError  = "error"
)

/*
Recorder receives a count of every decision the engine makes. The metrics
package provides the prometheus implementation.
*/
type Recorder interface {
	ObserveOutcome(status string)
	ObserveProbe(result string)
	ObserveUploadedBytes(n int)
}

// Stage names the batch phase a progress report belongs to
type Stage string

const (
	StageComparison Stage = "comparison"
	StageUploading  Stage = "uploading"
)

/*
Progress is called after every probe and every upload of a batch. Calls are
serialized and done never decreases within a stage.
*/
type Progress func(stage Stage, done, total int)

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger the engine reports through
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithProgress sets the batch progress callback
func WithProgress(p Progress) Option {
	return func(e *Engine) {
		e.progress = p
	}
}

/*
WithConcurrency bounds how many probes of a batch run at once. Uploads are
always sequential. Values below 1 are ignored.
*/
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.concurrency = n
		}
	}
}

/*
WithStrictProbe makes a probe failure other than "not found" fail the
candidate instead of falling through to an upload.
*/
func WithStrictProbe(strict bool) Option {
	return func(e *Engine) {
		e.strictProbe = strict
	}
}

/*
Engine decides per candidate whether an upload is necessary and performs
it. It holds no per-invocation state and can be shared.
*/
type Engine struct {
	store       storage.ObjectStore
	log         *log.Logger
	recorder    Recorder
	progress    Progress
	concurrency int
	strictProbe bool
}

/*
NewEngine creates an engine on top of an object store.
*/
func NewEngine(store storage.ObjectStore, opts ...Option) *Engine {
	engine := &Engine{
		store:       store,
		log:         logger.WithComponent("upsert"),
		concurrency: 1,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

/*
Upload processes one candidate. Without conditional it always uploads.
With conditional it probes the existing object first and skips the upload
when the stored ETag already matches the body digest. Probe failures fall
through to an upload unless strict probing is enabled.
*/
func (e *Engine) Upload(ctx context.Context, candidate *Candidate, conditional bool) *Outcome {
	if err := candidate.Validate(); err != nil {
		key := ""
		if candidate != nil {
			key = candidate.Key
		}
		e.observeOutcome(StatusFailed)
		return failed(key, err)
	}

	if conditional {
		switch verdict, err := e.probe(ctx, candidate); verdict {
		case decisionIdentical:
			e.observeOutcome(StatusSkippedIdentical)
			return skipped(candidate.Key)
		case decisionFailed, decisionPending:
			e.observeOutcome(StatusFailed)
			return failed(candidate.Key, err)
		}
	}

	return e.put(ctx, candidate)
}

type decision int

const (
	decisionPending decision = iota
	decisionUpload
	decisionIdentical
	decisionFailed
)

// probe fetches the stored fingerprint and compares it with the candidate body
func (e *Engine) probe(ctx context.Context, candidate *Candidate) (decision, error) {
	if err := ctx.Err(); err != nil {
		return decisionPending, NewError(ErrorTypeCanceled, "probe not started", err).WithKey(candidate.Key)
	}

	info, err := e.store.HeadObject(ctx, candidate.Bucket, candidate.Key)
	if err != nil {
		if storage.IsNotFound(err) {
			e.observeProbe(ProbeAbsent)
			e.log.Debug("No existing object", "bucket", candidate.Bucket, "key", candidate.Key)
			return decisionUpload, nil
		}

		e.observeProbe(ProbeError)

		if e.strictProbe {
			e.log.Error("Probe failed", "bucket", candidate.Bucket, "key", candidate.Key, "error", err)
			return decisionFailed, NewError(ErrorTypeProbe, "failed to probe existing object", err).WithKey(candidate.Key)
		}

		e.log.Warn("Probe failed, uploading anyway", "bucket", candidate.Bucket, "key", candidate.Key, "error", err)
		return decisionUpload, nil
	}

	e.observeProbe(ProbeFound)

	if Identical(info.ETag, candidate.Body) {
		e.log.Info("Object unchanged, skipping upload", "bucket", candidate.Bucket, "key", candidate.Key, "etag", info.ETag)
		return decisionIdentical, nil
	}

	return decisionUpload, nil
}

// put performs the upload step, without probing
func (e *Engine) put(ctx context.Context, candidate *Candidate) *Outcome {
	if err := ctx.Err(); err != nil {
		e.observeOutcome(StatusFailed)
		return failed(candidate.Key, NewError(ErrorTypeCanceled, "upload not started", err).WithKey(candidate.Key))
	}

	result, err := e.store.PutObject(ctx, candidate.request())
	if err != nil {
		e.observeOutcome(StatusFailed)
		e.log.Error("Upload failed", "bucket", candidate.Bucket, "key", candidate.Key, "error", err)
		return failed(candidate.Key, NewError(ErrorTypeUpload, "failed to upload object", err).WithKey(candidate.Key))
	}

	e.observeOutcome(StatusUploaded)
	if e.recorder != nil {
		e.recorder.ObserveUploadedBytes(len(candidate.Body))
	}

	e.log.Debug("Uploaded object", "bucket", candidate.Bucket, "key", candidate.Key, "etag", result.ETag)

	return uploaded(candidate.Key, result)
}

func (e *Engine) observeOutcome(status Status) {
	if e.recorder != nil {
		e.recorder.ObserveOutcome(string(status))
	}
}

func (e *Engine) observeProbe(result string) {
	if e.recorder != nil {
		e.recorder.ObserveProbe(result)
	}
}

/*
tracker counts finished steps of one batch stage and serializes the
progress callback, so concurrent probes still report a rising count.
*/
type tracker struct {
	mu       sync.Mutex
	stage    Stage
	done     int
	total    int
	progress Progress
}

func (e *Engine) track(stage Stage, total int) *tracker {
	return &tracker{stage: stage, total: total, progress: e.progress}
}

func (t *tracker) step() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done++
	if t.progress != nil {
		t.progress(t.stage, t.done, t.total)
	}
}
