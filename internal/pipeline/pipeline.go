// Package pipeline turns one uploaded recording into a transcription and a
// summary.
//
// A run is synchronous and has three stages: normalize (re-encode the upload
// to canonical WAV), transcribe (speech-to-text on the normalized file), and
// summarize (LLM summary of the transcript). Normalization and transcription
// failures abort the run. Summarization failures do not: the result then
// carries a placeholder summary and is marked degraded, because a transcript
// without a summary is still worth storing.
//
// The normalized WAV is a scratch file and is removed on every exit path. A
// weighted semaphore caps how many runs execute concurrently; excess runs
// block in Run until a slot frees or their context ends.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/voxmill/voxmill/internal/digest"
	"github.com/voxmill/voxmill/internal/language"
	"github.com/voxmill/voxmill/internal/media"
	"github.com/voxmill/voxmill/internal/observe"
	"github.com/voxmill/voxmill/pkg/provider/stt"
)

// defaultMaxConcurrent caps simultaneous pipeline runs unless overridden.
const defaultMaxConcurrent = 4

// Default per-stage timeouts. Normalization gets the largest budget because
// ffmpeg re-encodes of long video uploads dominate it.
const (
	defaultNormalizeTimeout  = 120 * time.Second
	defaultTranscribeTimeout = 60 * time.Second
	defaultSummarizeTimeout  = 30 * time.Second
)

// Normalizer converts an upload into the canonical WAV form.
type Normalizer interface {
	Normalize(ctx context.Context, src media.Source) (media.Handle, error)
}

// Summarizer produces a short summary of a transcript written in the named
// display language.
type Summarizer interface {
	Summarize(ctx context.Context, transcript, languageName string) (string, error)
}

// Compile-time assertions that the production implementations satisfy the
// stage interfaces.
var (
	_ Normalizer = (*media.Normalizer)(nil)
	_ Summarizer = (*digest.Digest)(nil)
)

// Stage names reported through [Job.OnStage].
const (
	StageNormalize  = "normalize"
	StageTranscribe = "transcribe"
	StageSummarize  = "summarize"
)

// Job describes one recording to process.
type Job struct {
	// Source is the uploaded recording. Its reader is consumed exactly once.
	Source media.Source

	// Language is the spoken language of the recording.
	Language language.Tag

	// OnStage, when set, is called after each stage finishes. The summarize
	// stage reports even when it fell back to the placeholder, since the run
	// still moved forward. Callbacks run on the pipeline goroutine and must
	// not block.
	OnStage func(stage string)
}

func (j Job) notifyStage(stage string) {
	if j.OnStage != nil {
		j.OnStage(stage)
	}
}

// Result is the outcome of a successful run.
type Result struct {
	// Transcription is the full transcript of the recording.
	Transcription string

	// Summary is the generated summary, or a placeholder when summarization
	// failed.
	Summary string

	// SummaryDegraded reports that Summary is a placeholder rather than a
	// real summary.
	SummaryDegraded bool
}

// Timeouts bounds each stage of a run. A zero value leaves that stage
// bounded only by the caller's context.
type Timeouts struct {
	Normalize  time.Duration
	Transcribe time.Duration
	Summarize  time.Duration
}

// Runner executes processing runs. It holds no per-run state and is safe for
// concurrent use; session bookkeeping belongs to the caller.
type Runner struct {
	normalizer  Normalizer
	transcriber stt.Provider
	summarizer  Summarizer

	timeouts      Timeouts
	maxConcurrent int64
	sem           *semaphore.Weighted
	metrics       *observe.Metrics
	log           *slog.Logger
}

// Option is a functional option for configuring a Runner during construction.
type Option func(*Runner)

// WithMaxConcurrent caps simultaneous runs. Values below 1 keep the default.
func WithMaxConcurrent(n int) Option {
	return func(r *Runner) {
		if n >= 1 {
			r.maxConcurrent = int64(n)
		}
	}
}

// WithTimeouts overrides the per-stage timeouts. Zero fields leave the
// matching stage unbounded.
func WithTimeouts(t Timeouts) Option {
	return func(r *Runner) { r.timeouts = t }
}

// WithMetrics sets the metrics sink. Defaults to observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// New constructs a Runner over the three stage gateways.
func New(normalizer Normalizer, transcriber stt.Provider, summarizer Summarizer, opts ...Option) *Runner {
	r := &Runner{
		normalizer:  normalizer,
		transcriber: transcriber,
		summarizer:  summarizer,
		timeouts: Timeouts{
			Normalize:  defaultNormalizeTimeout,
			Transcribe: defaultTranscribeTimeout,
			Summarize:  defaultSummarizeTimeout,
		},
		maxConcurrent: defaultMaxConcurrent,
		metrics:       observe.DefaultMetrics(),
		log:           slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	// Create the semaphore after options so WithMaxConcurrent takes effect.
	r.sem = semaphore.NewWeighted(r.maxConcurrent)
	return r
}

// Run processes one recording to completion. It blocks while all concurrency
// slots are taken; cancelling ctx during the wait or any stage aborts the
// run. Errors from the normalize and transcribe stages are returned wrapped,
// so sentinel checks with errors.Is keep working.
func (r *Runner) Run(ctx context.Context, job Job) (Result, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return Result{}, fmt.Errorf("pipeline: acquire run slot: %w", err)
	}
	defer r.sem.Release(1)

	ctx, span := observe.StartSpan(ctx, "pipeline.run")
	defer span.End()

	r.metrics.ActivePipelines.Add(ctx, 1)
	defer r.metrics.ActivePipelines.Add(ctx, -1)

	start := time.Now()
	res, err := r.process(ctx, job)
	r.metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds())

	switch {
	case err != nil:
		r.metrics.RecordPipelineRun(ctx, "failed")
	case res.SummaryDegraded:
		r.metrics.RecordPipelineRun(ctx, "degraded")
	default:
		r.metrics.RecordPipelineRun(ctx, "ok")
	}
	return res, err
}

func (r *Runner) process(ctx context.Context, job Job) (Result, error) {
	handle, err := r.normalize(ctx, job.Source)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := handle.Remove(); err != nil {
			r.log.Warn("failed to remove normalized file", "path", handle.Path, "error", err)
		}
	}()
	job.notifyStage(StageNormalize)

	transcription, err := r.transcribe(ctx, handle, job.Language)
	if err != nil {
		return Result{}, err
	}
	job.notifyStage(StageTranscribe)

	summary, degraded := r.summarize(ctx, transcription, job.Language)
	job.notifyStage(StageSummarize)
	return Result{
		Transcription:   transcription,
		Summary:         summary,
		SummaryDegraded: degraded,
	}, nil
}

func (r *Runner) normalize(ctx context.Context, src media.Source) (media.Handle, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.normalize")
	defer span.End()
	ctx, cancel := r.stageContext(ctx, r.timeouts.Normalize)
	defer cancel()

	start := time.Now()
	handle, err := r.normalizer.Normalize(ctx, src)
	r.metrics.NormalizeDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return media.Handle{}, fmt.Errorf("pipeline: normalize %q: %w", src.Filename, err)
	}
	return handle, nil
}

func (r *Runner) transcribe(ctx context.Context, handle media.Handle, lang language.Tag) (string, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.transcribe")
	defer span.End()
	ctx, cancel := r.stageContext(ctx, r.timeouts.Transcribe)
	defer cancel()

	start := time.Now()
	text, err := r.transcriber.Transcribe(ctx, stt.Request{
		AudioPath: handle.Path,
		Language:  lang.Code,
	})
	r.metrics.TranscribeDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("pipeline: transcribe: %w", err)
	}
	return text, nil
}

// summarize never fails the run: on error it reports the placeholder summary
// and marks the result degraded.
func (r *Runner) summarize(ctx context.Context, transcription string, lang language.Tag) (summary string, degraded bool) {
	ctx, span := observe.StartSpan(ctx, "pipeline.summarize")
	defer span.End()
	ctx, cancel := r.stageContext(ctx, r.timeouts.Summarize)
	defer cancel()

	start := time.Now()
	summary, err := r.summarizer.Summarize(ctx, transcription, lang.Name)
	r.metrics.SummarizeDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		r.log.Warn("summarization failed, storing placeholder",
			"language", lang.Name,
			"error", err)
		r.metrics.RecordDegraded(ctx, "summary")
		return digest.PlaceholderSummary, true
	}
	return summary, false
}

// stageContext derives a stage-bounded context. A zero timeout returns ctx
// unchanged with a no-op cancel.
func (r *Runner) stageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
