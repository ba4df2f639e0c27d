// Package worker drives the generation pipeline: it polls the durable queue,
// claims jobs, and runs each one through analysis, prompt building, image
// generation, storage, and persistence.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"server/internal/coloring"
	"server/internal/cost"
	"server/internal/domain"
	"server/internal/infra"
	"server/internal/providers/imagegen"
	"server/internal/providers/vision"
	"server/internal/queue"
	"server/internal/storage"
	"server/internal/telemetry"
)

// userFacingFailure is what ends up on the page record when a job fails
// terminally. Always display-ready prose, never a raw error.
const userFacingFailure = "Failed to generate your coloring page. Please try again."

// jobQueue is the queue surface the worker drives.
type jobQueue interface {
	PromoteRetryable(ctx context.Context) (int64, error)
	ClaimNext(ctx context.Context) (*domain.Job, error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID, errorMessage string) (domain.JobStatus, error)
}

// pageStore is the external page-record surface the worker mirrors status to.
type pageStore interface {
	UpdateStatus(ctx context.Context, pageID string, status domain.PageStatus, errorMessage *string) error
	Complete(ctx context.Context, pageID, prompt, storageKey, outputURL string, analysisJSON []byte) error
}

// Config tunes the polling loop and cost attribution.
type Config struct {
	PollInterval time.Duration
	// BatchLimit caps jobs processed per polling tick so one tick cannot
	// monopolize the process.
	BatchLimit   int
	VisionModel  string
	ImageModel   string
	ImageQuality string
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = 10
	}
	if c.ImageQuality == "" {
		c.ImageQuality = "standard"
	}
}

// Worker is the single-process polling consumer. Multiple workers may run
// against the same queue; exclusivity comes from the claim statement, not
// from anything in here.
type Worker struct {
	queue      jobQueue
	pages      pageStore
	analyzer   vision.Analyzer
	generator  imagegen.Generator
	store      storage.Store
	urls       *storage.URLBuilder
	sink       *telemetry.Sink
	httpClient *http.Client
	logger     infra.Logger
	cfg        Config
}

func New(q jobQueue, pages pageStore, analyzer vision.Analyzer, generator imagegen.Generator,
	store storage.Store, urls *storage.URLBuilder, sink *telemetry.Sink,
	httpClient *http.Client, logger infra.Logger, cfg Config) *Worker {
	cfg.applyDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Worker{
		queue:      q,
		pages:      pages,
		analyzer:   analyzer,
		generator:  generator,
		store:      store,
		urls:       urls,
		sink:       sink,
		httpClient: httpClient,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run polls immediately and then on the configured interval until the
// context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().
		Dur("poll_interval", w.cfg.PollInterval).
		Int("batch_limit", w.cfg.BatchLimit).
		Msg("worker: started")

	w.ProcessQueue(ctx)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker: stopping")
			return ctx.Err()
		case <-ticker.C:
			w.ProcessQueue(ctx)
		}
	}
}

// ProcessQueue promotes eligible retries, then claims and processes jobs
// until the queue is drained or the per-tick cap is reached.
func (w *Worker) ProcessQueue(ctx context.Context) {
	promoted, err := w.queue.PromoteRetryable(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: promote retryable failed")
	} else if promoted > 0 {
		w.logger.Info().Int64("promoted", promoted).Msg("worker: promoted retrying jobs")
	}

	for i := 0; i < w.cfg.BatchLimit; i++ {
		if ctx.Err() != nil {
			return
		}
		job, err := w.queue.ClaimNext(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("worker: claim failed")
			return
		}
		if job == nil {
			return
		}
		w.ProcessJob(ctx, job)
	}
}

// ProcessJob runs the five pipeline stages in strict sequence and routes the
// outcome through the queue's retry/fail decision.
func (w *Worker) ProcessJob(ctx context.Context, job *domain.Job) {
	start := time.Now()
	ledger := cost.NewLedger()
	log := w.logger.With().
		Str("job_id", job.ID).
		Str("page_id", job.PageID).
		Int("attempt", job.Attempt).
		Logger()
	log.Info().Int("priority", job.Priority).Msg("pipeline: job claimed")

	// Mirror the claim to the page record. Best-effort: a failed status
	// write must not fail the pipeline.
	if err := w.pages.UpdateStatus(ctx, job.PageID, domain.PageStatusProcessing, nil); err != nil {
		log.Warn().Err(err).Msg("pipeline: page status write failed")
	}

	result, err := w.runPipeline(ctx, job, ledger, log)
	if err != nil {
		w.failJob(ctx, job, err, ledger, start, log)
		return
	}

	if err := w.queue.MarkCompleted(ctx, job.ID); err != nil {
		log.Error().Err(err).Msg("pipeline: mark completed failed")
		return
	}
	w.sink.PageCompleted(ctx)
	log.Info().
		Dur("duration", time.Since(start)).
		Str("storage_key", result.StorageKey).
		Str("total_cost", cost.FormatUSD(ledger.Total())).
		Bool("fallback_analysis", result.Analysis.UsingFallback).
		Msg("pipeline: job completed")
}

func (w *Worker) failJob(ctx context.Context, job *domain.Job, cause error, ledger *cost.Ledger, start time.Time, log infra.Logger) {
	msg := userFacingFailure
	if err := w.pages.UpdateStatus(ctx, job.PageID, domain.PageStatusFailed, &msg); err != nil {
		log.Warn().Err(err).Msg("pipeline: page failure write failed")
	}

	status, err := w.queue.MarkFailed(ctx, job.ID, cause.Error())
	if err != nil {
		log.Error().Err(err).Msg("pipeline: mark failed errored")
		return
	}
	if status == domain.JobStatusFailed {
		w.sink.PageFailed(ctx)
	}
	log.Error().Err(cause).
		Dur("duration", time.Since(start)).
		Str("total_cost", cost.FormatUSD(ledger.Total())).
		Str("queue_status", string(status)).
		Msg("pipeline: job failed")
}

// PipelineResult is the per-run artifact bundle. It lives for one invocation:
// folded into the completion log line and the page record, then discarded.
type PipelineResult struct {
	Analysis      domain.PhotoAnalysis
	Prompt        string
	RemoteURL     string
	RevisedPrompt string
	StorageKey    string
	OutputURL     string
}

func (w *Worker) runPipeline(ctx context.Context, job *domain.Job, ledger *cost.Ledger, log infra.Logger) (*PipelineResult, error) {
	result := &PipelineResult{}

	// Stage 1: photo analysis. Skipped entirely when the caller supplied a
	// pre-computed (possibly user-edited) analysis.
	if job.Payload.Analysis != nil {
		result.Analysis = *job.Payload.Analysis
		log.Info().Msg("pipeline: using caller-supplied analysis")
	} else {
		stageStart := time.Now()
		imageBytes, err := w.store.Read(ctx, job.Payload.SourceUploadKey)
		if err != nil {
			return nil, fmt.Errorf("%w: read source photo %s: %v", domain.ErrStorage, job.Payload.SourceUploadKey, err)
		}
		analysis, usage, err := w.analyzer.Analyze(ctx, imageBytes)
		if err != nil {
			return nil, fmt.Errorf("analyze photo: %w", err)
		}
		result.Analysis = analysis
		total := ledger.Add(cost.ForTokens(w.cfg.VisionModel, usage.InputTokens, usage.OutputTokens))
		if analysis.UsingFallback {
			w.sink.FallbackAnalysisUsed(ctx)
		}
		log.Info().
			Dur("stage_ms", time.Since(stageStart)).
			Int("input_tokens", usage.InputTokens).
			Int("output_tokens", usage.OutputTokens).
			Str("running_cost", cost.FormatUSD(total)).
			Bool("fallback", analysis.UsingFallback).
			Msg("pipeline: analysis done")
	}

	// Stage 2: prompt construction. Pure.
	result.Prompt = coloring.BuildPrompt(result.Analysis, job.Payload.SceneText, job.Payload.Style, job.Payload.Difficulty)

	// Stage 3: image generation.
	stageStart := time.Now()
	quality := job.Payload.Quality
	if quality == "" {
		quality = w.cfg.ImageQuality
	}
	generated, err := w.generator.Generate(ctx, imagegen.GenerateRequest{
		Prompt:  result.Prompt,
		Size:    imagegen.SizeForOrientation(job.Payload.Orientation),
		Quality: quality,
	})
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	result.RemoteURL = generated.URL
	result.RevisedPrompt = generated.RevisedPrompt
	total := ledger.Add(cost.ForImage(w.cfg.ImageModel, quality))
	log.Info().
		Dur("stage_ms", time.Since(stageStart)).
		Str("running_cost", cost.FormatUSD(total)).
		Bool("prompt_revised", generated.RevisedPrompt != "").
		Msg("pipeline: generation done")

	// Stage 4: download and store.
	stageStart = time.Now()
	data, err := storage.Download(ctx, w.httpClient, generated.URL)
	if err != nil {
		return nil, fmt.Errorf("download generated image: %w", err)
	}
	key := storage.PageKey(job.OwnerID, job.PageID)
	storedKey, err := w.store.Write(ctx, key, data)
	if err != nil {
		return nil, fmt.Errorf("%w: store generated image: %v", domain.ErrStorage, err)
	}
	result.StorageKey = storedKey
	result.OutputURL = w.urls.PublicURL(storedKey)
	log.Info().
		Dur("stage_ms", time.Since(stageStart)).
		Int("bytes", len(data)).
		Str("storage_key", storedKey).
		Msg("pipeline: storage done")

	// Stage 5: persist the completed page.
	analysisJSON, err := json.Marshal(result.Analysis)
	if err != nil {
		return nil, fmt.Errorf("%w: encode analysis: %v", domain.ErrPersistence, err)
	}
	if err := w.pages.Complete(ctx, job.PageID, result.Prompt, result.StorageKey, result.OutputURL, analysisJSON); err != nil {
		return nil, fmt.Errorf("persist page: %w", err)
	}

	return result, nil
}

var _ jobQueue = (*queue.Queue)(nil)
