// Package workflow contains the resumable coordinator that fans the four
// document analyses out, joins them, builds the report, and stores it. Each
// completed step is durably checkpointed so a re-delivered trigger or a
// process restart converges on exactly one stored report per document.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
	"github.com/Lllllllleong/pdfreportflow/internal/report"
)

// The coordinator depends on analyzer behavior, not concrete types, so
// tests can substitute failing or canned analyzers.
type (
	TextAnalyzer interface {
		Analyze(ctx context.Context, id models.DocumentIdentity) (*models.ExtractionResult, error)
	}
	MetadataAnalyzer interface {
		Analyze(ctx context.Context, id models.DocumentIdentity) (*models.MetadataResult, error)
	}
	StatisticsAnalyzer interface {
		Analyze(ctx context.Context, id models.DocumentIdentity) (*models.StatisticsResult, error)
	}
	SensitiveDataAnalyzer interface {
		Analyze(ctx context.Context, id models.DocumentIdentity) (*models.SensitiveDataResult, error)
	}
)

// Analyzers bundles the four independent analyses in their documented join
// order: text, metadata, statistics, sensitive data.
type Analyzers struct {
	Text       TextAnalyzer
	Metadata   MetadataAnalyzer
	Statistics StatisticsAnalyzer
	Sensitive  SensitiveDataAnalyzer
}

// ReportBuilder aggregates the joined results into a Report.
type ReportBuilder interface {
	Build(
		id models.DocumentIdentity,
		text *models.ExtractionResult,
		metadata *models.MetadataResult,
		statistics *models.StatisticsResult,
		sensitive *models.SensitiveDataResult,
	) *models.Report
}

// Config holds the coordinator's tunables.
type Config struct {
	// StoreRetryWindow bounds how long a failing report store is retried
	// before the workflow is marked failed.
	StoreRetryWindow time.Duration
}

// Coordinator drives one workflow run per document identity.
type Coordinator struct {
	analyzers   Analyzers
	builder     ReportBuilder
	store       report.Store
	checkpoints CheckpointStore
	config      Config
	now         func() time.Time
}

func NewCoordinator(config Config, analyzers Analyzers, builder ReportBuilder, store report.Store, checkpoints CheckpointStore) *Coordinator {
	if config.StoreRetryWindow <= 0 {
		config.StoreRetryWindow = 2 * time.Minute
	}
	return &Coordinator{
		analyzers:   analyzers,
		builder:     builder,
		store:       store,
		checkpoints: checkpoints,
		config:      config,
		now:         time.Now,
	}
}

// Run executes the workflow for one document, resuming from the last
// durable checkpoint if a record already exists. It returns the final
// report, or models.ErrMissingIdentity when the blob name is empty.
func (c *Coordinator) Run(ctx context.Context, id models.DocumentIdentity) (*models.Report, error) {
	if id.BlobName == "" {
		return nil, models.ErrMissingIdentity
	}
	logCtx := slog.With("container", id.Container, "blobName", id.BlobName)

	rec, err := c.checkpoints.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow checkpoint: %w", err)
	}
	if rec == nil {
		rec = &models.WorkflowRecord{
			Container:   id.Container,
			BlobName:    id.BlobName,
			State:       models.StateStarted,
			ExecutionID: uuid.NewString(),
		}
		if err := c.checkpoint(ctx, rec); err != nil {
			return nil, err
		}
		logCtx = logCtx.With("executionId", rec.ExecutionID)
		logCtx.Info("Workflow started.")
	} else {
		logCtx = logCtx.With("executionId", rec.ExecutionID)
		if rec.State == models.StateCompleted && rec.Report != nil {
			logCtx.Info("Workflow already completed. Returning stored report.")
			return rec.Report, nil
		}
		logCtx.Info("Resuming workflow from checkpoint.", "state", rec.State)
	}

	if !rec.JoinComplete() {
		if err := c.fanOut(ctx, logCtx, rec, id); err != nil {
			return nil, c.fail(ctx, logCtx, rec, "analysis fan-in failed", err)
		}
	}

	if rec.Report == nil {
		rec.Report = c.builder.Build(id, rec.Text, rec.Metadata, rec.Statistics, rec.Sensitive)
		rec.State = models.StateReportBuilt
		if err := c.checkpoint(ctx, rec); err != nil {
			return nil, err
		}
		logCtx.Info("Report built.", "generatedAtUTC", rec.Report.GeneratedAtUTC)
	}

	if rec.State != models.StateReportStored {
		if err := c.storeWithRetry(ctx, logCtx, rec.Report); err != nil {
			return nil, c.fail(ctx, logCtx, rec, "failed to store report", err)
		}
		rec.State = models.StateReportStored
		if err := c.checkpoint(ctx, rec); err != nil {
			return nil, err
		}
		logCtx.Info("Report stored.")
	}

	rec.State = models.StateCompleted
	rec.ErrorDetails = ""
	if err := c.checkpoint(ctx, rec); err != nil {
		return nil, err
	}
	logCtx.Info("Workflow complete.")
	return rec.Report, nil
}

// fanOut dispatches the four analyzers concurrently and waits for all of
// them. Results are checkpointed only when every analyzer succeeded, so the
// join is all-or-nothing.
func (c *Coordinator) fanOut(ctx context.Context, logCtx *slog.Logger, rec *models.WorkflowRecord, id models.DocumentIdentity) error {
	rec.State = models.StateFanOutDispatched
	if err := c.checkpoint(ctx, rec); err != nil {
		return err
	}
	logCtx.Info("Dispatching analyzers.")

	var (
		text       *models.ExtractionResult
		metadata   *models.MetadataResult
		statistics *models.StatisticsResult
		sensitive  *models.SensitiveDataResult
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		if text, err = c.analyzers.Text.Analyze(gctx, id); err != nil {
			return fmt.Errorf("extract_text: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if metadata, err = c.analyzers.Metadata.Analyze(gctx, id); err != nil {
			return fmt.Errorf("extract_metadata: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if statistics, err = c.analyzers.Statistics.Analyze(gctx, id); err != nil {
			return fmt.Errorf("analyze_statistics: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		if sensitive, err = c.analyzers.Sensitive.Analyze(gctx, id); err != nil {
			return fmt.Errorf("detect_sensitive_data: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	rec.Text, rec.Metadata, rec.Statistics, rec.Sensitive = text, metadata, statistics, sensitive
	rec.State = models.StateJoined
	if err := c.checkpoint(ctx, rec); err != nil {
		return err
	}
	logCtx.Info("All analyzers joined.")
	return nil
}

// storeWithRetry upserts the report with bounded exponential backoff. A
// missing identity is permanent; everything else is treated as transient
// until the retry window elapses.
func (c *Coordinator) storeWithRetry(ctx context.Context, logCtx *slog.Logger, rep *models.Report) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = c.config.StoreRetryWindow

	attempt := 0
	operation := func() error {
		attempt++
		if _, err := c.store.Store(ctx, rep); err != nil {
			if errors.Is(err, models.ErrMissingIdentity) {
				return backoff.Permanent(err)
			}
			logCtx.Warn("Report store attempt failed, will retry.", "attempt", attempt, "error", err)
			return err
		}
		return nil
	}
	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		return fmt.Errorf("report store failed after %d attempts: %w", attempt, err)
	}
	return nil
}

// fail records the failure on the checkpoint so operators can see why the
// run stopped, then surfaces the original error to the trigger.
func (c *Coordinator) fail(ctx context.Context, logCtx *slog.Logger, rec *models.WorkflowRecord, message string, cause error) error {
	logCtx.Error(message, "error", cause)
	rec.State = models.StateFailed
	rec.ErrorDetails = fmt.Sprintf("%s: %v", message, cause)
	if err := c.checkpoint(ctx, rec); err != nil {
		logCtx.Error("CRITICAL: Failed to record workflow failure.", "error", err)
	}
	return fmt.Errorf("%s: %w", message, cause)
}

func (c *Coordinator) checkpoint(ctx context.Context, rec *models.WorkflowRecord) error {
	rec.UpdatedAt = c.now().UTC()
	if err := c.checkpoints.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to save workflow checkpoint: %w", err)
	}
	return nil
}
