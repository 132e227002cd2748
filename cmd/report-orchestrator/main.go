package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/pdfreportflow/internal/analyze"
	"github.com/Lllllllleong/pdfreportflow/internal/config"
	"github.com/Lllllllleong/pdfreportflow/internal/gcp"
	"github.com/Lllllllleong/pdfreportflow/internal/models"
	"github.com/Lllllllleong/pdfreportflow/internal/report"
	"github.com/Lllllllleong/pdfreportflow/internal/source"
	"github.com/Lllllllleong/pdfreportflow/internal/workflow"
)

var (
	coordinatorInstance *workflow.Coordinator
	once                sync.Once
	initErr             error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework routes GCS
	// object-finalized events here.
	functions.CloudEvent("ProcessPdfReport", processPdfReport)
}

// main is required by the Go Functions Framework.
func main() {}

// processPdfReport is the Cloud Function entry point: one uploaded PDF
// triggers one workflow run.
func processPdfReport(ctx context.Context, e cloudevents.Event) error {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		coordinatorInstance, initErr = newCoordinator(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	id := models.DocumentIdentity{Container: gcsEvent.Bucket, BlobName: gcsEvent.Name}
	slog.Info("New PDF detected.", "container", id.Container, "blobName", id.BlobName)

	// Errors are already logged with context inside Run; returning one
	// marks the invocation as failed so the event is retried.
	if _, err := coordinatorInstance.Run(ctx, id); err != nil {
		return err
	}
	return nil
}

// newCoordinator wires the workflow from configuration: GCS document
// source, pdfcpu analyzers, Firestore report and checkpoint stores.
func newCoordinator(ctx context.Context) (*workflow.Coordinator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return nil, err
	}

	opener := analyze.NewPDFOpener(source.NewGCSFetcher(storageClient))
	analyzers := workflow.Analyzers{
		Text:       analyze.NewTextExtractor(opener),
		Metadata:   analyze.NewMetadataExtractor(opener),
		Statistics: analyze.NewStatisticsAnalyzer(opener),
		Sensitive:  analyze.NewSensitiveDataDetector(opener),
	}

	store := report.NewFirestoreStore(firestoreClient, cfg.ReportCollection)
	if err := store.EnsureReady(ctx); err != nil {
		return nil, fmt.Errorf("report store provisioning check failed: %w", err)
	}
	checkpoints := workflow.NewFirestoreCheckpoints(firestoreClient, cfg.WorkflowCollection)

	slog.Info("Report orchestrator initialized.", "reportCollection", cfg.ReportCollection, "workflowCollection", cfg.WorkflowCollection)
	return workflow.NewCoordinator(
		workflow.Config{StoreRetryWindow: cfg.StoreRetryWindow},
		analyzers,
		report.NewBuilder(),
		store,
		checkpoints,
	), nil
}
