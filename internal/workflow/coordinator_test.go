package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
	"github.com/Lllllllleong/pdfreportflow/internal/report"
)

var testID = models.DocumentIdentity{Container: "pdfs", BlobName: "test.pdf"}

type stubText struct {
	res   *models.ExtractionResult
	err   error
	calls int
}

func (s *stubText) Analyze(context.Context, models.DocumentIdentity) (*models.ExtractionResult, error) {
	s.calls++
	return s.res, s.err
}

type stubMetadata struct {
	res   *models.MetadataResult
	err   error
	calls int
}

func (s *stubMetadata) Analyze(context.Context, models.DocumentIdentity) (*models.MetadataResult, error) {
	s.calls++
	return s.res, s.err
}

type stubStatistics struct {
	res   *models.StatisticsResult
	err   error
	calls int
}

func (s *stubStatistics) Analyze(context.Context, models.DocumentIdentity) (*models.StatisticsResult, error) {
	s.calls++
	return s.res, s.err
}

type stubSensitive struct {
	res   *models.SensitiveDataResult
	err   error
	calls int
}

func (s *stubSensitive) Analyze(context.Context, models.DocumentIdentity) (*models.SensitiveDataResult, error) {
	s.calls++
	return s.res, s.err
}

// countingBuilder wraps the real builder to observe how often Build runs.
type countingBuilder struct {
	inner *report.Builder
	calls int
}

func (b *countingBuilder) Build(
	id models.DocumentIdentity,
	text *models.ExtractionResult,
	metadata *models.MetadataResult,
	statistics *models.StatisticsResult,
	sensitive *models.SensitiveDataResult,
) *models.Report {
	b.calls++
	return b.inner.Build(id, text, metadata, statistics, sensitive)
}

// failingStore fails every write until `failures` attempts have happened.
type failingStore struct {
	*report.MemoryStore
	failures int
	attempts int
}

func (s *failingStore) Store(ctx context.Context, rep *models.Report) (*models.StoreAck, error) {
	s.attempts++
	if s.attempts <= s.failures {
		return nil, errors.New("backend unavailable")
	}
	return s.MemoryStore.Store(ctx, rep)
}

func happyAnalyzers() (Analyzers, *stubText, *stubMetadata, *stubStatistics, *stubSensitive) {
	text := &stubText{res: &models.ExtractionResult{
		Pages:    []models.PageText{{Page: 1, Text: "hello"}},
		FullText: "hello",
	}}
	metadata := &stubMetadata{res: &models.MetadataResult{Title: "T"}}
	statistics := &stubStatistics{res: &models.StatisticsResult{PageCount: 1, WordCount: 1, AvgWordsPerPage: 1, EstimatedReadingTimeMinutes: 0.005}}
	sensitive := &stubSensitive{res: &models.SensitiveDataResult{
		Emails: []string{}, Phones: []string{}, URLs: []string{}, Dates: []string{},
	}}
	return Analyzers{
		Text:       text,
		Metadata:   metadata,
		Statistics: statistics,
		Sensitive:  sensitive,
	}, text, metadata, statistics, sensitive
}

func newTestCoordinator(analyzers Analyzers, store report.Store, checkpoints CheckpointStore) (*Coordinator, *countingBuilder) {
	builder := &countingBuilder{inner: report.NewBuilder()}
	c := NewCoordinator(Config{StoreRetryWindow: time.Millisecond}, analyzers, builder, store, checkpoints)
	return c, builder
}

func TestRunHappyPath(t *testing.T) {
	analyzers, text, metadata, statistics, sensitive := happyAnalyzers()
	store := report.NewMemoryStore()
	checkpoints := NewMemoryCheckpoints()
	c, builder := newTestCoordinator(analyzers, store, checkpoints)

	rep, err := c.Run(context.Background(), testID)
	require.NoError(t, err)

	assert.Equal(t, 1, text.calls)
	assert.Equal(t, 1, metadata.calls)
	assert.Equal(t, 1, statistics.calls)
	assert.Equal(t, 1, sensitive.calls)
	assert.Equal(t, 1, builder.calls)
	assert.Equal(t, "hello", rep.ExtractText.FullText)
	assert.Equal(t, "T", rep.ExtractMetadata.Title)

	stored, err := store.Get(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, rep, stored)

	rec, err := checkpoints.Load(context.Background(), testID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.StateCompleted, rec.State)
	assert.NotEmpty(t, rec.ExecutionID)
}

func TestRunMissingIdentity(t *testing.T) {
	analyzers, text, _, _, _ := happyAnalyzers()
	store := report.NewMemoryStore()
	checkpoints := NewMemoryCheckpoints()
	c, _ := newTestCoordinator(analyzers, store, checkpoints)

	_, err := c.Run(context.Background(), models.DocumentIdentity{Container: "pdfs"})
	require.ErrorIs(t, err, models.ErrMissingIdentity)

	// Fails fast: no analyzer ran, no checkpoint was written.
	assert.Equal(t, 0, text.calls)
	rec, err := checkpoints.Load(context.Background(), models.DocumentIdentity{Container: "pdfs"})
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 0, store.Len())
}

func TestRunIdempotentRedelivery(t *testing.T) {
	analyzers, text, _, _, _ := happyAnalyzers()
	store := report.NewMemoryStore()
	checkpoints := NewMemoryCheckpoints()
	c, builder := newTestCoordinator(analyzers, store, checkpoints)

	first, err := c.Run(context.Background(), testID)
	require.NoError(t, err)
	second, err := c.Run(context.Background(), testID)
	require.NoError(t, err)

	// The duplicate delivery re-executes nothing and converges on one entity.
	assert.Equal(t, 1, text.calls)
	assert.Equal(t, 1, builder.calls)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, first.GeneratedAtUTC, second.GeneratedAtUTC)
}

func TestRunFanInAtomicity(t *testing.T) {
	analyzers, _, metadata, _, _ := happyAnalyzers()
	metadata.err = errors.New("corrupt xref table")
	metadata.res = nil
	store := report.NewMemoryStore()
	checkpoints := NewMemoryCheckpoints()
	c, builder := newTestCoordinator(analyzers, store, checkpoints)

	_, err := c.Run(context.Background(), testID)
	require.Error(t, err)
	assert.ErrorContains(t, err, "extract_metadata")

	// One failed analyzer means no report is built or stored.
	assert.Equal(t, 0, builder.calls)
	assert.Equal(t, 0, store.Len())

	rec, loadErr := checkpoints.Load(context.Background(), testID)
	require.NoError(t, loadErr)
	require.NotNil(t, rec)
	assert.Equal(t, models.StateFailed, rec.State)
	assert.Contains(t, rec.ErrorDetails, "corrupt xref table")
	assert.Nil(t, rec.Report)
}

func TestRunResumesFromJoin(t *testing.T) {
	analyzers, text, _, _, _ := happyAnalyzers()
	store := report.NewMemoryStore()
	checkpoints := NewMemoryCheckpoints()

	joined := &models.WorkflowRecord{
		Container:   testID.Container,
		BlobName:    testID.BlobName,
		State:       models.StateJoined,
		ExecutionID: "exec-123",
		Text:        &models.ExtractionResult{Pages: []models.PageText{{Page: 1, Text: "recorded"}}, FullText: "recorded"},
		Metadata:    &models.MetadataResult{},
		Statistics:  &models.StatisticsResult{PageCount: 1, WordCount: 1, AvgWordsPerPage: 1, EstimatedReadingTimeMinutes: 0.005},
		Sensitive:   &models.SensitiveDataResult{Emails: []string{}, Phones: []string{}, URLs: []string{}, Dates: []string{}},
	}
	require.NoError(t, checkpoints.Save(context.Background(), joined))

	c, builder := newTestCoordinator(analyzers, store, checkpoints)
	rep, err := c.Run(context.Background(), testID)
	require.NoError(t, err)

	// Recorded analyzer results are reused, not recomputed.
	assert.Equal(t, 0, text.calls)
	assert.Equal(t, 1, builder.calls)
	assert.Equal(t, "recorded", rep.ExtractText.FullText)
	assert.Equal(t, 1, store.Len())

	rec, err := checkpoints.Load(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, models.StateCompleted, rec.State)
	assert.Equal(t, "exec-123", rec.ExecutionID)
}

func TestRunResumesFromBuiltReport(t *testing.T) {
	analyzers, text, _, _, _ := happyAnalyzers()
	store := report.NewMemoryStore()
	checkpoints := NewMemoryCheckpoints()

	pinned := report.NewBuilder().Build(testID,
		&models.ExtractionResult{Pages: []models.PageText{}, FullText: "pinned"},
		nil, nil, nil)
	rec := &models.WorkflowRecord{
		Container:   testID.Container,
		BlobName:    testID.BlobName,
		State:       models.StateReportBuilt,
		ExecutionID: "exec-456",
		Text:        &pinned.ExtractText,
		Metadata:    &pinned.ExtractMetadata,
		Statistics:  &pinned.AnalyzeStatistics,
		Sensitive:   &pinned.DetectSensitiveData,
		Report:      pinned,
	}
	require.NoError(t, checkpoints.Save(context.Background(), rec))

	c, builder := newTestCoordinator(analyzers, store, checkpoints)
	rep, err := c.Run(context.Background(), testID)
	require.NoError(t, err)

	// The recorded report is stored as-is; generated_at_utc is stable
	// across the resume.
	assert.Equal(t, 0, text.calls)
	assert.Equal(t, 0, builder.calls)
	assert.Equal(t, pinned.GeneratedAtUTC, rep.GeneratedAtUTC)

	stored, err := store.Get(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, pinned.GeneratedAtUTC, stored.GeneratedAtUTC)
}

func TestRunStoreFailureSurfacesAfterRetries(t *testing.T) {
	analyzers, _, _, _, _ := happyAnalyzers()
	store := &failingStore{MemoryStore: report.NewMemoryStore(), failures: 1 << 30}
	checkpoints := NewMemoryCheckpoints()
	c, _ := newTestCoordinator(analyzers, store, checkpoints)

	_, err := c.Run(context.Background(), testID)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to store report")

	// The report was computed but not durably recorded, and that is
	// visible on the checkpoint.
	rec, loadErr := checkpoints.Load(context.Background(), testID)
	require.NoError(t, loadErr)
	require.NotNil(t, rec)
	assert.Equal(t, models.StateFailed, rec.State)
	require.NotNil(t, rec.Report)
	assert.NotEmpty(t, rec.ErrorDetails)
	assert.Equal(t, 0, store.Len())
}

func TestRunRetriesTransientStoreFailure(t *testing.T) {
	analyzers, _, _, _, _ := happyAnalyzers()
	store := &failingStore{MemoryStore: report.NewMemoryStore(), failures: 1}
	checkpoints := NewMemoryCheckpoints()
	c := NewCoordinator(Config{StoreRetryWindow: 5 * time.Second}, analyzers, report.NewBuilder(), store, checkpoints)

	rep, err := c.Run(context.Background(), testID)
	require.NoError(t, err)
	require.NotNil(t, rep)

	assert.GreaterOrEqual(t, store.attempts, 2)
	assert.Equal(t, 1, store.Len())
}
