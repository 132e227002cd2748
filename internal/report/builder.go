// Package report assembles analyzer results into a Report and persists it
// keyed by document identity.
package report

import (
	"time"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
)

// ISO-8601 UTC with microsecond precision and a literal Z suffix.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Builder aggregates the four analyzer results into a Report. The clock is
// injectable for tests.
type Builder struct {
	now func() time.Time
}

func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// NewBuilderWithClock creates a Builder with a fixed clock source.
func NewBuilderWithClock(now func() time.Time) *Builder {
	return &Builder{now: now}
}

// Build creates the report for one document. A nil component result is
// substituted with its canonical empty value; with a successful fan-in
// upstream that path should not trigger.
func (b *Builder) Build(
	id models.DocumentIdentity,
	text *models.ExtractionResult,
	metadata *models.MetadataResult,
	statistics *models.StatisticsResult,
	sensitive *models.SensitiveDataResult,
) *models.Report {
	rep := &models.Report{
		Container:           id.Container,
		BlobName:            id.BlobName,
		GeneratedAtUTC:      b.now().UTC().Format(timestampLayout),
		ExtractText:         models.EmptyExtraction(),
		ExtractMetadata:     models.EmptyMetadata(),
		AnalyzeStatistics:   models.EmptyStatistics(),
		DetectSensitiveData: models.EmptySensitiveData(),
	}
	if text != nil {
		rep.ExtractText = *text
	}
	if metadata != nil {
		rep.ExtractMetadata = *metadata
	}
	if statistics != nil {
		rep.AnalyzeStatistics = *statistics
	}
	if sensitive != nil {
		rep.DetectSensitiveData = *sensitive
	}
	return rep
}
