package analyze

import (
	"context"
	"regexp"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
)

// A word is a maximal run of letters, digits or underscores. The explicit
// Unicode classes keep accented words whole; \w would split them.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Reading speed used for the estimated reading time.
const wordsPerMinute = 200.0

// StatisticsAnalyzer computes page and word counts plus derived figures.
type StatisticsAnalyzer struct {
	opener Opener
}

func NewStatisticsAnalyzer(opener Opener) *StatisticsAnalyzer {
	return &StatisticsAnalyzer{opener: opener}
}

func (a *StatisticsAnalyzer) Analyze(ctx context.Context, id models.DocumentIdentity) (*models.StatisticsResult, error) {
	doc, found, err := openDocument(ctx, a.opener, id)
	if err != nil {
		return nil, err
	}
	if !found {
		res := models.EmptyStatistics()
		return &res, nil
	}
	return AnalyzeStatistics(doc), nil
}

// AnalyzeStatistics counts words across all pages, repeats included.
// avg_words_per_page is 0.0 for empty documents rather than NaN.
func AnalyzeStatistics(doc *Document) *models.StatisticsResult {
	pageCount := len(doc.Pages)
	wordCount := len(wordRe.FindAllString(fullText(doc), -1))

	avgWordsPerPage := 0.0
	if pageCount > 0 {
		avgWordsPerPage = float64(wordCount) / float64(pageCount)
	}

	return &models.StatisticsResult{
		PageCount:                   pageCount,
		WordCount:                   wordCount,
		AvgWordsPerPage:             avgWordsPerPage,
		EstimatedReadingTimeMinutes: float64(wordCount) / wordsPerMinute,
	}
}
