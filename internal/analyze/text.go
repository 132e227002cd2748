package analyze

import (
	"context"
	"errors"
	"strings"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
	"github.com/Lllllllleong/pdfreportflow/internal/source"
)

// openDocument opens the source document for analysis. A missing document
// is not an error at this layer: found=false tells the analyzer to return
// its canonical empty result.
func openDocument(ctx context.Context, opener Opener, id models.DocumentIdentity) (*Document, bool, error) {
	doc, err := opener.Open(ctx, id)
	if err != nil {
		if errors.Is(err, source.ErrDocumentNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return doc, true, nil
}

// TextExtractor produces the per-page text and the newline-joined full text
// of a document.
type TextExtractor struct {
	opener Opener
}

func NewTextExtractor(opener Opener) *TextExtractor {
	return &TextExtractor{opener: opener}
}

func (e *TextExtractor) Analyze(ctx context.Context, id models.DocumentIdentity) (*models.ExtractionResult, error) {
	doc, found, err := openDocument(ctx, e.opener, id)
	if err != nil {
		return nil, err
	}
	if !found {
		res := models.EmptyExtraction()
		return &res, nil
	}
	return ExtractText(doc), nil
}

// ExtractText assembles the extraction result from an opened document.
// Empty pages stay in Pages but contribute nothing to FullText.
func ExtractText(doc *Document) *models.ExtractionResult {
	res := models.EmptyExtraction()
	var parts []string
	for _, page := range doc.Pages {
		res.Pages = append(res.Pages, page)
		if page.Text != "" {
			parts = append(parts, page.Text)
		}
	}
	res.FullText = strings.Join(parts, "\n")
	return &res
}

// fullText joins every page's text with newlines, empty pages included.
// Statistics and sensitive-data analysis both operate on this view.
func fullText(doc *Document) string {
	parts := make([]string, 0, len(doc.Pages))
	for _, page := range doc.Pages {
		parts = append(parts, page.Text)
	}
	return strings.Join(parts, "\n")
}
