package analyze

import (
	"context"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
)

// MetadataExtractor reads the document-level info fields.
type MetadataExtractor struct {
	opener Opener
}

func NewMetadataExtractor(opener Opener) *MetadataExtractor {
	return &MetadataExtractor{opener: opener}
}

func (e *MetadataExtractor) Analyze(ctx context.Context, id models.DocumentIdentity) (*models.MetadataResult, error) {
	doc, found, err := openDocument(ctx, e.opener, id)
	if err != nil {
		return nil, err
	}
	if !found {
		res := models.EmptyMetadata()
		return &res, nil
	}
	info := doc.Info
	return &info, nil
}
