// Package analyze implements the four independent document analyses that
// feed the report: text extraction, metadata, statistics and sensitive-data
// detection. Analyzers share a pdfcpu-backed Opener and are pure over the
// opened Document, so each can run concurrently without seeing the others.
package analyze

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
	"github.com/Lllllllleong/pdfreportflow/internal/source"
)

// Document is the parsed view of a source PDF shared by all analyzers:
// per-page text in physical order plus the document info fields.
type Document struct {
	Pages []models.PageText
	Info  models.MetadataResult
}

// Opener resolves a document identity to a parsed Document. A missing
// source document surfaces as source.ErrDocumentNotFound.
type Opener interface {
	Open(ctx context.Context, id models.DocumentIdentity) (*Document, error)
}

// PDFOpener fetches document bytes and parses them with pdfcpu.
type PDFOpener struct {
	fetcher source.Fetcher
}

var _ Opener = (*PDFOpener)(nil)

// NewPDFOpener creates an Opener over the given document source.
func NewPDFOpener(fetcher source.Fetcher) *PDFOpener {
	return &PDFOpener{fetcher: fetcher}
}

// Open downloads and parses the document. Corrupt bytes fail the open; the
// caller decides whether that fails the whole workflow.
func (o *PDFOpener) Open(ctx context.Context, id models.DocumentIdentity) (*Document, error) {
	data, err := o.fetcher.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read of %s: %w", id, err)
	}

	doc := &Document{
		Pages: make([]models.PageText, 0, pdfCtx.PageCount),
		Info:  documentInfo(pdfCtx),
	}
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		doc.Pages = append(doc.Pages, models.PageText{
			Page: pageNr,
			Text: pageText(pdfCtx, pageNr),
		})
	}
	return doc, nil
}

// pageText extracts the visible text of one page from its content stream.
// Pages without extractable text yield "".
func pageText(pdfCtx *model.Context, pageNr int) string {
	reader, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

// documentInfo reads the PDF info dictionary. Fields missing from the
// document map to empty strings so the result always carries every key.
func documentInfo(pdfCtx *model.Context) models.MetadataResult {
	info := models.MetadataResult{}
	if pdfCtx.Info == nil {
		return info
	}
	dict, err := pdfCtx.DereferenceDict(*pdfCtx.Info)
	if err != nil || dict == nil {
		return info
	}

	info.Title = infoField(pdfCtx, dict, "Title")
	info.Author = infoField(pdfCtx, dict, "Author")
	info.Subject = infoField(pdfCtx, dict, "Subject")
	info.Creator = infoField(pdfCtx, dict, "Creator")
	info.Producer = infoField(pdfCtx, dict, "Producer")
	info.CreationDate = infoField(pdfCtx, dict, "CreationDate")
	info.ModDate = infoField(pdfCtx, dict, "ModDate")
	return info
}

// infoField dereferences one info dict entry to a string, empty if the
// entry is absent or not string-valued.
func infoField(pdfCtx *model.Context, dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	obj, err := pdfCtx.Dereference(obj)
	if err != nil {
		return ""
	}
	switch v := obj.(type) {
	case types.StringLiteral:
		s, err := types.StringLiteralToString(v)
		if err != nil {
			return ""
		}
		return s
	case types.HexLiteral:
		s, err := types.HexLiteralToString(v)
		if err != nil {
			return ""
		}
		return s
	}
	return ""
}
