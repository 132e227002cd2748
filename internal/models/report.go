package models

import "errors"

// ErrMissingIdentity is returned when a workflow or store operation is
// attempted without the blob name that identifies the source document.
var ErrMissingIdentity = errors.New("missing document identity")

// DocumentIdentity locates a PDF inside blob storage. The container is the
// bucket and the blob name is the object path within it. The pair is both
// the workflow's idempotency key and the report's primary key.
type DocumentIdentity struct {
	Container string `json:"container"`
	BlobName  string `json:"blob_name"`
}

func (id DocumentIdentity) String() string {
	return id.Container + "/" + id.BlobName
}

// PageText is the extracted text of a single page. Page numbers are 1-based
// and follow physical page order. Text may be empty for image-only pages.
type PageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// ExtractionResult is the output of the text extraction analysis. FullText
// joins the non-empty page texts with newlines, in page order; empty pages
// still appear in Pages.
type ExtractionResult struct {
	Pages    []PageText `json:"pages"`
	FullText string     `json:"full_text"`
}

// MetadataResult carries the document-level PDF info fields. A field absent
// from the source document is an empty string, never omitted.
type MetadataResult struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Subject      string `json:"subject"`
	Creator      string `json:"creator"`
	Producer     string `json:"producer"`
	CreationDate string `json:"creation_date"`
	ModDate      string `json:"mod_date"`
}

// StatisticsResult summarises the document's size and reading effort.
type StatisticsResult struct {
	PageCount                   int     `json:"page_count"`
	WordCount                   int     `json:"word_count"`
	AvgWordsPerPage             float64 `json:"avg_words_per_page"`
	EstimatedReadingTimeMinutes float64 `json:"estimated_reading_time_minutes"`
}

// SensitiveDataResult lists pattern matches found in the document text.
// Every category is duplicate-free and sorted lexicographically ascending.
type SensitiveDataResult struct {
	Emails []string `json:"emails"`
	Phones []string `json:"phones"`
	URLs   []string `json:"urls"`
	Dates  []string `json:"dates"`
}

// Report is the aggregation of all four analyses for one document. It is
// built exactly once per workflow completion and persisted keyed by
// (Container, BlobName).
type Report struct {
	Container           string              `json:"container"`
	BlobName            string              `json:"blob_name"`
	GeneratedAtUTC      string              `json:"generated_at_utc"`
	ExtractText         ExtractionResult    `json:"extract_text"`
	ExtractMetadata     MetadataResult      `json:"extract_metadata"`
	AnalyzeStatistics   StatisticsResult    `json:"analyze_statistics"`
	DetectSensitiveData SensitiveDataResult `json:"detect_sensitive_data"`
}

// ReportSummary is a single row of the report listing endpoint.
type ReportSummary struct {
	Container      string `json:"container"`
	BlobName       string `json:"blob_name"`
	GeneratedAtUTC string `json:"generated_at_utc"`
}

// EmptyExtraction returns the canonical empty text extraction: no pages,
// empty full text. Slices are non-nil so JSON renders [] rather than null.
func EmptyExtraction() ExtractionResult {
	return ExtractionResult{Pages: []PageText{}}
}

// EmptyMetadata returns the canonical empty metadata mapping: every field
// present, every field blank.
func EmptyMetadata() MetadataResult { return MetadataResult{} }

// EmptyStatistics returns the all-zero statistics result.
func EmptyStatistics() StatisticsResult { return StatisticsResult{} }

// EmptySensitiveData returns the canonical empty detection result with all
// four categories as empty, non-nil slices.
func EmptySensitiveData() SensitiveDataResult {
	return SensitiveDataResult{
		Emails: []string{},
		Phones: []string{},
		URLs:   []string{},
		Dates:  []string{},
	}
}
