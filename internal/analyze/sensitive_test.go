package analyze

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
	"github.com/Lllllllleong/pdfreportflow/internal/source"
)

func TestDetectSensitiveDataFixture(t *testing.T) {
	res := DetectSensitiveData(twoPageDoc())

	assert.Equal(t, []string{"a@b.com"}, res.Emails)
	assert.Equal(t, []string{"https://x.io"}, res.URLs)
	assert.Equal(t, []string{"555-123-4567"}, res.Phones)
	assert.Equal(t, []string{}, res.Dates)
}

func TestDetectSensitiveDataDedupAndSort(t *testing.T) {
	doc := &Document{
		Pages: []models.PageText{
			{Page: 1, Text: "zed@z.org then abe@a.org then zed@z.org"},
			{Page: 2, Text: "Meeting 2024-03-01, again 2024-03-01 and 1/2/24"},
		},
	}
	res := DetectSensitiveData(doc)

	assert.Equal(t, []string{"abe@a.org", "zed@z.org"}, res.Emails)
	assert.Equal(t, []string{"1/2/24", "2024-03-01"}, res.Dates)
}

func TestDetectSensitiveDataPhoneSeparators(t *testing.T) {
	doc := &Document{
		Pages: []models.PageText{
			{Page: 1, Text: "Call 555.987.6543 or 555 123 4567, fax 1-555-222-3333"},
		},
	}
	res := DetectSensitiveData(doc)

	assert.Contains(t, res.Phones, "555.987.6543")
	assert.Contains(t, res.Phones, "555 123 4567")
	assert.Contains(t, res.Phones, "1-555-222-3333")
}

func TestDetectSensitiveDataURLShapes(t *testing.T) {
	doc := &Document{
		Pages: []models.PageText{
			{Page: 1, Text: "See http://example.com/path and (https://a.io) plus www.plain.net trailing"},
		},
	}
	res := DetectSensitiveData(doc)

	// A closing parenthesis terminates the match.
	assert.Equal(t, []string{"http://example.com/path", "https://a.io", "www.plain.net"}, res.URLs)
}

func TestSensitiveDataDetectorMissingDocument(t *testing.T) {
	detector := NewSensitiveDataDetector(&staticOpener{err: source.ErrDocumentNotFound})

	res, err := detector.Analyze(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, res.Emails)
	assert.Equal(t, []string{}, res.Phones)
	assert.Equal(t, []string{}, res.URLs)
	assert.Equal(t, []string{}, res.Dates)
}
