package analyze

import (
	"context"
	"regexp"
	"sort"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	urlRe   = regexp.MustCompile(`\bhttps?://[^\s)]+|\bwww\.[^\s)]+`)
	phoneRe = regexp.MustCompile(`\b(?:\+?1[-.\s]?)?(?:\(?\d{3}\)?[-.\s]?)\d{3}[-.\s]?\d{4}\b`)
	dateRe  = regexp.MustCompile(`\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4})\b`)
)

// SensitiveDataDetector finds emails, phone numbers, URLs and dates in the
// document text.
type SensitiveDataDetector struct {
	opener Opener
}

func NewSensitiveDataDetector(opener Opener) *SensitiveDataDetector {
	return &SensitiveDataDetector{opener: opener}
}

func (d *SensitiveDataDetector) Analyze(ctx context.Context, id models.DocumentIdentity) (*models.SensitiveDataResult, error) {
	doc, found, err := openDocument(ctx, d.opener, id)
	if err != nil {
		return nil, err
	}
	if !found {
		res := models.EmptySensitiveData()
		return &res, nil
	}
	return DetectSensitiveData(doc), nil
}

// DetectSensitiveData runs the four matchers over the full concatenated
// text. Each category is deduplicated and sorted before return.
func DetectSensitiveData(doc *Document) *models.SensitiveDataResult {
	text := fullText(doc)
	return &models.SensitiveDataResult{
		Emails: dedupSorted(emailRe.FindAllString(text, -1)),
		Phones: dedupSorted(phoneRe.FindAllString(text, -1)),
		URLs:   dedupSorted(urlRe.FindAllString(text, -1)),
		Dates:  dedupSorted(dateRe.FindAllString(text, -1)),
	}
}

// dedupSorted returns the unique matches in lexicographic ascending order.
// The result is never nil.
func dedupSorted(matches []string) []string {
	seen := make(map[string]struct{}, len(matches))
	out := []string{}
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
