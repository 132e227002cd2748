// Package source resolves document identities to raw PDF bytes. Every
// analyzer pulls the document through a Fetcher so they stay independent of
// where the bytes actually live.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
)

// ErrDocumentNotFound indicates the identified document does not exist in
// the backing store. Analyzers recover from it locally; anything else
// propagates.
var ErrDocumentNotFound = errors.New("document not found")

// Fetcher resolves a document identity to its raw bytes.
type Fetcher interface {
	Fetch(ctx context.Context, id models.DocumentIdentity) ([]byte, error)
}

// GCSFetcher reads documents from Cloud Storage. The identity's container is
// the bucket and its blob name the object path.
type GCSFetcher struct {
	client *storage.Client
}

var _ Fetcher = (*GCSFetcher)(nil)

// NewGCSFetcher wraps an existing storage client.
func NewGCSFetcher(client *storage.Client) *GCSFetcher {
	return &GCSFetcher{client: client}
}

// Fetch downloads the full object. A missing bucket or object maps to
// ErrDocumentNotFound.
func (f *GCSFetcher) Fetch(ctx context.Context, id models.DocumentIdentity) ([]byte, error) {
	reader, err := f.client.Bucket(id.Container).Object(id.BlobName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", id.Container, id.BlobName, ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", id.Container, id.BlobName, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", id.Container, id.BlobName, err)
	}
	return data, nil
}
