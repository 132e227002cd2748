package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
)

// ErrNotFound indicates no report is stored for the requested identity.
var ErrNotFound = errors.New("report not found")

// Store persists reports keyed by (container, blob name) with merge-upsert
// semantics: writing the same key twice converges instead of duplicating.
type Store interface {
	Store(ctx context.Context, rep *models.Report) (*models.StoreAck, error)
	Get(ctx context.Context, id models.DocumentIdentity) (*models.Report, error)
	List(ctx context.Context, container string, limit int) ([]models.ReportSummary, error)
	EnsureReady(ctx context.Context) error
}

// storedEntity is the persisted shape: flattened key fields for querying
// plus the full report as one serialized attribute.
type storedEntity struct {
	Container      string `firestore:"container"`
	BlobName       string `firestore:"blobName"`
	GeneratedAtUTC string `firestore:"generatedAtUTC"`
	Report         string `firestore:"report"`
}

// entityID builds the document ID for an identity. Both halves are
// path-escaped because blob names may contain slashes.
func entityID(id models.DocumentIdentity) string {
	return url.PathEscape(id.Container) + "__" + url.PathEscape(id.BlobName)
}

// FirestoreStore keeps reports in a single Firestore collection, one
// document per source PDF.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

var _ Store = (*FirestoreStore)(nil)

func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collection}
}

// Store upserts the report under its identity key. MergeAll preserves any
// fields an older write carried that this one does not.
func (s *FirestoreStore) Store(ctx context.Context, rep *models.Report) (*models.StoreAck, error) {
	if rep.BlobName == "" {
		return nil, models.ErrMissingIdentity
	}

	// encoding/json leaves non-Latin content as UTF-8 rather than
	// ASCII-escaping it.
	payload, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize report: %w", err)
	}

	id := models.DocumentIdentity{Container: rep.Container, BlobName: rep.BlobName}
	doc := map[string]any{
		"container":      rep.Container,
		"blobName":       rep.BlobName,
		"generatedAtUTC": rep.GeneratedAtUTC,
		"report":         string(payload),
	}
	if _, err := s.client.Collection(s.collection).Doc(entityID(id)).Set(ctx, doc, firestore.MergeAll); err != nil {
		return nil, fmt.Errorf("failed to upsert report for %s: %w", id, err)
	}
	return &models.StoreAck{PartitionKey: rep.Container, RowKey: rep.BlobName}, nil
}

func (s *FirestoreStore) Get(ctx context.Context, id models.DocumentIdentity) (*models.Report, error) {
	snap, err := s.client.Collection(s.collection).Doc(entityID(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get report for %s: %w", id, err)
	}

	var entity storedEntity
	if err := snap.DataTo(&entity); err != nil {
		return nil, fmt.Errorf("failed to decode stored entity for %s: %w", id, err)
	}
	var rep models.Report
	if err := json.Unmarshal([]byte(entity.Report), &rep); err != nil {
		return nil, fmt.Errorf("failed to deserialize report for %s: %w", id, err)
	}
	return &rep, nil
}

// List returns up to limit summaries for a container, newest first by the
// generated_at_utc string (lexicographic, not parsed as time).
func (s *FirestoreStore) List(ctx context.Context, container string, limit int) ([]models.ReportSummary, error) {
	iter := s.client.Collection(s.collection).
		Where("container", "==", container).
		OrderBy("generatedAtUTC", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	summaries := []models.ReportSummary{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list reports for container %q: %w", container, err)
		}
		var entity storedEntity
		if err := snap.DataTo(&entity); err != nil {
			return nil, fmt.Errorf("failed to decode stored entity: %w", err)
		}
		summaries = append(summaries, models.ReportSummary{
			Container:      entity.Container,
			BlobName:       entity.BlobName,
			GeneratedAtUTC: entity.GeneratedAtUTC,
		})
	}
	return summaries, nil
}

// EnsureReady probes the collection once at startup so connectivity or
// permission problems surface before the first workflow, not during it.
func (s *FirestoreStore) EnsureReady(ctx context.Context) error {
	if _, err := s.client.Collection(s.collection).Limit(1).Documents(ctx).GetAll(); err != nil {
		return fmt.Errorf("report store readiness probe failed: %w", err)
	}
	return nil
}
