package workflow

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
)

// CheckpointStore persists workflow records keyed by document identity,
// enabling a restarted process to resume from the last completed step.
type CheckpointStore interface {
	// Load returns the record for an identity, or nil if none exists.
	Load(ctx context.Context, id models.DocumentIdentity) (*models.WorkflowRecord, error)
	Save(ctx context.Context, rec *models.WorkflowRecord) error
}

func checkpointID(id models.DocumentIdentity) string {
	return url.PathEscape(id.Container) + "__" + url.PathEscape(id.BlobName)
}

// FirestoreCheckpoints keeps workflow records in a Firestore collection,
// one document per workflow instance.
type FirestoreCheckpoints struct {
	client     *firestore.Client
	collection string
}

var _ CheckpointStore = (*FirestoreCheckpoints)(nil)

func NewFirestoreCheckpoints(client *firestore.Client, collection string) *FirestoreCheckpoints {
	return &FirestoreCheckpoints{client: client, collection: collection}
}

func (c *FirestoreCheckpoints) Load(ctx context.Context, id models.DocumentIdentity) (*models.WorkflowRecord, error) {
	snap, err := c.client.Collection(c.collection).Doc(checkpointID(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load workflow record for %s: %w", id, err)
	}
	var rec models.WorkflowRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode workflow record for %s: %w", id, err)
	}
	return &rec, nil
}

func (c *FirestoreCheckpoints) Save(ctx context.Context, rec *models.WorkflowRecord) error {
	if _, err := c.client.Collection(c.collection).Doc(checkpointID(rec.Identity())).Set(ctx, rec); err != nil {
		return fmt.Errorf("failed to save workflow record for %s: %w", rec.Identity(), err)
	}
	return nil
}

// MemoryCheckpoints is a thread-safe in-memory CheckpointStore for testing
// and local development. Records are copied on load and save so callers
// cannot mutate stored state.
type MemoryCheckpoints struct {
	mu      sync.Mutex
	records map[string]models.WorkflowRecord
}

var _ CheckpointStore = (*MemoryCheckpoints)(nil)

func NewMemoryCheckpoints() *MemoryCheckpoints {
	return &MemoryCheckpoints{records: make(map[string]models.WorkflowRecord)}
}

func (c *MemoryCheckpoints) Load(_ context.Context, id models.DocumentIdentity) (*models.WorkflowRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[checkpointID(id)]
	if !ok {
		return nil, nil
	}
	return copyRecord(&rec), nil
}

func (c *MemoryCheckpoints) Save(_ context.Context, rec *models.WorkflowRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[checkpointID(rec.Identity())] = *copyRecord(rec)
	return nil
}

func copyRecord(rec *models.WorkflowRecord) *models.WorkflowRecord {
	out := *rec
	if rec.Text != nil {
		text := *rec.Text
		text.Pages = append([]models.PageText(nil), rec.Text.Pages...)
		out.Text = &text
	}
	if rec.Metadata != nil {
		metadata := *rec.Metadata
		out.Metadata = &metadata
	}
	if rec.Statistics != nil {
		statistics := *rec.Statistics
		out.Statistics = &statistics
	}
	if rec.Sensitive != nil {
		sensitive := *rec.Sensitive
		sensitive.Emails = append([]string(nil), rec.Sensitive.Emails...)
		sensitive.Phones = append([]string(nil), rec.Sensitive.Phones...)
		sensitive.URLs = append([]string(nil), rec.Sensitive.URLs...)
		sensitive.Dates = append([]string(nil), rec.Sensitive.Dates...)
		out.Sensitive = &sensitive
	}
	if rec.Report != nil {
		report := *rec.Report
		out.Report = &report
	}
	return &out
}
