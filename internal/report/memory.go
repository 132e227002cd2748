package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Lllllllleong/pdfreportflow/internal/models"
)

// MemoryStore is a thread-safe in-memory Store for testing and local
// development. It keeps the same serialized-entity shape as the Firestore
// implementation so the serialization round-trip is exercised.
type MemoryStore struct {
	mu       sync.Mutex
	entities map[string]storedEntity
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entities: make(map[string]storedEntity)}
}

func (s *MemoryStore) Store(_ context.Context, rep *models.Report) (*models.StoreAck, error) {
	if rep.BlobName == "" {
		return nil, models.ErrMissingIdentity
	}
	payload, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize report: %w", err)
	}

	id := models.DocumentIdentity{Container: rep.Container, BlobName: rep.BlobName}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[entityID(id)] = storedEntity{
		Container:      rep.Container,
		BlobName:       rep.BlobName,
		GeneratedAtUTC: rep.GeneratedAtUTC,
		Report:         string(payload),
	}
	return &models.StoreAck{PartitionKey: rep.Container, RowKey: rep.BlobName}, nil
}

func (s *MemoryStore) Get(_ context.Context, id models.DocumentIdentity) (*models.Report, error) {
	s.mu.Lock()
	entity, ok := s.entities[entityID(id)]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	var rep models.Report
	if err := json.Unmarshal([]byte(entity.Report), &rep); err != nil {
		return nil, fmt.Errorf("failed to deserialize report for %s: %w", id, err)
	}
	return &rep, nil
}

func (s *MemoryStore) List(_ context.Context, container string, limit int) ([]models.ReportSummary, error) {
	s.mu.Lock()
	summaries := []models.ReportSummary{}
	for _, entity := range s.entities {
		if entity.Container != container {
			continue
		}
		summaries = append(summaries, models.ReportSummary{
			Container:      entity.Container,
			BlobName:       entity.BlobName,
			GeneratedAtUTC: entity.GeneratedAtUTC,
		})
	}
	s.mu.Unlock()

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].GeneratedAtUTC > summaries[j].GeneratedAtUTC
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

func (s *MemoryStore) EnsureReady(context.Context) error { return nil }

// Len reports the number of stored entities, for idempotency assertions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities)
}
