package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/octobees/contact-finder/internal/entity"
)

// ResultsRepository persists research results so they can be listed and
// exported after the request that produced them.
type ResultsRepository interface {
	Save(ctx context.Context, result *entity.ResearchResult) error
	Get(ctx context.Context, id uuid.UUID) (*entity.ResearchResult, error)
	List(ctx context.Context, limit int) ([]entity.ResearchSummary, error)
}

// ErrResultNotFound indicates there is no stored result with the given id.
var ErrResultNotFound = errors.New("research result not found")

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

func validateResult(result *entity.ResearchResult) error {
	if result == nil {
		return fmt.Errorf("research result is nil")
	}
	if result.ID == uuid.Nil {
		return fmt.Errorf("research result has no id")
	}
	return nil
}

// DefaultMemoryCapacity is how many results the in-memory store keeps.
const DefaultMemoryCapacity = 500

// MemoryResultsRepository keeps the most recent results in process memory.
// It is used when no DATABASE_URL is configured and by the CLI. Saving beyond
// capacity drops the oldest result.
type MemoryResultsRepository struct {
	mu       sync.RWMutex
	results  map[uuid.UUID]*entity.ResearchResult
	order    []uuid.UUID
	capacity int
}

// NewMemoryResultsRepository builds an empty store holding up to
// DefaultMemoryCapacity results.
func NewMemoryResultsRepository() *MemoryResultsRepository {
	return NewMemoryResultsRepositoryWithCapacity(DefaultMemoryCapacity)
}

// NewMemoryResultsRepositoryWithCapacity builds an empty store holding up to
// capacity results; a non-positive capacity uses DefaultMemoryCapacity.
func NewMemoryResultsRepositoryWithCapacity(capacity int) *MemoryResultsRepository {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryResultsRepository{results: make(map[uuid.UUID]*entity.ResearchResult), capacity: capacity}
}

var _ ResultsRepository = (*MemoryResultsRepository)(nil)

func (r *MemoryResultsRepository) Save(_ context.Context, result *entity.ResearchResult) error {
	if err := validateResult(result); err != nil {
		return err
	}
	stored := *result
	stored.Contacts = slices.Clone(result.Contacts)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.results[result.ID]; !exists {
		r.order = append(r.order, result.ID)
	}
	r.results[result.ID] = &stored
	for len(r.order) > r.capacity {
		delete(r.results, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

func (r *MemoryResultsRepository) Get(_ context.Context, id uuid.UUID) (*entity.ResearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.results[id]
	if !ok {
		return nil, ErrResultNotFound
	}
	out := *result
	return &out, nil
}

// List returns the most recently saved results first.
func (r *MemoryResultsRepository) List(_ context.Context, limit int) ([]entity.ResearchSummary, error) {
	limit = clampLimit(limit)
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]entity.ResearchSummary, 0, min(limit, len(r.order)))
	for i := len(r.order) - 1; i >= 0 && len(summaries) < limit; i-- {
		summaries = append(summaries, r.results[r.order[i]].Summary())
	}
	return summaries, nil
}
