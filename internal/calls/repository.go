package calls

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for call storage.
type Repository interface {
	Create(ctx context.Context, patientID string) (*Call, error)
	GetByID(ctx context.Context, id string) (*Call, error)
	Update(ctx context.Context, id string, update Update) (*Call, error)
	List(ctx context.Context) ([]*Call, error)
}

// InMemoryRepository is an in-memory implementation of Repository used in
// tests and local development.
type InMemoryRepository struct {
	mu    sync.RWMutex
	calls map[string]*Call
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		calls: make(map[string]*Call),
	}
}

// Create creates a new call in pending status.
func (r *InMemoryRepository) Create(ctx context.Context, patientID string) (*Call, error) {
	if patientID == "" {
		return nil, ErrMissingPatientID
	}

	call := &Call{
		ID:        uuid.New().String(),
		PatientID: patientID,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.calls[call.ID] = call
	r.mu.Unlock()

	return call, nil
}

// GetByID retrieves a call by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	call, ok := r.calls[id]
	if !ok {
		return nil, ErrCallNotFound
	}
	copied := *call
	return &copied, nil
}

// Update applies the non-nil fields of update to the call.
func (r *InMemoryRepository) Update(ctx context.Context, id string, update Update) (*Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	call, ok := r.calls[id]
	if !ok {
		return nil, ErrCallNotFound
	}
	if update.Status != nil {
		call.Status = *update.Status
	}
	if update.AudioURL != nil {
		call.AudioURL = update.AudioURL
	}
	if update.Transcript != nil {
		call.Transcript = update.Transcript
	}
	if update.SentimentLabel != nil {
		call.SentimentLabel = update.SentimentLabel
	}
	copied := *call
	return &copied, nil
}

// List returns all calls, newest first.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Call, 0, len(r.calls))
	for _, call := range r.calls {
		copied := *call
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
