package survey

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDatasetNotFound indicates an unknown dataset id.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrDuplicateResponse indicates a respondent already answered in a dataset.
	ErrDuplicateResponse = errors.New("respondent already submitted a response for this dataset")

	// ErrDatasetClosed indicates a submission to a dataset that is not collecting.
	ErrDatasetClosed = errors.New("dataset is not open for submissions")

	// ErrNoOpenDataset indicates that no dataset is currently collecting.
	ErrNoOpenDataset = errors.New("no dataset is currently open")
)

// Status is the collection state of a dataset.
type Status string

const (
	// StatusOpen accepts survey submissions.
	StatusOpen Status = "open"
	// StatusClosed rejects survey submissions.
	StatusClosed Status = "closed"
)

// Dataset is a named collection of responses.
//
// At most one dataset in a store is open at any time.
type Dataset struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	ClosedAt  *time.Time `json:"closedAt"`
	Responses int        `json:"responses"`
}

// Store is the observation source for the engine.
//
// Append is the administrative write path (imports, synthetic data) and
// ignores the open/closed state. Submit is the respondent path and only
// accepts writes to the open dataset.
type Store interface {
	// Create adds a dataset and makes it the open one, closing any other.
	Create(ctx context.Context, name string) (Dataset, error)
	Get(ctx context.Context, id string) (Dataset, error)
	List(ctx context.Context) ([]Dataset, error)
	Delete(ctx context.Context, id string) error

	// Open makes id the open dataset, closing any other.
	Open(ctx context.Context, id string) (Dataset, error)
	Close(ctx context.Context, id string) (Dataset, error)
	// Current returns the open dataset or ErrNoOpenDataset.
	Current(ctx context.Context) (Dataset, error)

	Append(ctx context.Context, id string, rs ...Response) error
	Submit(ctx context.Context, id string, r Response) error
	Responses(ctx context.Context, id string) ([]Response, error)
	ClearResponses(ctx context.Context, id string) (int, error)
}

type dataset struct {
	meta        Dataset
	responses   []Response
	respondents map[string]struct{}
}

// MemoryStore keeps datasets in process memory.
//
// Thread Safety: Safe for concurrent use. The single-open invariant is
// maintained under the store mutex.
type MemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]*dataset
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		datasets: make(map[string]*dataset),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create adds an empty dataset with a fresh UUID and opens it.
func (s *MemoryStore) Create(ctx context.Context, name string) (Dataset, error) {
	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.closeAllLocked(now)

	d := &dataset{
		meta: Dataset{
			ID:        uuid.NewString(),
			Name:      name,
			Status:    StatusOpen,
			CreatedAt: now,
		},
		respondents: make(map[string]struct{}),
	}
	s.datasets[d.meta.ID] = d

	return d.snapshot(), nil
}

// Get returns dataset metadata including its response count.
func (s *MemoryStore) Get(ctx context.Context, id string) (Dataset, error) {
	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.datasets[id]
	if !ok {
		return Dataset{}, fmt.Errorf("get %s: %w", id, ErrDatasetNotFound)
	}
	return d.snapshot(), nil
}

// List returns all datasets, newest first.
func (s *MemoryStore) List(ctx context.Context) ([]Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]Dataset, 0, len(s.datasets))
	for _, d := range s.datasets {
		out = append(out, d.snapshot())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a dataset and its responses.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrDatasetNotFound)
	}
	delete(s.datasets, id)
	return nil
}

// Open makes id the only open dataset. Reopening clears ClosedAt.
func (s *MemoryStore) Open(ctx context.Context, id string) (Dataset, error) {
	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.datasets[id]
	if !ok {
		return Dataset{}, fmt.Errorf("open %s: %w", id, ErrDatasetNotFound)
	}

	s.closeAllLocked(s.now())
	d.meta.Status = StatusOpen
	d.meta.ClosedAt = nil
	return d.snapshot(), nil
}

// Close stops collection for id. Closing a closed dataset keeps its
// original ClosedAt.
func (s *MemoryStore) Close(ctx context.Context, id string) (Dataset, error) {
	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.datasets[id]
	if !ok {
		return Dataset{}, fmt.Errorf("close %s: %w", id, ErrDatasetNotFound)
	}
	if d.meta.Status == StatusOpen {
		d.close(s.now())
	}
	return d.snapshot(), nil
}

// Current returns the open dataset.
func (s *MemoryStore) Current(ctx context.Context) (Dataset, error) {
	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.datasets {
		if d.meta.Status == StatusOpen {
			return d.snapshot(), nil
		}
	}
	return Dataset{}, ErrNoOpenDataset
}

// Append adds responses in order. The batch is all-or-nothing: a
// duplicate respondent id (against stored rows or within the batch)
// rejects every response with ErrDuplicateResponse. Empty respondent ids
// are never treated as duplicates.
func (s *MemoryStore) Append(ctx context.Context, id string, rs ...Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.datasets[id]
	if !ok {
		return fmt.Errorf("append to %s: %w", id, ErrDatasetNotFound)
	}
	return d.append(s.now(), id, rs)
}

// Submit appends a single respondent answer to id, which must be open.
func (s *MemoryStore) Submit(ctx context.Context, id string, r Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.datasets[id]
	if !ok {
		return fmt.Errorf("submit to %s: %w", id, ErrDatasetNotFound)
	}
	if d.meta.Status != StatusOpen {
		return fmt.Errorf("submit to %s: %w", id, ErrDatasetClosed)
	}
	return d.append(s.now(), id, []Response{r})
}

// Responses returns a copy of a dataset's responses in insertion order.
func (s *MemoryStore) Responses(ctx context.Context, id string) ([]Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.datasets[id]
	if !ok {
		return nil, fmt.Errorf("responses of %s: %w", id, ErrDatasetNotFound)
	}

	out := make([]Response, len(d.responses))
	copy(out, d.responses)
	return out, nil
}

// ClearResponses drops every response of id and forgets its respondents.
// Returns the number removed.
func (s *MemoryStore) ClearResponses(ctx context.Context, id string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.datasets[id]
	if !ok {
		return 0, fmt.Errorf("clear %s: %w", id, ErrDatasetNotFound)
	}

	n := len(d.responses)
	d.responses = nil
	d.respondents = make(map[string]struct{})
	return n, nil
}

// closeAllLocked closes every open dataset. Caller holds s.mu.
func (s *MemoryStore) closeAllLocked(now time.Time) {
	for _, d := range s.datasets {
		if d.meta.Status == StatusOpen {
			d.close(now)
		}
	}
}

func (d *dataset) close(now time.Time) {
	closedAt := now
	d.meta.Status = StatusClosed
	d.meta.ClosedAt = &closedAt
}

func (d *dataset) append(now time.Time, id string, rs []Response) error {
	seen := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		if r.RespondentID == "" {
			continue
		}
		_, stored := d.respondents[r.RespondentID]
		_, batched := seen[r.RespondentID]
		if stored || batched {
			return fmt.Errorf("append %s to %s: %w", r.RespondentID, id, ErrDuplicateResponse)
		}
		seen[r.RespondentID] = struct{}{}
	}

	for rid := range seen {
		d.respondents[rid] = struct{}{}
	}
	for _, r := range rs {
		r.ReceivedAt = now
		d.responses = append(d.responses, r)
	}
	return nil
}

func (d *dataset) snapshot() Dataset {
	meta := d.meta
	meta.Responses = len(d.responses)
	return meta
}
