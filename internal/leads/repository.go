package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, userID, id string) (*Lead, error)
	ListByUser(ctx context.Context, userID string, filter ListLeadsFilter) ([]*Lead, error)
	ListAll(ctx context.Context) ([]*Lead, error)
	Update(ctx context.Context, userID, id string, req *UpdateLeadRequest) (*Lead, error)
	Delete(ctx context.Context, userID, id string) error
}

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
	order map[string]uint64
	seq   uint64
	now   func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
		order: make(map[string]uint64),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create creates a new lead in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := NewTimestamp(r.now())
	lead := &Lead{
		ID:             uuid.New().String(),
		UserID:         req.UserID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
		Status:         req.Status,
		Score:          req.Score,
		PotentialValue: req.PotentialValue,
		LeadType:       req.LeadType,
		Urgency:        req.Urgency,
		Notes:          req.Notes,
		Tags:           append([]string(nil), req.Tags...),
		NextFollowupAt: req.NextFollowupAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	r.mu.Lock()
	r.seq++
	r.leads[lead.ID] = lead
	r.order[lead.ID] = r.seq
	r.mu.Unlock()

	return cloneLead(lead), nil
}

// GetByID retrieves a lead owned by userID
func (r *InMemoryRepository) GetByID(ctx context.Context, userID, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok || lead.UserID != userID {
		return nil, ErrLeadNotFound
	}
	return cloneLead(lead), nil
}

// ListByUser returns the user's leads, oldest first.
func (r *InMemoryRepository) ListByUser(ctx context.Context, userID string, filter ListLeadsFilter) ([]*Lead, error) {
	status := NormalizeStatus(filter.Status)

	r.mu.RLock()
	out := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		if lead.UserID != userID {
			continue
		}
		if status != "" && NormalizeStatus(lead.Status) != status {
			continue
		}
		out = append(out, cloneLead(lead))
	}
	r.sortByInsertion(out)
	r.mu.RUnlock()

	return paginate(out, filter.Offset, filter.Limit), nil
}

// ListAll returns every lead across users, oldest first.
func (r *InMemoryRepository) ListAll(ctx context.Context) ([]*Lead, error) {
	r.mu.RLock()
	out := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		out = append(out, cloneLead(lead))
	}
	r.sortByInsertion(out)
	r.mu.RUnlock()

	return out, nil
}

// Update applies a partial update.
func (r *InMemoryRepository) Update(ctx context.Context, userID, id string, req *UpdateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok || lead.UserID != userID {
		return nil, ErrLeadNotFound
	}
	req.Apply(lead, r.now())
	return cloneLead(lead), nil
}

// Delete removes a lead.
func (r *InMemoryRepository) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok || lead.UserID != userID {
		return ErrLeadNotFound
	}
	delete(r.leads, id)
	delete(r.order, id)
	return nil
}

func cloneLead(l *Lead) *Lead {
	c := *l
	c.Tags = append([]string(nil), l.Tags...)
	return &c
}

// sortByInsertion orders leads oldest first. Callers hold r.mu.
func (r *InMemoryRepository) sortByInsertion(list []*Lead) {
	sort.Slice(list, func(i, j int) bool {
		return r.order[list[i].ID] < r.order[list[j].ID]
	})
}

func paginate(list []*Lead, offset, limit int) []*Lead {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return []*Lead{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// SetClock overrides the time source used for created/updated stamps.
func (r *InMemoryRepository) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}
