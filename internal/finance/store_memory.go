package finance

import (
	"context"
	"sort"
	"sync"

	"schoolhub/pkg/platform/sentinel"
)

// MemoryExpenseStore keeps expenses in memory for tests and local runs.
type MemoryExpenseStore struct {
	mu       sync.RWMutex
	expenses map[string]*Expense
}

func NewMemoryExpenseStore() *MemoryExpenseStore {
	return &MemoryExpenseStore{expenses: make(map[string]*Expense)}
}

func (s *MemoryExpenseStore) Create(_ context.Context, e *Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.expenses[e.ID] = &cp
	return nil
}

func (s *MemoryExpenseStore) FindByID(_ context.Context, id string) (*Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryExpenseStore) Update(_ context.Context, e *Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[e.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *e
	s.expenses[e.ID] = &cp
	return nil
}

func (s *MemoryExpenseStore) List(_ context.Context, filter ExpenseFilter) ([]Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Expense
	for _, e := range s.expenses {
		if e.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.Month != "" && e.IncurredOn.Format("2006-01") != filter.Month {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IncurredOn.After(out[j].IncurredOn) })
	return out, nil
}

// MemoryWaiverStore keeps fee waivers in memory.
type MemoryWaiverStore struct {
	mu      sync.RWMutex
	waivers map[string]*FeeWaiver
}

func NewMemoryWaiverStore() *MemoryWaiverStore {
	return &MemoryWaiverStore{waivers: make(map[string]*FeeWaiver)}
}

func (s *MemoryWaiverStore) Create(_ context.Context, w *FeeWaiver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *w
	s.waivers[w.ID] = &cp
	return nil
}

func (s *MemoryWaiverStore) FindByID(_ context.Context, id string) (*FeeWaiver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.waivers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *MemoryWaiverStore) Update(_ context.Context, w *FeeWaiver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.waivers[w.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *w
	s.waivers[w.ID] = &cp
	return nil
}

func (s *MemoryWaiverStore) List(_ context.Context, filter WaiverFilter) ([]FeeWaiver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []FeeWaiver
	for _, w := range s.waivers {
		if w.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.StudentID != "" && w.StudentID != filter.StudentID {
			continue
		}
		if filter.Term != "" && w.Term != filter.Term {
			continue
		}
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MemoryCollectionStore keeps fee collections in memory.
type MemoryCollectionStore struct {
	mu          sync.RWMutex
	collections []Collection
}

func NewMemoryCollectionStore() *MemoryCollectionStore {
	return &MemoryCollectionStore{}
}

func (s *MemoryCollectionStore) Create(_ context.Context, c *Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = append(s.collections, *c)
	return nil
}

func (s *MemoryCollectionStore) List(_ context.Context, filter CollectionFilter) ([]Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Collection
	for _, c := range s.collections {
		if filter.StudentID != "" && c.StudentID != filter.StudentID {
			continue
		}
		if filter.Month != "" && c.ReceivedOn.Format("2006-01") != filter.Month {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedOn.After(out[j].ReceivedOn) })
	return out, nil
}

var (
	_ ExpenseStore    = (*MemoryExpenseStore)(nil)
	_ WaiverStore     = (*MemoryWaiverStore)(nil)
	_ CollectionStore = (*MemoryCollectionStore)(nil)
)
