package school

import (
	"context"
	"sort"
	"sync"

	"schoolhub/pkg/platform/sentinel"
)

type MemoryStudentStore struct {
	mu       sync.RWMutex
	students map[string]*Student
}

func NewMemoryStudentStore() *MemoryStudentStore {
	return &MemoryStudentStore{students: make(map[string]*Student)}
}

func (s *MemoryStudentStore) Create(_ context.Context, st *Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	s.students[st.ID] = &cp
	return nil
}

func (s *MemoryStudentStore) FindByID(_ context.Context, id string) (*Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *MemoryStudentStore) Update(_ context.Context, st *Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[st.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *st
	s.students[st.ID] = &cp
	return nil
}

func (s *MemoryStudentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.students, id)
	return nil
}

func (s *MemoryStudentStore) List(_ context.Context) ([]Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

type MemoryClassStore struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

func NewMemoryClassStore() *MemoryClassStore {
	return &MemoryClassStore{classes: make(map[string]*Class)}
}

func (s *MemoryClassStore) Create(_ context.Context, c *Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.classes[c.ID] = &cp
	return nil
}

func (s *MemoryClassStore) FindByID(_ context.Context, id string) (*Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classes[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryClassStore) Update(_ context.Context, c *Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *c
	s.classes[c.ID] = &cp
	return nil
}

func (s *MemoryClassStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.classes, id)
	return nil
}

func (s *MemoryClassStore) List(_ context.Context) ([]Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Class, 0, len(s.classes))
	for _, c := range s.classes {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type MemoryNoticeStore struct {
	mu      sync.RWMutex
	notices []Notice
}

func NewMemoryNoticeStore() *MemoryNoticeStore {
	return &MemoryNoticeStore{}
}

func (s *MemoryNoticeStore) Create(_ context.Context, n *Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, *n)
	return nil
}

func (s *MemoryNoticeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notices {
		if n.ID == id {
			s.notices = append(s.notices[:i], s.notices[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *MemoryNoticeStore) List(_ context.Context) ([]Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notice, 0, len(s.notices))
	for i := len(s.notices) - 1; i >= 0; i-- {
		out = append(out, s.notices[i])
	}
	return out, nil
}

var (
	_ StudentStore = (*MemoryStudentStore)(nil)
	_ ClassStore   = (*MemoryClassStore)(nil)
	_ NoticeStore  = (*MemoryNoticeStore)(nil)
)
