// Package memory implements the repository contracts on maps guarded by a mutex.
// It backs unit tests and the memory storage driver; data does not survive a restart.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/sampleapi/users-service/internal/repository"
)

// ConflictFunc reports whether candidate clashes with an already stored item on a unique key.
type ConflictFunc[T any] func(stored, candidate T) bool

// Store is a generic Repository[T]. Ids are assigned sequentially from 1.
type Store[T repository.Entity[T]] struct {
	mu       sync.RWMutex
	nextID   int64
	items    map[int64]T
	conflict ConflictFunc[T]
	clone    func(T) T
}

// NewStore creates an empty store. conflict and clone may be nil.
// clone should deep-copy any slices or maps T carries.
func NewStore[T repository.Entity[T]](conflict ConflictFunc[T], clone func(T) T) *Store[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Store[T]{nextID: 1, items: make(map[int64]T), conflict: conflict, clone: clone}
}

func (s *Store[T]) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

func (s *Store[T]) List(_ context.Context, p repository.Page) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	offset := max(p.Offset, 0)
	if offset >= len(ids) {
		return []T{}, nil
	}
	end := len(ids)
	if p.Limit > 0 && offset+p.Limit < end {
		end = offset + p.Limit
	}
	out := make([]T, 0, end-offset)
	for _, id := range ids[offset:end] {
		out = append(out, s.clone(s.items[id]))
	}
	return out, nil
}

func (s *Store[T]) GetByID(_ context.Context, id int64) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[id]
	if !ok {
		var zero T
		return zero, repository.ErrNotFound
	}
	return s.clone(v), nil
}

// Find returns the first stored item, in id order, matching pred.
func (s *Store[T]) Find(_ context.Context, pred func(T) bool) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		found T
		best  int64
	)
	for id, v := range s.items {
		if pred(v) && (best == 0 || id < best) {
			found, best = v, id
		}
	}
	if best == 0 {
		var zero T
		return zero, repository.ErrNotFound
	}
	return s.clone(found), nil
}

func (s *Store[T]) Create(_ context.Context, v T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkConflict(0, v); err != nil {
		var zero T
		return zero, err
	}
	v = v.WithID(s.nextID)
	s.nextID++
	s.items[v.EntityID()] = s.clone(v)
	return s.clone(v), nil
}

func (s *Store[T]) Update(_ context.Context, id int64, apply func(*T)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	current, ok := s.items[id]
	if !ok {
		return zero, repository.ErrNotFound
	}
	next := s.clone(current)
	apply(&next)
	next = next.WithID(id)
	if err := s.checkConflict(id, next); err != nil {
		return zero, err
	}
	s.items[id] = next
	return s.clone(next), nil
}

func (s *Store[T]) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// checkConflict must be called with the write lock held. self is skipped so updates
// do not clash with their own previous version.
func (s *Store[T]) checkConflict(self int64, candidate T) error {
	if s.conflict == nil {
		return nil
	}
	for id, stored := range s.items {
		if id != self && s.conflict(stored, candidate) {
			return repository.ErrAlreadyExists
		}
	}
	return nil
}
