package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/usecase"
)

// RecordStore 以 map 保存一種受管控資源，存取時複製值避免外部修改
type RecordStore[T any, PT domain.RecordPtr[T]] struct {
	mu     sync.RWMutex
	items  map[int64]T
	lastID int64
}

func NewRecordStore[T any, PT domain.RecordPtr[T]]() *RecordStore[T, PT] {
	return &RecordStore[T, PT]{items: make(map[int64]T)}
}

func (s *RecordStore[T, PT]) Create(ctx context.Context, rec *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	PT(rec).SetID(s.lastID)
	s.items[s.lastID] = *rec
	return nil
}

func (s *RecordStore[T, PT]) Get(ctx context.Context, id int64) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (s *RecordStore[T, PT]) Update(ctx context.Context, rec *T) error {
	id := PT(rec).GetID()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return domain.ErrNotFound
	}
	s.items[id] = *rec
	return nil
}

func (s *RecordStore[T, PT]) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *RecordStore[T, PT]) ListByOwner(ctx context.Context, ownerID int64) ([]T, error) {
	return s.list(func(rec *T) bool { return PT(rec).GetOwnerID() == ownerID }), nil
}

func (s *RecordStore[T, PT]) ListAll(ctx context.Context) ([]T, error) {
	return s.list(func(*T) bool { return true }), nil
}

func (s *RecordStore[T, PT]) list(match func(rec *T) bool) []T {
	s.mu.RLock()
	result := make([]T, 0, len(s.items))
	for _, rec := range s.items {
		if match(&rec) {
			result = append(result, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return PT(&result[i]).GetID() < PT(&result[j]).GetID()
	})
	return result
}

var _ usecase.RecordStore[domain.Todo] = (*RecordStore[domain.Todo, *domain.Todo])(nil)
