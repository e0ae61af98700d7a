package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-office-ledger/pkg/wal"
)

// EmployeeStore 記憶體版員工目錄
// wal 不為 nil 時每次新增/修改都寫入完整快照，重啟後依序重播
type EmployeeStore struct {
	mu      sync.RWMutex
	byID    map[int64]domain.Employee
	byEmail map[string]int64
	lastID  int64
	wal     *wal.WAL
}

func NewEmployeeStore() *EmployeeStore {
	return &EmployeeStore{
		byID:    make(map[int64]domain.Employee),
		byEmail: make(map[string]int64),
	}
}

// NewPersistentEmployeeStore 建立以 WAL 保存的員工目錄並從 WAL 恢復
func NewPersistentEmployeeStore(w *wal.WAL) (*EmployeeStore, error) {
	s := NewEmployeeStore()
	s.wal = w
	err := w.ReadAll(func(raw json.RawMessage) error {
		var employee domain.Employee
		if err := json.Unmarshal(raw, &employee); err != nil {
			return fmt.Errorf("decode employee wal entry: %w", err)
		}
		s.apply(employee)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ReserveIDs 確保之後配發的 ID 大於 maxID
// 帳本從 WAL 恢復的員工 ID 不能再配給新員工
func (s *EmployeeStore) ReserveIDs(maxID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if maxID > s.lastID {
		s.lastID = maxID
	}
}

// apply 以快照覆蓋，呼叫端持有鎖
func (s *EmployeeStore) apply(employee domain.Employee) {
	if old, ok := s.byID[employee.ID]; ok && old.Email != employee.Email {
		delete(s.byEmail, old.Email)
	}
	s.byID[employee.ID] = employee
	s.byEmail[employee.Email] = employee.ID
	if employee.ID > s.lastID {
		s.lastID = employee.ID
	}
}

func (s *EmployeeStore) persist(employee *domain.Employee) error {
	if s.wal == nil {
		return nil
	}
	if err := s.wal.Write(employee); err != nil {
		return domain.StorageError("write employee wal", err)
	}
	return nil
}

func (s *EmployeeStore) Create(ctx context.Context, employee *domain.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[employee.Email]; ok {
		return fmt.Errorf("%w: email %s already registered", domain.ErrConflict, employee.Email)
	}
	employee.ID = s.lastID + 1
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = time.Now().UTC()
	}
	if err := s.persist(employee); err != nil {
		employee.ID = 0
		return err
	}
	s.apply(*employee)
	return nil
}

// Update 覆蓋既有員工，email 與其他員工重複回傳 domain.ErrConflict
func (s *EmployeeStore) Update(ctx context.Context, employee *domain.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[employee.ID]; !ok {
		return domain.ErrNotFound
	}
	if id, ok := s.byEmail[employee.Email]; ok && id != employee.ID {
		return fmt.Errorf("%w: email %s already registered", domain.ErrConflict, employee.Email)
	}
	if err := s.persist(employee); err != nil {
		return err
	}
	s.apply(*employee)
	return nil
}

func (s *EmployeeStore) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	employee, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &employee, nil
}

func (s *EmployeeStore) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	employee := s.byID[id]
	return &employee, nil
}

func (s *EmployeeStore) List(ctx context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	employees := make([]domain.Employee, 0, len(s.byID))
	for _, e := range s.byID {
		employees = append(employees, e)
	}
	s.mu.RUnlock()
	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })
	return employees, nil
}

var _ usecase.EmployeeStore = (*EmployeeStore)(nil)
