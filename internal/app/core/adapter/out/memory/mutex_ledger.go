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

// EmployeeChecker 確認員工是否存在
type EmployeeChecker interface {
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
}

// account 單一員工的分錄，mu 序列化同一員工的寫入
type account struct {
	mu      sync.Mutex
	entries []domain.LedgerEntry
}

// MutexLedger 是一個使用 Mutex 實現的帳本
//
// 結構:
//
//	accounts: 員工 ID 對應的分錄，每個員工各自一把鎖，不同員工可以並行寫入
//	mu: 保護 accounts / invoices / lastID
//	employees: 確認員工存在，nil 時不檢查
//	wal: Write-Ahead Log 實例，nil 時只存在記憶體
type MutexLedger struct {
	accounts  map[int64]*account
	invoices  map[string]struct{}
	lastID    int64
	mu        sync.RWMutex
	employees EmployeeChecker
	wal       *wal.WAL
	now       func() time.Time
}

// NewMutexLedger 建立一個新的 MutexLedger 實例並從 WAL 恢復
//
// 參數:
//
//	employees: 員工目錄 (可為 nil)
//	wal: Write-Ahead Log 實例 (可為 nil)
//
// 回傳:
//
//	*MutexLedger: MutexLedger 實例
//	error: WAL 恢復失敗
func NewMutexLedger(employees EmployeeChecker, wal *wal.WAL) (*MutexLedger, error) {
	ledger := &MutexLedger{
		accounts:  make(map[int64]*account),
		invoices:  make(map[string]struct{}),
		employees: employees,
		wal:       wal,
		now:       time.Now,
	}
	if wal != nil {
		if err := ledger.recoverFromWAL(); err != nil {
			return nil, err
		}
	}
	return ledger, nil
}

// recoverFromWAL 依寫入順序重播分錄，只有建構時呼叫
func (m *MutexLedger) recoverFromWAL() error {
	return m.wal.ReadAll(func(raw json.RawMessage) error {
		var entry domain.LedgerEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("decode wal entry: %w", err)
		}
		acc := m.accountFor(entry.EmployeeID)
		acc.entries = append(acc.entries, entry)
		m.invoices[entry.InvoiceNo] = struct{}{}
		if entry.ID > m.lastID {
			m.lastID = entry.ID
		}
		return nil
	})
}

// MaxEmployeeID 帳本中出現過的最大員工 ID，沒有分錄時為 0
func (m *MutexLedger) MaxEmployeeID() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var maxID int64
	for id := range m.accounts {
		if id > maxID {
			maxID = id
		}
	}
	return maxID
}

func (m *MutexLedger) accountFor(employeeID int64) *account {
	m.mu.RLock()
	acc, ok := m.accounts[employeeID]
	m.mu.RUnlock()
	if ok {
		return acc
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok = m.accounts[employeeID]; !ok {
		acc = &account{}
		m.accounts[employeeID] = acc
	}
	return acc
}

// AppendEntry 持有員工鎖: 讀最新分錄 → build → 寫 WAL → 寫入記憶體
func (m *MutexLedger) AppendEntry(ctx context.Context, employeeID int64, build usecase.BuildEntryFunc) (*domain.LedgerEntry, error) {
	if m.employees != nil {
		if _, err := m.employees.GetByID(ctx, employeeID); err != nil {
			return nil, err
		}
	}

	acc := m.accountFor(employeeID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var prev *domain.LedgerEntry
	if n := len(acc.entries); n > 0 {
		last := acc.entries[n-1]
		prev = &last
	}
	entry, err := build(prev)
	if err != nil {
		return nil, err
	}
	if entry.Sequence != domain.NextSequence(prev) {
		return nil, fmt.Errorf("%w: sequence %d already taken", domain.ErrConflict, entry.Sequence)
	}

	m.mu.Lock()
	if _, dup := m.invoices[entry.InvoiceNo]; dup {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: invoice %s already exists", domain.ErrConflict, entry.InvoiceNo)
	}
	m.lastID++
	entry.ID = m.lastID
	m.invoices[entry.InvoiceNo] = struct{}{}
	m.mu.Unlock()

	entry.EmployeeID = employeeID
	entry.CreatedAt = m.now().UTC()

	if m.wal != nil {
		if err := m.wal.Write(entry); err != nil {
			m.mu.Lock()
			delete(m.invoices, entry.InvoiceNo)
			m.mu.Unlock()
			return nil, domain.StorageError("write wal", err)
		}
	}
	acc.entries = append(acc.entries, *entry)
	return entry, nil
}

// LatestEntry 取得最新一筆分錄 (依寫入順序)
func (m *MutexLedger) LatestEntry(ctx context.Context, employeeID int64) (*domain.LedgerEntry, error) {
	m.mu.RLock()
	acc, ok := m.accounts[employeeID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	if len(acc.entries) == 0 {
		return nil, nil
	}
	last := acc.entries[len(acc.entries)-1]
	return &last, nil
}

// ListEntries 列出某類型金額 > 0 的分錄，依交易日期遞增，同日依寫入順序
func (m *MutexLedger) ListEntries(ctx context.Context, employeeID int64, kind domain.TransactionKind) ([]domain.LedgerEntry, error) {
	result := make([]domain.LedgerEntry, 0)
	m.mu.RLock()
	acc, ok := m.accounts[employeeID]
	m.mu.RUnlock()
	if !ok {
		return result, nil
	}

	acc.mu.Lock()
	for _, entry := range acc.entries {
		if entry.AmountFor(kind).IsPositive() {
			result = append(result, entry)
		}
	}
	acc.mu.Unlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TransactionDate.Before(result[j].TransactionDate)
	})
	return result, nil
}

var _ usecase.Ledger = (*MutexLedger)(nil)
