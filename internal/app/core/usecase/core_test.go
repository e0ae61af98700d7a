package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-office-ledger/pkg/keylock"
)

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func withdrawal(employeeID int64, amt string) usecase.RecordTransactionCommand {
	return usecase.RecordTransactionCommand{
		EmployeeID:      employeeID,
		Kind:            domain.TransactionKindWithdrawal,
		Amount:          amount(amt),
		TransactionDate: day,
		PaymentMethod:   "cash",
	}
}

func refund(employeeID int64, amt string) usecase.RecordTransactionCommand {
	cmd := withdrawal(employeeID, amt)
	cmd.Kind = domain.TransactionKindRefund
	return cmd
}

// newMemoryLedger 建立只有一位員工 (ID 1) 的記憶體帳本
func newMemoryLedger(t *testing.T) *memory.MutexLedger {
	t.Helper()
	employees := memory.NewEmployeeStore()
	require.NoError(t, employees.Create(context.Background(), &domain.Employee{Name: "Alice", Email: "alice@example.com", Role: domain.RoleEmployee, Active: true}))
	ledger, err := memory.NewMutexLedger(employees, nil)
	require.NoError(t, err)
	return ledger
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.LedgerEntryRecorded
	keys   []string
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event.(domain.LedgerEntryRecorded))
	p.keys = append(p.keys, key)
	return nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	recorded  map[string]int
	conflicts int
}

func (m *fakeMetrics) TransactionRecorded(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recorded == nil {
		m.recorded = make(map[string]int)
	}
	m.recorded[kind]++
}

func (m *fakeMetrics) ConflictDetected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

type recordingLocker struct {
	keys []string
}

func (l *recordingLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.keys = append(l.keys, key)
	return fn(ctx)
}

// conflictingLedger 前 failures 次 AppendEntry 回傳 ErrConflict
type conflictingLedger struct {
	usecase.Ledger
	failures int
	calls    int
}

func (l *conflictingLedger) AppendEntry(ctx context.Context, employeeID int64, build usecase.BuildEntryFunc) (*domain.LedgerEntry, error) {
	l.calls++
	if l.calls <= l.failures {
		return nil, fmt.Errorf("%w: duplicate sequence", domain.ErrConflict)
	}
	return l.Ledger.AppendEntry(ctx, employeeID, build)
}

func TestRecordTransactionRunningBalance(t *testing.T) {
	ctx := context.Background()
	core := usecase.NewCoreUseCase(newMemoryLedger(t))

	first, err := core.RecordTransaction(ctx, withdrawal(1, "100"))
	require.NoError(t, err)
	assert.Equal(t, "-100.00", first.BalanceAfter.StringFixed(2))
	assert.Equal(t, uint64(1), first.Sequence)
	assert.Regexp(t, `^WIT-[0-9a-f]{8}$`, first.InvoiceNo)

	second, err := core.RecordTransaction(ctx, refund(1, "40"))
	require.NoError(t, err)
	assert.Equal(t, "-60.00", second.BalanceAfter.StringFixed(2))
	assert.Equal(t, uint64(2), second.Sequence)
	assert.Regexp(t, `^REF-[0-9a-f]{8}$`, second.InvoiceNo)

	balance, err := core.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "-60.00", balance.StringFixed(2))
}

func TestRecordTransactionValidation(t *testing.T) {
	core := usecase.NewCoreUseCase(newMemoryLedger(t))

	tests := []struct {
		name  string
		cmd   func() usecase.RecordTransactionCommand
		field string
	}{
		{name: "missing employee", field: "employee_id", cmd: func() usecase.RecordTransactionCommand { return withdrawal(0, "1") }},
		{name: "missing amount", field: "amount", cmd: func() usecase.RecordTransactionCommand {
			cmd := withdrawal(1, "1")
			cmd.Amount = nil
			return cmd
		}},
		{name: "negative amount", field: "amount", cmd: func() usecase.RecordTransactionCommand { return withdrawal(1, "-5") }},
		{name: "missing date", field: "transaction_date", cmd: func() usecase.RecordTransactionCommand {
			cmd := withdrawal(1, "1")
			cmd.TransactionDate = time.Time{}
			return cmd
		}},
		{name: "missing payment method", field: "payment_method", cmd: func() usecase.RecordTransactionCommand {
			cmd := withdrawal(1, "1")
			cmd.PaymentMethod = "  "
			return cmd
		}},
		{name: "unknown kind", field: "kind", cmd: func() usecase.RecordTransactionCommand {
			cmd := withdrawal(1, "1")
			cmd.Kind = 9
			return cmd
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.RecordTransaction(context.Background(), tt.cmd())
			require.ErrorIs(t, err, domain.ErrValidation)
			var fieldErr *domain.FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}

	balance, err := core.GetBalance(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "rejected requests must not write entries")
}

func TestRecordTransactionUnknownEmployee(t *testing.T) {
	core := usecase.NewCoreUseCase(newMemoryLedger(t))
	_, err := core.RecordTransaction(context.Background(), withdrawal(42, "10"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordTransactionZeroAmount(t *testing.T) {
	core := usecase.NewCoreUseCase(newMemoryLedger(t))
	entry, err := core.RecordTransaction(context.Background(), withdrawal(1, "0"))
	require.NoError(t, err)
	assert.True(t, entry.BalanceAfter.IsZero())

	list, err := core.ListTransactions(context.Background(), 1, domain.TransactionKindWithdrawal)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecordTransactionConcurrentSameEmployee(t *testing.T) {
	ctx := context.Background()
	core := usecase.NewCoreUseCase(newMemoryLedger(t), usecase.WithLocker(keylock.New()))

	const n = 100
	var wg sync.WaitGroup
	entries := make([]*domain.LedgerEntry, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entries[i], errs[i] = core.RecordTransaction(ctx, withdrawal(1, "1"))
		}(i)
	}
	wg.Wait()

	balances := make(map[string]struct{}, n)
	sequences := make(map[uint64]struct{}, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		balances[entries[i].BalanceAfter.String()] = struct{}{}
		sequences[entries[i].Sequence] = struct{}{}
	}
	assert.Len(t, balances, n, "every entry must see a distinct running balance")
	assert.Len(t, sequences, n)

	balance, err := core.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "-100.00", balance.StringFixed(2))
}

func TestRecordTransactionRetriesOnceOnConflict(t *testing.T) {
	ledger := &conflictingLedger{Ledger: newMemoryLedger(t), failures: 1}
	metrics := &fakeMetrics{}
	core := usecase.NewCoreUseCase(ledger, usecase.WithMetrics(metrics))

	entry, err := core.RecordTransaction(context.Background(), withdrawal(1, "5"))
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.calls)
	assert.Equal(t, "-5.00", entry.BalanceAfter.StringFixed(2))
	assert.Equal(t, 1, metrics.conflicts)
	assert.Equal(t, 1, metrics.recorded["withdrawal"])
}

func TestRecordTransactionSurfacesRepeatedConflict(t *testing.T) {
	ledger := &conflictingLedger{Ledger: newMemoryLedger(t), failures: 2}
	core := usecase.NewCoreUseCase(ledger)

	_, err := core.RecordTransaction(context.Background(), withdrawal(1, "5"))
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 2, ledger.calls)

	balance, err := core.GetBalance(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestRecordTransactionPublishesEvent(t *testing.T) {
	publisher := &fakePublisher{}
	locker := &recordingLocker{}
	core := usecase.NewCoreUseCase(newMemoryLedger(t), usecase.WithPublisher(publisher), usecase.WithLocker(locker))

	entry, err := core.RecordTransaction(context.Background(), refund(1, "12.5"))
	require.NoError(t, err)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, "1", publisher.keys[0])
	assert.Equal(t, entry.InvoiceNo, event.InvoiceNo)
	assert.Equal(t, "refund", event.Kind)
	assert.True(t, event.BalanceAfter.Equal(entry.BalanceAfter))
	assert.Equal(t, []string{"lock:ledger:employee:1"}, locker.keys)
}

func TestRecordTransactionPublishFailureDoesNotFail(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("broker down")}
	core := usecase.NewCoreUseCase(newMemoryLedger(t), usecase.WithPublisher(publisher))

	_, err := core.RecordTransaction(context.Background(), withdrawal(1, "1"))
	require.NoError(t, err)

	balance, err := core.GetBalance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "-1.00", balance.StringFixed(2))
}

func TestListTransactionsOrdering(t *testing.T) {
	ctx := context.Background()
	core := usecase.NewCoreUseCase(newMemoryLedger(t))

	later := withdrawal(1, "1")
	later.TransactionDate = day.AddDate(0, 0, 5)
	earlier := withdrawal(1, "2")
	earlier.TransactionDate = day.AddDate(0, 0, -5)
	sameDay := withdrawal(1, "3")

	for _, cmd := range []usecase.RecordTransactionCommand{later, earlier, sameDay, refund(1, "9")} {
		_, err := core.RecordTransaction(ctx, cmd)
		require.NoError(t, err)
	}

	withdrawals, err := core.ListTransactions(ctx, 1, domain.TransactionKindWithdrawal)
	require.NoError(t, err)
	require.Len(t, withdrawals, 3)
	assert.Equal(t, "2", withdrawals[0].Amount.String())
	assert.Equal(t, "3", withdrawals[1].Amount.String())
	assert.Equal(t, "1", withdrawals[2].Amount.String())

	refunds, err := core.ListTransactions(ctx, 1, domain.TransactionKindRefund)
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, "9", refunds[0].Amount.String())
}

func TestGetBalanceWithoutEntries(t *testing.T) {
	core := usecase.NewCoreUseCase(newMemoryLedger(t))
	balance, err := core.GetBalance(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	_, err = core.GetBalance(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
