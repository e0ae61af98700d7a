package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
)

// maxAppendAttempts 衝突時只重試一次
const maxAppendAttempts = 2

// RecordTransactionCommand 記帳請求
type RecordTransactionCommand struct {
	EmployeeID      int64
	Kind            domain.TransactionKind
	Amount          *decimal.Decimal
	TransactionDate time.Time
	PaymentMethod   string
}

// Validate 必要欄位檢查
func (c *RecordTransactionCommand) Validate() error {
	if c.EmployeeID <= 0 {
		return domain.NewFieldError("employee_id", "employee id is required")
	}
	if !c.Kind.Valid() {
		return domain.NewFieldError("kind", "unknown transaction kind")
	}
	if c.Amount == nil {
		return domain.NewFieldError("amount", "amount is required")
	}
	if c.Amount.IsNegative() {
		return domain.NewFieldError("amount", "amount must not be negative")
	}
	if c.TransactionDate.IsZero() {
		return domain.NewFieldError("transaction_date", "transaction date is required")
	}
	if strings.TrimSpace(c.PaymentMethod) == "" {
		return domain.NewFieldError("payment_method", "payment method is required")
	}
	return nil
}

// CoreUseCase 是核心業務邏輯層 (員工帳戶分錄)
type CoreUseCase struct {
	ledger    Ledger
	locker    Locker
	publisher EventPublisher
	metrics   LedgerMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// CoreOption 設定 CoreUseCase 的選項
type CoreOption func(*CoreUseCase)

// WithLocker 寫入前先取得員工層級的鎖 (例如 Redis RedLock)
func WithLocker(locker Locker) CoreOption {
	return func(c *CoreUseCase) {
		c.locker = locker
	}
}

// WithPublisher 寫入成功後發布事件
func WithPublisher(publisher EventPublisher) CoreOption {
	return func(c *CoreUseCase) {
		c.publisher = publisher
	}
}

// WithMetrics 記錄帳務指標
func WithMetrics(metrics LedgerMetrics) CoreOption {
	return func(c *CoreUseCase) {
		c.metrics = metrics
	}
}

// WithLogger 設定 logger
func WithLogger(logger *zap.Logger) CoreOption {
	return func(c *CoreUseCase) {
		c.logger = logger
	}
}

// WithClock 替換時間來源，測試用
func WithClock(now func() time.Time) CoreOption {
	return func(c *CoreUseCase) {
		c.now = now
	}
}

func NewCoreUseCase(ledger Ledger, opts ...CoreOption) *CoreUseCase {
	c := &CoreUseCase{
		ledger: ledger,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RecordTransaction 記錄一筆提款或退款並回傳含新餘額與發票號碼的分錄
//
// 參數:
//
//	ctx: 上下文
//	cmd: 記帳請求
//
// 回傳:
//
//	*domain.LedgerEntry: 寫入後的分錄
//	error: ErrValidation / ErrNotFound / ErrConflict / ErrStorage
func (c *CoreUseCase) RecordTransaction(ctx context.Context, cmd RecordTransactionCommand) (*domain.LedgerEntry, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var entry *domain.LedgerEntry
	appendFn := func(ctx context.Context) error {
		var err error
		entry, err = c.appendWithRetry(ctx, cmd)
		return err
	}

	var err error
	if c.locker != nil {
		err = c.locker.WithLock(ctx, employeeLockKey(cmd.EmployeeID), appendFn)
	} else {
		err = appendFn(ctx)
	}
	if err != nil {
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.TransactionRecorded(entry.Kind.String())
	}
	c.logger.Info("ledger entry recorded",
		zap.Int64("employee_id", entry.EmployeeID),
		zap.String("invoice_no", entry.InvoiceNo),
		zap.String("kind", entry.Kind.String()),
		zap.String("amount", entry.Amount.String()),
		zap.String("balance", entry.BalanceAfter.String()),
	)
	c.publish(ctx, entry)
	return entry, nil
}

// appendWithRetry 偵測到衝突時重試一次，第二次仍衝突則回傳 ErrConflict
func (c *CoreUseCase) appendWithRetry(ctx context.Context, cmd RecordTransactionCommand) (*domain.LedgerEntry, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		entry, err := c.ledger.AppendEntry(ctx, cmd.EmployeeID, func(prev *domain.LedgerEntry) (*domain.LedgerEntry, error) {
			return &domain.LedgerEntry{
				EmployeeID:      cmd.EmployeeID,
				Sequence:        domain.NextSequence(prev),
				Kind:            cmd.Kind,
				Amount:          *cmd.Amount,
				TransactionDate: cmd.TransactionDate,
				InvoiceNo:       domain.NewInvoiceNumber(cmd.Kind),
				BalanceAfter:    domain.NextBalance(prev, cmd.Kind, *cmd.Amount),
				PaymentMethod:   strings.TrimSpace(cmd.PaymentMethod),
			}, nil
		})
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		if c.metrics != nil {
			c.metrics.ConflictDetected()
		}
		c.logger.Warn("ledger append conflict",
			zap.Int64("employee_id", cmd.EmployeeID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		lastErr = err
	}
	return nil, lastErr
}

func (c *CoreUseCase) publish(ctx context.Context, entry *domain.LedgerEntry) {
	if c.publisher == nil {
		return
	}
	event := domain.NewLedgerEntryRecorded(entry, c.now())
	if err := c.publisher.Publish(ctx, domain.TopicLedgerEntryRecorded, event.Key(), event); err != nil {
		// 分錄已提交，事件失敗只記錄
		c.logger.Error("publish ledger event failed",
			zap.String("invoice_no", entry.InvoiceNo),
			zap.Error(err),
		)
	}
}

// ListTransactions 列出員工某類型的分錄 (金額 > 0)，依交易日期遞增
func (c *CoreUseCase) ListTransactions(ctx context.Context, employeeID int64, kind domain.TransactionKind) ([]domain.LedgerEntry, error) {
	if employeeID <= 0 {
		return nil, domain.NewFieldError("employee_id", "employee id is required")
	}
	if !kind.Valid() {
		return nil, domain.NewFieldError("kind", "unknown transaction kind")
	}
	return c.ledger.ListEntries(ctx, employeeID, kind)
}

// GetBalance 取得員工目前餘額，沒有分錄時為 0
func (c *CoreUseCase) GetBalance(ctx context.Context, employeeID int64) (decimal.Decimal, error) {
	if employeeID <= 0 {
		return decimal.Zero, domain.NewFieldError("employee_id", "employee id is required")
	}
	latest, err := c.ledger.LatestEntry(ctx, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	if latest == nil {
		return decimal.Zero, nil
	}
	return latest.BalanceAfter, nil
}

func employeeLockKey(employeeID int64) string {
	return fmt.Sprintf("lock:ledger:employee:%d", employeeID)
}
