package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-office-ledger/pkg/mysql"
)

// sqlLedgerEntry 對應資料庫的 employee_accounts 表，只追加不修改
// withdraw_amount / refund_amount 每列只有一個大於 0
type sqlLedgerEntry struct {
	ID              int64           `gorm:"primaryKey;autoIncrement"`
	EmployeeID      int64           `gorm:"not null;uniqueIndex:ux_employee_accounts_employee_seq,priority:1;index:idx_employee_accounts_employee_date,priority:1"`
	Sequence        uint64          `gorm:"not null;uniqueIndex:ux_employee_accounts_employee_seq,priority:2"`
	Kind            uint8           `gorm:"not null"`
	InvoiceNo       string          `gorm:"column:invoice_no;type:varchar(32);not null;uniqueIndex"`
	TransactionDate time.Time       `gorm:"type:date;not null;index:idx_employee_accounts_employee_date,priority:2"`
	WithdrawAmount  decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	RefundAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Balance         decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	PaymentMethod   string          `gorm:"type:varchar(50);not null"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
}

func (*sqlLedgerEntry) TableName() string {
	return "employee_accounts"
}

func (e *sqlLedgerEntry) toDomain() *domain.LedgerEntry {
	entry := &domain.LedgerEntry{
		ID:              e.ID,
		EmployeeID:      e.EmployeeID,
		Sequence:        e.Sequence,
		Kind:            domain.TransactionKind(e.Kind),
		Amount:          e.WithdrawAmount,
		TransactionDate: e.TransactionDate,
		InvoiceNo:       e.InvoiceNo,
		BalanceAfter:    e.Balance,
		PaymentMethod:   e.PaymentMethod,
		CreatedAt:       e.CreatedAt,
	}
	if entry.Kind == domain.TransactionKindRefund {
		entry.Amount = e.RefundAmount
	}
	return entry
}

func newSQLLedgerEntry(entry *domain.LedgerEntry) *sqlLedgerEntry {
	return &sqlLedgerEntry{
		EmployeeID:      entry.EmployeeID,
		Sequence:        entry.Sequence,
		Kind:            uint8(entry.Kind),
		InvoiceNo:       entry.InvoiceNo,
		TransactionDate: entry.TransactionDate,
		WithdrawAmount:  entry.WithdrawAmount(),
		RefundAmount:    entry.RefundAmount(),
		Balance:         entry.BalanceAfter,
		PaymentMethod:   entry.PaymentMethod,
	}
}

// MySQLLedger 以 DB 交易 + 員工列悲觀鎖序列化同一員工的寫入
type MySQLLedger struct {
	client *mysql.Client
}

func NewMySQLLedger(client *mysql.Client) *MySQLLedger {
	return &MySQLLedger{
		client: client,
	}
}

// AppendEntry 在同一個 DB 交易內: 鎖員工列 → 讀最新分錄 → build → 寫入
func (ledger *MySQLLedger) AppendEntry(ctx context.Context, employeeID int64, build usecase.BuildEntryFunc) (*domain.LedgerEntry, error) {
	var result *domain.LedgerEntry
	err := ledger.client.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 悲觀鎖，同時確認員工存在
		var employee sqlEmployee
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", employeeID).
			Take(&employee).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return domain.StorageError("lock employee", err)
		}

		prev, err := latestEntry(tx, employeeID)
		if err != nil {
			return err
		}

		entry, err := build(prev)
		if err != nil {
			return err
		}

		row := newSQLLedgerEntry(entry)
		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %v", domain.ErrConflict, err)
			}
			return domain.StorageError("insert ledger entry", err)
		}
		result = row.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LatestEntry 取得最新一筆分錄 (依寫入順序)
func (ledger *MySQLLedger) LatestEntry(ctx context.Context, employeeID int64) (*domain.LedgerEntry, error) {
	return latestEntry(ledger.client.DB().WithContext(ctx), employeeID)
}

// ListEntries 列出某類型金額 > 0 的分錄，依交易日期遞增，同日依寫入順序
func (ledger *MySQLLedger) ListEntries(ctx context.Context, employeeID int64, kind domain.TransactionKind) ([]domain.LedgerEntry, error) {
	column := "withdraw_amount"
	if kind == domain.TransactionKindRefund {
		column = "refund_amount"
	}
	var rows []sqlLedgerEntry
	err := ledger.client.DB().WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where(column + " > 0").
		Order("transaction_date ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, domain.StorageError("list ledger entries", err)
	}
	entries := make([]domain.LedgerEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, *rows[i].toDomain())
	}
	return entries, nil
}

func latestEntry(db *gorm.DB, employeeID int64) (*domain.LedgerEntry, error) {
	var last sqlLedgerEntry
	err := db.Where("employee_id = ?", employeeID).Order("id DESC").Limit(1).Take(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StorageError("select latest ledger entry", err)
	}
	return last.toDomain(), nil
}

var _ usecase.Ledger = (*MySQLLedger)(nil)
