package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// TopicLedgerEntryRecorded 分錄寫入後發布的事件主題
const TopicLedgerEntryRecorded = "ledger.entry_recorded"

// LedgerEntryRecorded 分錄寫入事件
type LedgerEntryRecorded struct {
	EntryID         int64           `json:"entry_id"`
	EmployeeID      int64           `json:"employee_id"`
	Sequence        uint64          `json:"sequence"`
	Kind            string          `json:"kind"`
	InvoiceNo       string          `json:"invoice_no"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	PaymentMethod   string          `json:"payment_method"`
	TransactionDate time.Time       `json:"transaction_date"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// Key 事件分區鍵，同一員工的事件保持順序
func (e LedgerEntryRecorded) Key() string {
	return strconv.FormatInt(e.EmployeeID, 10)
}

// NewLedgerEntryRecorded 由分錄建立事件
func NewLedgerEntryRecorded(entry *LedgerEntry, now time.Time) LedgerEntryRecorded {
	return LedgerEntryRecorded{
		EntryID:         entry.ID,
		EmployeeID:      entry.EmployeeID,
		Sequence:        entry.Sequence,
		Kind:            entry.Kind.String(),
		InvoiceNo:       entry.InvoiceNo,
		Amount:          entry.Amount,
		BalanceAfter:    entry.BalanceAfter,
		PaymentMethod:   entry.PaymentMethod,
		TransactionDate: entry.TransactionDate,
		OccurredAt:      now,
	}
}
