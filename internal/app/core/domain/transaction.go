package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind 交易類型
type TransactionKind uint8

const (
	// 預支 / 提款，餘額減少
	TransactionKindWithdrawal TransactionKind = 1
	// 退款，餘額增加
	TransactionKindRefund TransactionKind = 2
)

// ParseTransactionKind 解析外部傳入的交易類型字串
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "withdrawal", "withdraw", "payment":
		return TransactionKindWithdrawal, nil
	case "refund":
		return TransactionKindRefund, nil
	}
	return 0, NewFieldError("kind", fmt.Sprintf("unknown transaction kind %q", s))
}

// Valid 是否為已定義的類型
func (k TransactionKind) Valid() bool {
	return k == TransactionKindWithdrawal || k == TransactionKindRefund
}

// InvoicePrefix 發票號碼前綴
func (k TransactionKind) InvoicePrefix() string {
	if k == TransactionKindRefund {
		return "REF"
	}
	return "WIT"
}

func (k TransactionKind) String() string {
	switch k {
	case TransactionKindWithdrawal:
		return "withdrawal"
	case TransactionKindRefund:
		return "refund"
	}
	return fmt.Sprintf("TransactionKind(%d)", uint8(k))
}

// LedgerEntry 員工帳戶的一筆分錄，寫入後不可修改
type LedgerEntry struct {
	ID         int64
	EmployeeID int64
	// Sequence: 同一員工內的遞增序號 (1, 2, 3...)，由儲存層在原子區段內分配
	Sequence        uint64
	Kind            TransactionKind
	Amount          decimal.Decimal
	TransactionDate time.Time
	InvoiceNo       string
	// BalanceAfter: 套用本筆後的累計餘額快照
	BalanceAfter  decimal.Decimal
	PaymentMethod string
	CreatedAt     time.Time
}

// SignedAmount 退款為正，提款為負
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Kind == TransactionKindRefund {
		return e.Amount
	}
	return e.Amount.Neg()
}

// WithdrawAmount 對應 withdraw_amount 欄位
func (e *LedgerEntry) WithdrawAmount() decimal.Decimal {
	if e.Kind == TransactionKindWithdrawal {
		return e.Amount
	}
	return decimal.Zero
}

// RefundAmount 對應 refund_amount 欄位
func (e *LedgerEntry) RefundAmount() decimal.Decimal {
	if e.Kind == TransactionKindRefund {
		return e.Amount
	}
	return decimal.Zero
}

// AmountFor 回傳指定類型欄位的金額，用於列表篩選 (> 0 才列出)
func (e *LedgerEntry) AmountFor(kind TransactionKind) decimal.Decimal {
	if kind == TransactionKindRefund {
		return e.RefundAmount()
	}
	return e.WithdrawAmount()
}

// NextBalance 計算新餘額：前一筆的 BalanceAfter 加上帶號金額，沒有前一筆時從 0 起算
// 不做下限檢查，餘額可以是負數 (薪資預支)
func NextBalance(prev *LedgerEntry, kind TransactionKind, amount decimal.Decimal) decimal.Decimal {
	balance := decimal.Zero
	if prev != nil {
		balance = prev.BalanceAfter
	}
	if kind == TransactionKindRefund {
		return balance.Add(amount)
	}
	return balance.Sub(amount)
}

// NextSequence 前一筆的序號 + 1
func NextSequence(prev *LedgerEntry) uint64 {
	if prev == nil {
		return 1
	}
	return prev.Sequence + 1
}
