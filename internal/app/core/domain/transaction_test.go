package domain

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNextBalance(t *testing.T) {
	tests := []struct {
		name   string
		prev   *LedgerEntry
		kind   TransactionKind
		amount string
		want   string
	}{
		{name: "first withdrawal", kind: TransactionKindWithdrawal, amount: "100", want: "-100"},
		{name: "first refund", kind: TransactionKindRefund, amount: "40.50", want: "40.50"},
		{name: "refund after withdrawal", prev: &LedgerEntry{BalanceAfter: dec("-100")}, kind: TransactionKindRefund, amount: "40", want: "-60"},
		{name: "withdrawal after refund", prev: &LedgerEntry{BalanceAfter: dec("-60")}, kind: TransactionKindWithdrawal, amount: "25.25", want: "-85.25"},
		{name: "zero amount keeps balance", prev: &LedgerEntry{BalanceAfter: dec("12.34")}, kind: TransactionKindWithdrawal, amount: "0", want: "12.34"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextBalance(tt.prev, tt.kind, dec(tt.amount))
			assert.True(t, dec(tt.want).Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestBalanceEqualsSumOfSignedAmounts(t *testing.T) {
	ops := []struct {
		kind   TransactionKind
		amount string
	}{
		{TransactionKindWithdrawal, "100"},
		{TransactionKindRefund, "40"},
		{TransactionKindWithdrawal, "0.01"},
		{TransactionKindRefund, "1000.99"},
		{TransactionKindWithdrawal, "500"},
	}
	var prev *LedgerEntry
	sum := decimal.Zero
	for i, op := range ops {
		entry := &LedgerEntry{
			Sequence:     NextSequence(prev),
			Kind:         op.kind,
			Amount:       dec(op.amount),
			BalanceAfter: NextBalance(prev, op.kind, dec(op.amount)),
		}
		sum = sum.Add(entry.SignedAmount())
		require.Equal(t, uint64(i+1), entry.Sequence)
		require.True(t, sum.Equal(entry.BalanceAfter))
		prev = entry
	}
	assert.Equal(t, "440.98", prev.BalanceAfter.StringFixed(2))
}

func TestEntryAmountColumns(t *testing.T) {
	w := &LedgerEntry{Kind: TransactionKindWithdrawal, Amount: dec("10")}
	assert.True(t, w.WithdrawAmount().Equal(dec("10")))
	assert.True(t, w.RefundAmount().IsZero())
	assert.True(t, w.AmountFor(TransactionKindRefund).IsZero())

	r := &LedgerEntry{Kind: TransactionKindRefund, Amount: dec("3")}
	assert.True(t, r.RefundAmount().Equal(dec("3")))
	assert.True(t, r.WithdrawAmount().IsZero())
	assert.True(t, r.SignedAmount().Equal(dec("3")))
}

func TestParseTransactionKind(t *testing.T) {
	for _, s := range []string{"withdrawal", "Withdraw", "payment"} {
		kind, err := ParseTransactionKind(s)
		require.NoError(t, err)
		assert.Equal(t, TransactionKindWithdrawal, kind)
	}
	kind, err := ParseTransactionKind("REFUND")
	require.NoError(t, err)
	assert.Equal(t, TransactionKindRefund, kind)

	_, err = ParseTransactionKind("transfer")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewInvoiceNumber(t *testing.T) {
	withdrawal := regexp.MustCompile(`^WIT-[0-9a-f]{8}$`)
	refund := regexp.MustCompile(`^REF-[0-9a-f]{8}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		w := NewInvoiceNumber(TransactionKindWithdrawal)
		r := NewInvoiceNumber(TransactionKindRefund)
		require.Regexp(t, withdrawal, w)
		require.Regexp(t, refund, r)
		seen[w] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)
}
