package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/usecase"
)

// DateLayout 交易日期格式
const DateLayout = time.DateOnly

type recordTransactionRequest struct {
	EmployeeID      int64            `json:"employee_id"`
	Amount          *decimal.Decimal `json:"amount"`
	TransactionDate string           `json:"transaction_date"`
	PaymentMethod   string           `json:"payment_method"`
}

type entryResponse struct {
	ID              int64           `json:"id"`
	EmployeeID      int64           `json:"employee_id"`
	Kind            string          `json:"kind"`
	InvoiceNo       string          `json:"invoice_no"`
	TransactionDate string          `json:"transaction_date"`
	WithdrawAmount  decimal.Decimal `json:"withdraw_amount"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	Balance         decimal.Decimal `json:"balance"`
	PaymentMethod   string          `json:"payment_method"`
	CreatedAt       time.Time       `json:"created_at"`
}

func newEntryResponse(e *domain.LedgerEntry) entryResponse {
	return entryResponse{
		ID:              e.ID,
		EmployeeID:      e.EmployeeID,
		Kind:            e.Kind.String(),
		InvoiceNo:       e.InvoiceNo,
		TransactionDate: e.TransactionDate.Format(DateLayout),
		WithdrawAmount:  e.WithdrawAmount(),
		RefundAmount:    e.RefundAmount(),
		Balance:         e.BalanceAfter,
		PaymentMethod:   e.PaymentMethod,
		CreatedAt:       e.CreatedAt,
	}
}

// ParseDate 解析 YYYY-MM-DD，空字串視為未提供
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, domain.NewFieldError("transaction_date", "transaction_date must be YYYY-MM-DD")
	}
	return t, nil
}

func (s *Server) recordTransaction(kind domain.TransactionKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req recordTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError(err))
			return
		}
		date, err := ParseDate(req.TransactionDate)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		entry, err := s.core.RecordTransaction(c.Request.Context(), usecase.RecordTransactionCommand{
			EmployeeID:      req.EmployeeID,
			Kind:            kind,
			Amount:          req.Amount,
			TransactionDate: date,
			PaymentMethod:   req.PaymentMethod,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": newEntryResponse(entry)})
	}
}

func (s *Server) listTransactions(kind domain.TransactionKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeID, ok := s.authorizeAccount(c)
		if !ok {
			return
		}
		entries, err := s.core.ListTransactions(c.Request.Context(), employeeID, kind)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		resp := make([]entryResponse, 0, len(entries))
		for i := range entries {
			resp = append(resp, newEntryResponse(&entries[i]))
		}
		c.JSON(http.StatusOK, gin.H{"data": resp})
	}
}

func (s *Server) GetBalance(c *gin.Context) {
	employeeID, ok := s.authorizeAccount(c)
	if !ok {
		return
	}
	balance, err := s.core.GetBalance(c.Request.Context(), employeeID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"employee_id": employeeID,
		"balance":     balance,
	}})
}

// authorizeAccount 員工只能查看自己的帳戶
func (s *Server) authorizeAccount(c *gin.Context) (int64, bool) {
	employeeID, err := strconv.ParseInt(c.Param("employeeId"), 10, 64)
	if err != nil || employeeID <= 0 {
		AbortWithError(c, domain.NewFieldError("employeeId", "employee id must be a positive integer"))
		return 0, false
	}
	if err := domain.Authorize(subjectFrom(c), domain.OpListOwn, employeeID).Err(); err != nil {
		AbortWithError(c, err)
		return 0, false
	}
	return employeeID, true
}
