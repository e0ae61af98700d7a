package grpc

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-office-ledger/pkg/auth"
)

const dateLayout = time.DateOnly

type subjectCtxKey struct{}

// TokenVerifier 驗證 Bearer token
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

type GrpcServer struct {
	core   *usecase.CoreUseCase
	logger *zap.Logger
}

func NewGrpcServer(core *usecase.CoreUseCase, logger *zap.Logger) *GrpcServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GrpcServer{
		core:   core,
		logger: logger,
	}
}

// RecordTransaction 只有管理員可以記帳
func (s *GrpcServer) RecordTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	subject := SubjectFromContext(ctx)
	if !subject.IsAdmin() {
		return nil, toStatus(domain.ErrForbidden)
	}

	fields := req.GetFields()
	employeeID, err := idField(fields, "employee_id")
	if err != nil {
		return nil, toStatus(err)
	}
	kind, err := domain.ParseTransactionKind(fields["kind"].GetStringValue())
	if err != nil {
		return nil, toStatus(err)
	}
	amount, err := decimalField(fields, "amount")
	if err != nil {
		return nil, toStatus(err)
	}
	date, err := dateField(fields, "transaction_date")
	if err != nil {
		return nil, toStatus(err)
	}

	entry, err := s.core.RecordTransaction(ctx, usecase.RecordTransactionCommand{
		EmployeeID:      employeeID,
		Kind:            kind,
		Amount:          amount,
		TransactionDate: date,
		PaymentMethod:   fields["payment_method"].GetStringValue(),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(entryFields(entry))
}

// ListTransactions 列出某類型分錄，員工只能查自己
func (s *GrpcServer) ListTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	employeeID, err := idField(fields, "employee_id")
	if err != nil {
		return nil, toStatus(err)
	}
	if err := domain.Authorize(SubjectFromContext(ctx), domain.OpListOwn, employeeID).Err(); err != nil {
		return nil, toStatus(err)
	}
	kind, err := domain.ParseTransactionKind(fields["kind"].GetStringValue())
	if err != nil {
		return nil, toStatus(err)
	}
	entries, err := s.core.ListTransactions(ctx, employeeID, kind)
	if err != nil {
		return nil, toStatus(err)
	}
	list := make([]any, 0, len(entries))
	for i := range entries {
		list = append(list, entryFields(&entries[i]))
	}
	return structpb.NewStruct(map[string]any{"entries": list})
}

func (s *GrpcServer) GetBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	employeeID, err := idField(req.GetFields(), "employee_id")
	if err != nil {
		return nil, toStatus(err)
	}
	if err := domain.Authorize(SubjectFromContext(ctx), domain.OpListOwn, employeeID).Err(); err != nil {
		return nil, toStatus(err)
	}
	balance, err := s.core.GetBalance(ctx, employeeID)
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"employee_id": employeeID,
		"balance":     balance.StringFixed(2),
	})
}

// AuthInterceptor 驗證 metadata 中的 authorization: Bearer <token>，通過後把 Subject 放進 context
func AuthInterceptor(tokens TokenVerifier, logger *zap.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}
		scheme, token, ok := strings.Cut(values[0], " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return nil, status.Error(codes.Unauthenticated, "malformed authorization header")
		}
		identity, err := tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			logger.Debug("grpc token rejected", zap.String("method", info.FullMethod), zap.Error(err))
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		role, err := domain.ParseRole(identity.Role)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid role")
		}
		ctx = context.WithValue(ctx, subjectCtxKey{}, domain.Subject{ID: identity.ID, Role: role})
		return handler(ctx, req)
	}
}

// SubjectFromContext 未驗證時回傳零值，存取政策一律拒絕
func SubjectFromContext(ctx context.Context) domain.Subject {
	subject, _ := ctx.Value(subjectCtxKey{}).(domain.Subject)
	return subject
}

// toStatus domain 錯誤轉 gRPC status
func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

// decimalField 金額可以是字串或數字，缺少時回傳 nil 交給 use case 驗證
// maxSafeInteger float64 可以精確表示的最大整數
const maxSafeInteger = 1<<53 - 1

// idField 讀取整數 ID，不存在時回傳 0 由 use case 判斷必填
func idField(fields map[string]*structpb.Value, name string) (int64, error) {
	v, ok := fields[name]
	if !ok {
		return 0, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || math.Abs(n) > maxSafeInteger {
			return 0, domain.NewFieldError(name, "must be an integer")
		}
		return int64(n), nil
	case *structpb.Value_StringValue:
		id, err := strconv.ParseInt(kind.StringValue, 10, 64)
		if err != nil {
			return 0, domain.NewFieldError(name, "must be an integer")
		}
		return id, nil
	case *structpb.Value_NullValue:
		return 0, nil
	}
	return 0, domain.NewFieldError(name, "must be an integer")
}

func decimalField(fields map[string]*structpb.Value, name string) (*decimal.Decimal, error) {
	v, ok := fields[name]
	if !ok {
		return nil, nil
	}
	var (
		d   decimal.Decimal
		err error
	)
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err = decimal.NewFromString(kind.StringValue)
	case *structpb.Value_NumberValue:
		d = decimal.NewFromFloat(kind.NumberValue)
	case *structpb.Value_NullValue:
		return nil, nil
	default:
		err = errors.New("unsupported type")
	}
	if err != nil {
		return nil, domain.NewFieldError(name, "amount must be a decimal number")
	}
	return &d, nil
}

func dateField(fields map[string]*structpb.Value, name string) (time.Time, error) {
	s := fields[name].GetStringValue()
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, domain.NewFieldError(name, "must be YYYY-MM-DD")
	}
	return t, nil
}

func entryFields(e *domain.LedgerEntry) map[string]any {
	return map[string]any{
		"id":               e.ID,
		"employee_id":      e.EmployeeID,
		"kind":             e.Kind.String(),
		"invoice_no":       e.InvoiceNo,
		"transaction_date": e.TransactionDate.Format(dateLayout),
		"withdraw_amount":  e.WithdrawAmount().StringFixed(2),
		"refund_amount":    e.RefundAmount().StringFixed(2),
		"balance":          e.BalanceAfter.StringFixed(2),
		"payment_method":   e.PaymentMethod,
	}
}

var _ LedgerServiceServer = (*GrpcServer)(nil)
