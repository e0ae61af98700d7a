package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
)

// EmployeeStore 員工資料儲存介面
type EmployeeStore interface {
	// Create 寫入新員工並回填 ID，email 重複回傳 domain.ErrConflict
	Create(ctx context.Context, employee *domain.Employee) error
	// GetByID 找不到回傳 domain.ErrNotFound
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	// GetByEmail 找不到回傳 domain.ErrNotFound
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	// Update 覆蓋既有員工，找不到回傳 domain.ErrNotFound，email 重複回傳 domain.ErrConflict
	Update(ctx context.Context, employee *domain.Employee) error
	List(ctx context.Context) ([]domain.Employee, error)
}

// PasswordHasher 密碼雜湊
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer 簽發登入 token
type TokenIssuer interface {
	Issue(employeeID int64, role string) (token string, expiresAt time.Time, err error)
}

// RegisterEmployeeCommand 新增員工請求
type RegisterEmployeeCommand struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UpdateEmployeeCommand 修改員工，nil 欄位保持不變
type UpdateEmployeeCommand struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
}

// LoginResult 登入結果
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Employee  *domain.Employee
}

// EmployeeUseCase 員工帳號與登入
type EmployeeUseCase struct {
	store  EmployeeStore
	hasher PasswordHasher
	tokens TokenIssuer
	logger *zap.Logger
}

func NewEmployeeUseCase(store EmployeeStore, hasher PasswordHasher, tokens TokenIssuer, logger *zap.Logger) *EmployeeUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeUseCase{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Register 管理員新增員工
func (u *EmployeeUseCase) Register(ctx context.Context, subject domain.Subject, cmd RegisterEmployeeCommand) (*domain.Employee, error) {
	if !subject.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	name := domain.NormalizeName(cmd.Name)
	email := domain.NormalizeEmail(cmd.Email)
	if name == "" {
		return nil, domain.NewFieldError("name", "name is required")
	}
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(cmd.Password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.Role) == "" {
		cmd.Role = string(domain.RoleEmployee)
	}
	role, err := domain.ParseRole(cmd.Role)
	if err != nil {
		return nil, err
	}

	hash, err := u.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, err
	}
	employee := &domain.Employee{
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		Active:       true,
	}
	if err := u.store.Create(ctx, employee); err != nil {
		return nil, err
	}
	u.logger.Info("employee registered", zap.Int64("employee_id", employee.ID), zap.String("role", string(role)))
	return employee, nil
}

// Login 驗證帳密並簽發 token，帳號不存在與密碼錯誤回傳相同錯誤
func (u *EmployeeUseCase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, domain.NewFieldError("credentials", "email and password are required")
	}
	employee, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if !employee.Active {
		return nil, domain.ErrUnauthorized
	}
	if err := u.hasher.Compare(employee.PasswordHash, password); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, expiresAt, err := u.tokens.Issue(employee.ID, string(employee.Role))
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Employee: employee}, nil
}

// List 管理員列出所有員工
func (u *EmployeeUseCase) List(ctx context.Context, subject domain.Subject) ([]domain.Employee, error) {
	if err := domain.Authorize(subject, domain.OpListAll, 0).Err(); err != nil {
		return nil, err
	}
	return u.store.List(ctx)
}

// Update 管理員修改員工資料，密碼有值時重新雜湊
func (u *EmployeeUseCase) Update(ctx context.Context, subject domain.Subject, id int64, cmd UpdateEmployeeCommand) (*domain.Employee, error) {
	if err := domain.Authorize(subject, domain.OpManage, id).Err(); err != nil {
		return nil, err
	}
	employee, err := u.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.Name != nil {
		name := domain.NormalizeName(*cmd.Name)
		if name == "" {
			return nil, domain.NewFieldError("name", "name is required")
		}
		employee.Name = name
	}
	if cmd.Email != nil {
		email := domain.NormalizeEmail(*cmd.Email)
		if err := domain.ValidateEmail(email); err != nil {
			return nil, err
		}
		employee.Email = email
	}
	if cmd.Role != nil {
		role, err := domain.ParseRole(*cmd.Role)
		if err != nil {
			return nil, err
		}
		employee.Role = role
	}
	if cmd.Password != nil {
		if err := domain.ValidatePassword(*cmd.Password); err != nil {
			return nil, err
		}
		hash, err := u.hasher.Hash(*cmd.Password)
		if err != nil {
			return nil, err
		}
		employee.PasswordHash = hash
	}

	if err := u.store.Update(ctx, employee); err != nil {
		return nil, err
	}
	u.logger.Info("employee updated", zap.Int64("employee_id", id), zap.Int64("by", subject.ID))
	return employee, nil
}

// Deactivate 管理員停用員工帳號，停用後無法登入，帳本與資源保留
func (u *EmployeeUseCase) Deactivate(ctx context.Context, subject domain.Subject, id int64) error {
	if err := domain.Authorize(subject, domain.OpManage, id).Err(); err != nil {
		return err
	}
	if id == subject.ID {
		return domain.NewFieldError("id", "cannot deactivate yourself")
	}
	employee, err := u.load(ctx, id)
	if err != nil {
		return err
	}
	if !employee.Active {
		return nil
	}
	employee.Active = false
	if err := u.store.Update(ctx, employee); err != nil {
		return err
	}
	u.logger.Info("employee deactivated", zap.Int64("employee_id", id), zap.Int64("by", subject.ID))
	return nil
}

func (u *EmployeeUseCase) load(ctx context.Context, id int64) (*domain.Employee, error) {
	if id <= 0 {
		return nil, domain.NewFieldError("id", "id is required")
	}
	return u.store.GetByID(ctx, id)
}
