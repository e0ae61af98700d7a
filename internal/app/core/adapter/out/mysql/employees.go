package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-office-ledger/pkg/mysql"
)

// sqlEmployee 對應 employees 表，記帳時作為悲觀鎖的目標列
type sqlEmployee struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Name         string    `gorm:"type:varchar(100);not null"`
	Email        string    `gorm:"type:varchar(191);not null;uniqueIndex"`
	Role         string    `gorm:"type:varchar(20);not null;default:'employee'"`
	PasswordHash string    `gorm:"type:varchar(100);not null"`
	Active       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (*sqlEmployee) TableName() string {
	return "employees"
}

func (e *sqlEmployee) toDomain() *domain.Employee {
	return &domain.Employee{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		Role:         domain.Role(e.Role),
		PasswordHash: e.PasswordHash,
		Active:       e.Active,
		CreatedAt:    e.CreatedAt,
	}
}

// MySQLEmployeeStore 員工帳號儲存
type MySQLEmployeeStore struct {
	client *mysql.Client
}

func NewMySQLEmployeeStore(client *mysql.Client) *MySQLEmployeeStore {
	return &MySQLEmployeeStore{client: client}
}

func (s *MySQLEmployeeStore) Create(ctx context.Context, employee *domain.Employee) error {
	row := &sqlEmployee{
		Name:         employee.Name,
		Email:        employee.Email,
		Role:         string(employee.Role),
		PasswordHash: employee.PasswordHash,
		Active:       employee.Active,
	}
	// Active 為 false 時 gorm 會套用 default，所以明確指定欄位
	err := s.client.DB().WithContext(ctx).
		Select("Name", "Email", "Role", "PasswordHash", "Active", "CreatedAt").
		Create(row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: email %s already registered", domain.ErrConflict, employee.Email)
		}
		return domain.StorageError("insert employee", err)
	}
	employee.ID = row.ID
	employee.CreatedAt = row.CreatedAt
	return nil
}

func (s *MySQLEmployeeStore) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	return s.take(ctx, "id = ?", id)
}

func (s *MySQLEmployeeStore) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	return s.take(ctx, "email = ?", email)
}

// Update 以 map 更新，Active 為 false 也會寫入
func (s *MySQLEmployeeStore) Update(ctx context.Context, employee *domain.Employee) error {
	result := s.client.DB().WithContext(ctx).
		Model(&sqlEmployee{}).
		Where("id = ?", employee.ID).
		Updates(map[string]any{
			"name":          employee.Name,
			"email":         employee.Email,
			"role":          string(employee.Role),
			"password_hash": employee.PasswordHash,
			"active":        employee.Active,
		})
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: email %s already registered", domain.ErrConflict, employee.Email)
		}
		return domain.StorageError("update employee", err)
	}
	if result.RowsAffected == 0 {
		// MySQL 在值沒有變化時也回傳 0，再確認一次是否存在
		if _, err := s.GetByID(ctx, employee.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *MySQLEmployeeStore) List(ctx context.Context) ([]domain.Employee, error) {
	var rows []sqlEmployee
	if err := s.client.DB().WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, domain.StorageError("list employees", err)
	}
	employees := make([]domain.Employee, 0, len(rows))
	for i := range rows {
		employees = append(employees, *rows[i].toDomain())
	}
	return employees, nil
}

func (s *MySQLEmployeeStore) take(ctx context.Context, query string, arg any) (*domain.Employee, error) {
	var row sqlEmployee
	err := s.client.DB().WithContext(ctx).Where(query, arg).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.StorageError("select employee", err)
	}
	return row.toDomain(), nil
}

var _ usecase.EmployeeStore = (*MySQLEmployeeStore)(nil)
