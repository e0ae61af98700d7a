package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-office-ledger/pkg/mysql"
)

// RecordStore 以 gorm model 直接存取一種受管控資源
// 有 gorm.DeletedAt 欄位的型別刪除時為軟刪除
type RecordStore[T any] struct {
	client *mysql.Client
	name   string
}

func NewRecordStore[T any](client *mysql.Client, name string) *RecordStore[T] {
	return &RecordStore[T]{client: client, name: name}
}

func (s *RecordStore[T]) Create(ctx context.Context, rec *T) error {
	if err := s.client.DB().WithContext(ctx).Create(rec).Error; err != nil {
		return domain.StorageError("insert "+s.name, err)
	}
	return nil
}

func (s *RecordStore[T]) Get(ctx context.Context, id int64) (*T, error) {
	var rec T
	err := s.client.DB().WithContext(ctx).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.StorageError("select "+s.name, err)
	}
	return &rec, nil
}

func (s *RecordStore[T]) Update(ctx context.Context, rec *T) error {
	if err := s.client.DB().WithContext(ctx).Save(rec).Error; err != nil {
		return domain.StorageError("update "+s.name, err)
	}
	return nil
}

func (s *RecordStore[T]) Delete(ctx context.Context, id int64) error {
	var rec T
	result := s.client.DB().WithContext(ctx).Where("id = ?", id).Delete(&rec)
	if result.Error != nil {
		return domain.StorageError("delete "+s.name, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *RecordStore[T]) ListByOwner(ctx context.Context, ownerID int64) ([]T, error) {
	recs := make([]T, 0)
	err := s.client.DB().WithContext(ctx).Where("employee_id = ?", ownerID).Order("id ASC").Find(&recs).Error
	if err != nil {
		return nil, domain.StorageError("list "+s.name, err)
	}
	return recs, nil
}

func (s *RecordStore[T]) ListAll(ctx context.Context) ([]T, error) {
	recs := make([]T, 0)
	if err := s.client.DB().WithContext(ctx).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, domain.StorageError("list "+s.name, err)
	}
	return recs, nil
}

var (
	_ usecase.RecordStore[domain.Leave]      = (*RecordStore[domain.Leave])(nil)
	_ usecase.RecordStore[domain.Attendance] = (*RecordStore[domain.Attendance])(nil)
)
