package usecase

import (
	"context"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
)

// RecordStore 受管控資源的儲存介面，每種資源一個實例
type RecordStore[T any] interface {
	Create(ctx context.Context, rec *T) error
	// Get 找不到時回傳 domain.ErrNotFound
	Get(ctx context.Context, id int64) (*T, error)
	Update(ctx context.Context, rec *T) error
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerID int64) ([]T, error)
	ListAll(ctx context.Context) ([]T, error)
}

// RecordService 對任何資源種類套用同一個存取政策
type RecordService[T any, PT domain.RecordPtr[T]] struct {
	store RecordStore[T]
}

func NewRecordService[T any, PT domain.RecordPtr[T]](store RecordStore[T]) *RecordService[T, PT] {
	return &RecordService[T, PT]{store: store}
}

// Create 決定擁有者後建立資源
// 一般員工指定他人時改回自己，管理員必須指定員工
func (s *RecordService[T, PT]) Create(ctx context.Context, subject domain.Subject, rec *T) (*T, error) {
	p := PT(rec)
	ownerID, err := domain.ResolveOwner(subject, p.GetOwnerID())
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(subject, domain.OpCreate, ownerID); err != nil {
		return nil, err
	}
	p.SetID(0)
	p.SetOwnerID(ownerID)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get 讀取單筆
func (s *RecordService[T, PT]) Get(ctx context.Context, subject domain.Subject, id int64) (*T, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(subject, domain.OpRead, PT(rec).GetOwnerID()).Err(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Update 以儲存中的擁有者判斷權限，patch 套用後一般員工不能改變擁有者
// patch 回傳錯誤時不寫入
func (s *RecordService[T, PT]) Update(ctx context.Context, subject domain.Subject, id int64, patch func(rec *T) error) (*T, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	p := PT(rec)
	ownerID := p.GetOwnerID()
	if err := s.authorizeWrite(subject, domain.OpUpdate, ownerID); err != nil {
		return nil, err
	}

	if err := patch(rec); err != nil {
		return nil, err
	}
	p.SetID(id)
	if !subject.IsAdmin() || p.GetOwnerID() <= 0 {
		p.SetOwnerID(ownerID)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete 刪除 (軟刪除與否由資源型別決定)
func (s *RecordService[T, PT]) Delete(ctx context.Context, subject domain.Subject, id int64) error {
	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeWrite(subject, domain.OpDelete, PT(rec).GetOwnerID()); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// ListMine 列出自己的資源
func (s *RecordService[T, PT]) ListMine(ctx context.Context, subject domain.Subject) ([]T, error) {
	if err := domain.Authorize(subject, domain.OpListOwn, subject.ID).Err(); err != nil {
		return nil, err
	}
	return s.store.ListByOwner(ctx, subject.ID)
}

// ListAll 列出全部，只有管理員可以
func (s *RecordService[T, PT]) ListAll(ctx context.Context, subject domain.Subject) ([]T, error) {
	if err := domain.Authorize(subject, domain.OpListAll, 0).Err(); err != nil {
		return nil, err
	}
	return s.store.ListAll(ctx)
}

// AdminManaged 資源型別是否只有管理員可以寫入
func (s *RecordService[T, PT]) AdminManaged() bool {
	m, ok := any(PT(new(T))).(domain.AdminManaged)
	return ok && m.AdminManaged()
}

func (s *RecordService[T, PT]) authorizeWrite(subject domain.Subject, op domain.Operation, ownerID int64) error {
	if s.AdminManaged() {
		op = domain.OpManage
	}
	return domain.Authorize(subject, op, ownerID).Err()
}

func (s *RecordService[T, PT]) load(ctx context.Context, id int64) (*T, error) {
	if id <= 0 {
		return nil, domain.NewFieldError("id", "id is required")
	}
	return s.store.Get(ctx, id)
}
