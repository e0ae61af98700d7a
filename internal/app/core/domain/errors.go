package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 請求欄位缺漏或格式錯誤 (400)
	ErrValidation = errors.New("validation failed")

	// ErrNotFound 找不到員工或資源 (404)
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized 未登入或 token 無效 (401)
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden 存取政策拒絕 (403)
	ErrForbidden = errors.New("forbidden")

	// ErrConflict 並發寫入衝突，或唯一鍵重複 (409)
	ErrConflict = errors.New("conflict")

	// ErrStorage 資料層錯誤 (500)
	ErrStorage = errors.New("storage failure")
)

// FieldError 指出哪一個欄位驗證失敗，errors.Is(err, ErrValidation) 成立
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// NewFieldError 建立欄位驗證錯誤
func NewFieldError(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// StorageError 把底層 driver 錯誤包成 ErrStorage，保留原始錯誤訊息
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
