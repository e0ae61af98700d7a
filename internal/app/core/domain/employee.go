package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MinPasswordLength 密碼最短長度
const MinPasswordLength = 5

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Employee 員工 / 登入帳號
type Employee struct {
	ID           int64
	Name         string
	Email        string
	Role         Role
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

// Subject 轉為存取政策使用的身分
func (e *Employee) Subject() Subject {
	return Subject{ID: e.ID, Role: e.Role}
}

// NormalizeName 首字大寫
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

// NormalizeEmail 去空白並轉小寫
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail 檢查 email 格式
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return NewFieldError("email", "email is invalid")
	}
	return nil
}

// ValidatePassword 檢查密碼長度
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return NewFieldError("password", "password must be at least 5 characters")
	}
	return nil
}
