package domain

import (
	"fmt"
	"strings"
)

// Role 使用者角色
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// ParseRole 解析角色，原系統的 "user" 視為一般員工
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "employee", "user":
		return RoleEmployee, nil
	}
	return "", NewFieldError("role", fmt.Sprintf("unknown role %q", s))
}

// Subject 發出請求的身分
type Subject struct {
	ID   int64
	Role Role
}

// IsAdmin 是否為管理員
func (s Subject) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Operation 受管控的操作
type Operation uint8

const (
	OpListAll Operation = iota + 1
	OpListOwn
	OpRead
	OpCreate
	OpUpdate
	OpDelete
	// OpManage 管理員專屬的寫入，例如薪資設定與員工帳號
	OpManage
)

func (op Operation) String() string {
	switch op {
	case OpListAll:
		return "list_all"
	case OpListOwn:
		return "list_own"
	case OpRead:
		return "read"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpManage:
		return "manage"
	}
	return fmt.Sprintf("Operation(%d)", uint8(op))
}

// Decision 存取判定結果
type Decision bool

const (
	Permit Decision = true
	Deny   Decision = false
)

// Err Deny 轉成 ErrForbidden
func (d Decision) Err() error {
	if d == Permit {
		return nil
	}
	return ErrForbidden
}

// Authorize 唯一的存取政策，所有資源種類共用，依序比對、第一條符合即決定
//
// 參數:
//
//	subject: 請求者
//	op: 操作
//	resourceOwnerID: 資源擁有者 (建立時為請求指定的擁有者，0 代表未指定)
//
// 回傳:
//
//	Decision: Permit 或 Deny
func Authorize(subject Subject, op Operation, resourceOwnerID int64) Decision {
	if subject.ID <= 0 {
		return Deny
	}
	if subject.IsAdmin() {
		return Permit
	}
	switch op {
	case OpListOwn, OpRead:
		if resourceOwnerID == subject.ID {
			return Permit
		}
	case OpCreate:
		if resourceOwnerID == 0 || resourceOwnerID == subject.ID {
			return Permit
		}
	case OpUpdate, OpDelete:
		if resourceOwnerID == subject.ID {
			return Permit
		}
	}
	return Deny
}

// ResolveOwner 決定新建資源的擁有者
// 管理員代替他人建立時必須指定員工 ID；一般員工指定他人時一律改回自己
func ResolveOwner(subject Subject, requestedOwnerID int64) (int64, error) {
	if !subject.IsAdmin() {
		return subject.ID, nil
	}
	if requestedOwnerID <= 0 {
		return 0, NewFieldError("employee_id", "employee id is required")
	}
	return requestedOwnerID, nil
}
