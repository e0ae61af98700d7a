package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Record 受存取政策管控的資源，每一筆都屬於某位員工
type Record interface {
	GetID() int64
	SetID(id int64)
	GetOwnerID() int64
	SetOwnerID(ownerID int64)
	Validate() error
}

// AdminManaged 實作此介面且回傳 true 的資源，新增/修改/刪除都只限管理員
type AdminManaged interface {
	AdminManaged() bool
}

// RecordPtr 讓泛型程式碼可以用 *T 呼叫 Record 方法
type RecordPtr[T any] interface {
	*T
	Record
}

// LeaveStatus 請假狀態
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "Pending"
	LeaveStatusApproved LeaveStatus = "Approved"
	LeaveStatusRejected LeaveStatus = "Rejected"
)

// Valid 是否為已定義的狀態
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeaveStatusPending, LeaveStatusApproved, LeaveStatusRejected:
		return true
	}
	return false
}

// Leave 請假申請
type Leave struct {
	ID         int64       `gorm:"primaryKey" json:"id"`
	EmployeeID int64       `gorm:"not null;index" json:"employee_id"`
	Subject    string      `gorm:"type:varchar(255);not null" json:"subject"`
	Reason     string      `gorm:"type:text;not null" json:"reason"`
	Date       time.Time   `gorm:"type:date;not null" json:"date"`
	Status     LeaveStatus `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// TableName sets the database table name.
func (Leave) TableName() string { return "leaves" }

func (l *Leave) GetID() int64             { return l.ID }
func (l *Leave) SetID(id int64)           { l.ID = id }
func (l *Leave) GetOwnerID() int64        { return l.EmployeeID }
func (l *Leave) SetOwnerID(ownerID int64) { l.EmployeeID = ownerID }

// Validate 主旨、原因、日期必填
func (l *Leave) Validate() error {
	if strings.TrimSpace(l.Subject) == "" {
		return NewFieldError("subject", "subject is required")
	}
	if strings.TrimSpace(l.Reason) == "" {
		return NewFieldError("reason", "reason is required")
	}
	if l.Date.IsZero() {
		return NewFieldError("date", "date is required")
	}
	if l.Status == "" {
		l.Status = LeaveStatusPending
	}
	if !l.Status.Valid() {
		return NewFieldError("status", "unknown leave status")
	}
	return nil
}

// Todo 待辦事項，刪除為軟刪除
type Todo struct {
	ID               int64          `gorm:"primaryKey" json:"id"`
	EmployeeID       int64          `gorm:"not null;index" json:"employee_id"`
	Task             string         `gorm:"type:varchar(255);not null" json:"task"`
	Note             string         `gorm:"type:text" json:"note"`
	StartDate        time.Time      `gorm:"type:date;not null" json:"start_date"`
	EndDate          time.Time      `gorm:"type:date;not null" json:"end_date"`
	Deadline         time.Time      `gorm:"type:date;not null" json:"deadline"`
	TodoStatus       string         `gorm:"type:varchar(4);not null;default:'Y'" json:"todo_status"`
	CompletionStatus string         `gorm:"type:varchar(20);not null;default:'Open'" json:"completion_status"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the database table name.
func (Todo) TableName() string { return "todos" }

func (t *Todo) GetID() int64             { return t.ID }
func (t *Todo) SetID(id int64)           { t.ID = id }
func (t *Todo) GetOwnerID() int64        { return t.EmployeeID }
func (t *Todo) SetOwnerID(ownerID int64) { t.EmployeeID = ownerID }

func (t *Todo) Validate() error {
	if strings.TrimSpace(t.Task) == "" {
		return NewFieldError("task", "task is required")
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() || t.Deadline.IsZero() {
		return NewFieldError("dates", "start_date, end_date and deadline are required")
	}
	if t.EndDate.Before(t.StartDate) {
		return NewFieldError("end_date", "end_date is before start_date")
	}
	if t.TodoStatus == "" {
		t.TodoStatus = "Y"
	}
	if t.CompletionStatus == "" {
		t.CompletionStatus = "Open"
	}
	return nil
}

// Progress 專案進度回報
type Progress struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	EmployeeID int64     `gorm:"not null;index" json:"employee_id"`
	ProjectID  int64     `gorm:"not null;index" json:"project_id"`
	Date       time.Time `gorm:"type:date;not null" json:"date"`
	Note       string    `gorm:"type:text;not null" json:"note"`
	Status     string    `gorm:"type:varchar(4);not null;default:'Y'" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName sets the database table name.
func (Progress) TableName() string { return "progress" }

func (p *Progress) GetID() int64             { return p.ID }
func (p *Progress) SetID(id int64)           { p.ID = id }
func (p *Progress) GetOwnerID() int64        { return p.EmployeeID }
func (p *Progress) SetOwnerID(ownerID int64) { p.EmployeeID = ownerID }

func (p *Progress) Validate() error {
	if p.ProjectID <= 0 {
		return NewFieldError("project_id", "project id is required")
	}
	if p.Date.IsZero() {
		return NewFieldError("date", "date is required")
	}
	if strings.TrimSpace(p.Note) == "" {
		return NewFieldError("note", "note is required")
	}
	if p.Status == "" {
		p.Status = "Y"
	}
	return nil
}

// AttendanceStatus 出勤狀態
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLeave   AttendanceStatus = "Leave"
)

// Attendance 出勤紀錄，刪除為軟刪除
type Attendance struct {
	ID         int64            `gorm:"primaryKey" json:"id"`
	EmployeeID int64            `gorm:"not null;index" json:"employee_id"`
	Date       time.Time        `gorm:"type:date;not null" json:"date"`
	Status     AttendanceStatus `gorm:"type:varchar(20);not null" json:"status"`
	CheckIn    *time.Time       `json:"check_in,omitempty"`
	CheckOut   *time.Time       `json:"check_out,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	DeletedAt  gorm.DeletedAt   `gorm:"index" json:"-"`
}

// TableName sets the database table name.
func (Attendance) TableName() string { return "attendances" }

func (a *Attendance) GetID() int64             { return a.ID }
func (a *Attendance) SetID(id int64)           { a.ID = id }
func (a *Attendance) GetOwnerID() int64        { return a.EmployeeID }
func (a *Attendance) SetOwnerID(ownerID int64) { a.EmployeeID = ownerID }

func (a *Attendance) Validate() error {
	if a.Date.IsZero() {
		return NewFieldError("date", "date is required")
	}
	switch a.Status {
	case AttendancePresent, AttendanceAbsent, AttendanceLeave:
	default:
		return NewFieldError("status", "status must be Present, Absent or Leave")
	}
	if a.CheckIn != nil && a.CheckOut != nil && a.CheckOut.Before(*a.CheckIn) {
		return NewFieldError("check_out", "check_out is before check_in")
	}
	return nil
}

// Salary 員工薪資設定，只有管理員可以寫入，刪除為軟刪除
// TotalSalary 由底薪與各項津貼加總，不採用請求的值
type Salary struct {
	ID                 int64           `gorm:"primaryKey" json:"id"`
	EmployeeID         int64           `gorm:"not null;index" json:"employee_id"`
	SalaryAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"salary_amount"`
	EmployeeOfMonth    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"emp_of_mon_allowance"`
	TransportAllowance decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"transport_allowance"`
	MedicalAllowance   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"medical_allowance"`
	TotalSalary        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_salary"`
	ConfigDate         time.Time       `gorm:"type:date;not null" json:"config_date"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName sets the database table name.
func (Salary) TableName() string { return "salaries" }

func (s *Salary) GetID() int64             { return s.ID }
func (s *Salary) SetID(id int64)           { s.ID = id }
func (s *Salary) GetOwnerID() int64        { return s.EmployeeID }
func (s *Salary) SetOwnerID(ownerID int64) { s.EmployeeID = ownerID }

// AdminManaged 一般員工只能讀取自己的薪資
func (*Salary) AdminManaged() bool { return true }

func (s *Salary) Validate() error {
	if s.ConfigDate.IsZero() {
		return NewFieldError("config_date", "config_date is required")
	}
	if !s.SalaryAmount.IsPositive() {
		return NewFieldError("salary_amount", "salary_amount must be positive")
	}
	if s.EmployeeOfMonth.IsNegative() || s.TransportAllowance.IsNegative() || s.MedicalAllowance.IsNegative() {
		return NewFieldError("allowance", "allowances cannot be negative")
	}
	s.TotalSalary = s.SalaryAmount.
		Add(s.EmployeeOfMonth).
		Add(s.TransportAllowance).
		Add(s.MedicalAllowance)
	return nil
}

// Lifeline 員工履歷 (職位與聯絡方式)，只有管理員可以寫入
type Lifeline struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	EmployeeID   int64     `gorm:"not null;index" json:"employee_id"`
	EmployeeName string    `gorm:"type:varchar(100);not null" json:"employee_name"`
	Email        string    `gorm:"type:varchar(191);not null" json:"email"`
	Contact      string    `gorm:"type:varchar(20);not null" json:"contact"`
	Position     string    `gorm:"type:varchar(100);not null" json:"position"`
	Date         time.Time `gorm:"type:date;not null" json:"date"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName sets the database table name.
func (Lifeline) TableName() string { return "employee_lifelines" }

func (l *Lifeline) GetID() int64             { return l.ID }
func (l *Lifeline) SetID(id int64)           { l.ID = id }
func (l *Lifeline) GetOwnerID() int64        { return l.EmployeeID }
func (l *Lifeline) SetOwnerID(ownerID int64) { l.EmployeeID = ownerID }

func (*Lifeline) AdminManaged() bool { return true }

// Validate 所有欄位必填
func (l *Lifeline) Validate() error {
	l.EmployeeName = NormalizeName(l.EmployeeName)
	l.Email = NormalizeEmail(l.Email)
	if l.EmployeeName == "" {
		return NewFieldError("employee_name", "employee_name is required")
	}
	if err := ValidateEmail(l.Email); err != nil {
		return err
	}
	if strings.TrimSpace(l.Contact) == "" {
		return NewFieldError("contact", "contact is required")
	}
	if strings.TrimSpace(l.Position) == "" {
		return NewFieldError("position", "position is required")
	}
	if l.Date.IsZero() {
		return NewFieldError("date", "date is required")
	}
	return nil
}
