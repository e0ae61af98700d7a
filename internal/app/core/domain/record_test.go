package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaveValidate(t *testing.T) {
	leave := &Leave{Subject: "Sick", Reason: "Flu", Date: time.Now()}
	require.NoError(t, leave.Validate())
	assert.Equal(t, LeaveStatusPending, leave.Status)

	leave.Status = "Maybe"
	assert.ErrorIs(t, leave.Validate(), ErrValidation)

	assert.ErrorIs(t, (&Leave{Reason: "x", Date: time.Now()}).Validate(), ErrValidation)
}

func TestTodoValidate(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	todo := &Todo{Task: "Report", StartDate: start, EndDate: start.AddDate(0, 0, 2), Deadline: start.AddDate(0, 0, 3)}
	require.NoError(t, todo.Validate())
	assert.Equal(t, "Y", todo.TodoStatus)
	assert.Equal(t, "Open", todo.CompletionStatus)

	todo.EndDate = start.AddDate(0, 0, -1)
	var fieldErr *FieldError
	require.ErrorAs(t, todo.Validate(), &fieldErr)
	assert.Equal(t, "end_date", fieldErr.Field)
}

func TestAttendanceValidate(t *testing.T) {
	in := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	out := in.Add(-time.Hour)
	a := &Attendance{Date: in, Status: AttendancePresent, CheckIn: &in}
	require.NoError(t, a.Validate())

	a.CheckOut = &out
	assert.ErrorIs(t, a.Validate(), ErrValidation)

	assert.ErrorIs(t, (&Attendance{Date: in, Status: "Late"}).Validate(), ErrValidation)
}

func TestProgressValidate(t *testing.T) {
	p := &Progress{ProjectID: 3, Date: time.Now(), Note: "done"}
	require.NoError(t, p.Validate())
	assert.Equal(t, "Y", p.Status)
	assert.ErrorIs(t, (&Progress{Date: time.Now(), Note: "x"}).Validate(), ErrValidation)
}

func TestEmployeeNormalization(t *testing.T) {
	assert.Equal(t, "Alice", NormalizeName("  alice "))
	assert.Equal(t, "Élodie", NormalizeName("élodie"))
	assert.Equal(t, "a@b.co", NormalizeEmail(" A@B.co "))
	assert.NoError(t, ValidateEmail("a@b.co"))
	assert.ErrorIs(t, ValidateEmail("not-an-email"), ErrValidation)
	assert.ErrorIs(t, ValidatePassword("1234"), ErrValidation)
	assert.NoError(t, ValidatePassword("12345"))
}

func TestStorageErrorKeepsCause(t *testing.T) {
	cause := assert.AnError
	err := StorageError("insert", cause)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
}
