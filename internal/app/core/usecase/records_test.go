package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-office-ledger/internal/app/core/usecase"
)

var (
	admin = domain.Subject{ID: 1, Role: domain.RoleAdmin}
	alice = domain.Subject{ID: 7, Role: domain.RoleEmployee}
	bob   = domain.Subject{ID: 8, Role: domain.RoleEmployee}
)

func newLeaveService() *usecase.RecordService[domain.Leave, *domain.Leave] {
	return usecase.NewRecordService[domain.Leave](memory.NewRecordStore[domain.Leave]())
}

func newLeave() *domain.Leave {
	return &domain.Leave{Subject: "Dentist", Reason: "Appointment", Date: day}
}

func TestRecordCreateOwnership(t *testing.T) {
	ctx := context.Background()
	svc := newLeaveService()

	t.Run("employee creating for another is re-owned to self", func(t *testing.T) {
		leave := newLeave()
		leave.EmployeeID = bob.ID
		created, err := svc.Create(ctx, alice, leave)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, created.EmployeeID)
		assert.Equal(t, domain.LeaveStatusPending, created.Status)
	})

	t.Run("admin creates for named employee", func(t *testing.T) {
		leave := newLeave()
		leave.EmployeeID = bob.ID
		created, err := svc.Create(ctx, admin, leave)
		require.NoError(t, err)
		assert.Equal(t, bob.ID, created.EmployeeID)
	})

	t.Run("admin without employee", func(t *testing.T) {
		_, err := svc.Create(ctx, admin, newLeave())
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("anonymous is denied", func(t *testing.T) {
		_, err := svc.Create(ctx, domain.Subject{}, newLeave())
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("invalid record", func(t *testing.T) {
		_, err := svc.Create(ctx, alice, &domain.Leave{Date: day})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestRecordListing(t *testing.T) {
	ctx := context.Background()
	svc := newLeaveService()
	for _, s := range []domain.Subject{alice, alice, bob} {
		_, err := svc.Create(ctx, s, newLeave())
		require.NoError(t, err)
	}

	mine, err := svc.ListMine(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, l := range mine {
		assert.Equal(t, alice.ID, l.EmployeeID)
	}

	_, err = svc.ListAll(ctx, alice)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	all, err := svc.ListAll(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Less(t, all[0].ID, all[1].ID)
}

func TestRecordUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newLeaveService()
	created, err := svc.Create(ctx, alice, newLeave())
	require.NoError(t, err)

	t.Run("other employee is denied", func(t *testing.T) {
		_, err := svc.Update(ctx, bob, created.ID, func(l *domain.Leave) error { l.Reason = "hijack"; return nil })
		assert.ErrorIs(t, err, domain.ErrForbidden)

		stored, err := svc.Get(ctx, alice, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Appointment", stored.Reason)
	})

	t.Run("owner cannot hand record to someone else", func(t *testing.T) {
		updated, err := svc.Update(ctx, alice, created.ID, func(l *domain.Leave) error {
			l.Reason = "Checkup"
			l.EmployeeID = bob.ID
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "Checkup", updated.Reason)
		assert.Equal(t, alice.ID, updated.EmployeeID)
	})

	t.Run("admin can reassign", func(t *testing.T) {
		updated, err := svc.Update(ctx, admin, created.ID, func(l *domain.Leave) error {
			l.Status = domain.LeaveStatusApproved
			l.EmployeeID = bob.ID
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, bob.ID, updated.EmployeeID)
		assert.Equal(t, domain.LeaveStatusApproved, updated.Status)
	})

	t.Run("patch error leaves record untouched", func(t *testing.T) {
		patchErr := errors.New("bad body")
		_, err := svc.Update(ctx, admin, created.ID, func(l *domain.Leave) error {
			l.Reason = "half applied"
			return patchErr
		})
		assert.ErrorIs(t, err, patchErr)

		stored, err := svc.Get(ctx, admin, created.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "half applied", stored.Reason)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := svc.Update(ctx, admin, 999, func(*domain.Leave) error { return nil })
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := svc.Update(ctx, admin, 0, func(*domain.Leave) error { return nil })
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestRecordDeleteAndRead(t *testing.T) {
	ctx := context.Background()
	svc := usecase.NewRecordService[domain.Todo](memory.NewRecordStore[domain.Todo]())
	todo := &domain.Todo{Task: "Ship", StartDate: day, EndDate: day.Add(24 * time.Hour), Deadline: day.Add(48 * time.Hour)}
	created, err := svc.Create(ctx, alice, todo)
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.ErrorIs(t, svc.Delete(ctx, bob, created.ID), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, alice, created.ID))

	_, err = svc.Get(ctx, alice, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSalaryIsAdminManaged(t *testing.T) {
	ctx := context.Background()
	svc := usecase.NewRecordService[domain.Salary](memory.NewRecordStore[domain.Salary]())
	require.True(t, svc.AdminManaged())

	newSalary := func() *domain.Salary {
		return &domain.Salary{
			EmployeeID:         alice.ID,
			SalaryAmount:       decimal.RequireFromString("50000"),
			TransportAllowance: decimal.RequireFromString("2500.50"),
			MedicalAllowance:   decimal.RequireFromString("1000"),
			TotalSalary:        decimal.RequireFromString("1"),
			ConfigDate:         day,
		}
	}

	_, err := svc.Create(ctx, alice, newSalary())
	assert.ErrorIs(t, err, domain.ErrForbidden, "employee cannot set own salary")

	created, err := svc.Create(ctx, admin, newSalary())
	require.NoError(t, err)
	assert.Equal(t, alice.ID, created.EmployeeID)
	assert.Equal(t, "53500.5", created.TotalSalary.String())

	mine, err := svc.ListMine(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = svc.Get(ctx, alice, created.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, alice, created.ID, func(s *domain.Salary) error {
		s.SalaryAmount = decimal.RequireFromString("99999")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, alice, created.ID), domain.ErrForbidden)

	updated, err := svc.Update(ctx, admin, created.ID, func(s *domain.Salary) error {
		s.SalaryAmount = decimal.RequireFromString("60000")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "63500.5", updated.TotalSalary.String())
	require.NoError(t, svc.Delete(ctx, admin, created.ID))
}

func TestLeaveIsNotAdminManaged(t *testing.T) {
	assert.False(t, newLeaveService().AdminManaged())
}
