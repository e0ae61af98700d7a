package mysql

import (
	"gorm.io/gorm"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
)

// Migrate 建立或更新所有資料表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&sqlEmployee{},
		&sqlLedgerEntry{},
		&domain.Leave{},
		&domain.Todo{},
		&domain.Progress{},
		&domain.Attendance{},
		&domain.Salary{},
		&domain.Lifeline{},
	)
}
