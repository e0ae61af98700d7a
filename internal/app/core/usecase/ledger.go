package usecase

import (
	"context"

	"github.com/JoeShih716/go-office-ledger/internal/app/core/domain"
)

// BuildEntryFunc 依前一筆分錄 (可能為 nil) 產生新分錄，在儲存層的原子區段內被呼叫
type BuildEntryFunc func(prev *domain.LedgerEntry) (*domain.LedgerEntry, error)

// Ledger 是員工帳戶分錄的儲存介面
type Ledger interface {
	// AppendEntry 讀取員工最新分錄、呼叫 build、寫入新分錄，三步驟對同一員工必須是原子的
	// 員工不存在回傳 domain.ErrNotFound，唯一鍵衝突回傳 domain.ErrConflict
	AppendEntry(ctx context.Context, employeeID int64, build BuildEntryFunc) (*domain.LedgerEntry, error)
	// LatestEntry 取得最新一筆分錄，沒有分錄時回傳 nil, nil
	LatestEntry(ctx context.Context, employeeID int64) (*domain.LedgerEntry, error)
	// ListEntries 列出該類型金額大於 0 的分錄，依交易日期遞增
	ListEntries(ctx context.Context, employeeID int64, kind domain.TransactionKind) ([]domain.LedgerEntry, error)
}

// Locker 以 key 互斥執行 fn，用於跨行程序列化同一員工的寫入
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// EventPublisher 發布領域事件
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

// LedgerMetrics 帳務指標
type LedgerMetrics interface {
	TransactionRecorded(kind string)
	ConflictDetected()
}
