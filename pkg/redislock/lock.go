package redislock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// ErrEmptyKey 鎖的 key 不能為空
	ErrEmptyKey = errors.New("lock key cannot be empty")
	// ErrNilFn fn 不能為 nil
	ErrNilFn = errors.New("lock function is nil")
)

// Config Redis 連線與鎖參數
type Config struct {
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	Expiry     time.Duration `yaml:"lock_expiry"`
	Tries      int           `yaml:"lock_tries"`
	RetryDelay time.Duration `yaml:"lock_retry_delay"`
}

// Enabled 有設定 Addr 才啟用分散式鎖
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

// ApplyDefaults 補全未設定的欄位
func (c *Config) ApplyDefaults() {
	if c.Expiry == 0 {
		c.Expiry = 10 * time.Second
	}
	if c.Tries == 0 {
		c.Tries = 32
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 50 * time.Millisecond
	}
}

// Manager 以 RedLock 演算法在多個服務實例之間互斥
type Manager struct {
	client *redis.Client
	rs     *redsync.Redsync
	cfg    Config
	logger *zap.Logger
}

// NewClient 建立 go-redis client 並 Ping 確認連線
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func NewManager(client *redis.Client, cfg Config, logger *zap.Logger) *Manager {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		client: client,
		rs:     redsync.New(goredis.NewPool(client)),
		cfg:    cfg,
		logger: logger,
	}
}

// WithLock 持有分散式鎖執行 fn，fn 回傳後 (含 panic) 釋放鎖
// fn 的錯誤原樣回傳，呼叫端可以用 errors.Is 判斷
func (m *Manager) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if fn == nil {
		return ErrNilFn
	}

	mutex := m.rs.NewMutex(key,
		redsync.WithExpiry(m.cfg.Expiry),
		redsync.WithTries(m.cfg.Tries),
		redsync.WithRetryDelay(m.cfg.RetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	defer func() {
		// 用獨立的 context 釋放，避免請求已取消時鎖留到過期
		unlockCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if ok, err := mutex.UnlockContext(unlockCtx); !ok || err != nil {
			m.logger.Warn("failed to release lock", zap.String("key", key), zap.Bool("ok", ok), zap.Error(err))
		}
	}()

	return fn(ctx)
}

// Close 關閉底層 client
func (m *Manager) Close() error {
	return m.client.Close()
}
