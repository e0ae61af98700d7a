package keylock

import (
	"context"
	"sync"
)

// entry 單一 key 的鎖，refs 歸零時從 map 移除
type entry struct {
	ch   chan struct{}
	refs int
}

// KeyLock 依 key 互斥的行程內鎖，不同 key 之間互不阻塞
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

// Lock 取得 key 的鎖，ctx 取消時放棄等待並回傳 ctx.Err()
func (k *KeyLock) Lock(ctx context.Context, key string) (unlock func(), err error) {
	e := k.acquire(key)
	select {
	case e.ch <- struct{}{}:
		return func() {
			<-e.ch
			k.release(key)
		}, nil
	case <-ctx.Done():
		k.release(key)
		return nil, ctx.Err()
	}
}

// WithLock 持有 key 的鎖執行 fn
func (k *KeyLock) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	unlock, err := k.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()
	return fn(ctx)
}

// Len 目前被持有或等待中的 key 數量
func (k *KeyLock) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func (k *KeyLock) acquire(key string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	return e
}

func (k *KeyLock) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.locks[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}
