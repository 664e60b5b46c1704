package service

import (
	"sync"
)

// 互斥锁的固定键名，每类昂贵操作各占一个。
const (
	LockKeyScan         = "scan"
	LockKeyGeneration   = "generation"
	LockKeySiteSchedule = "site_schedule"
	LockKeySocialShare  = "social_share"
)

// LockService 提供按键命名的单飞锁：同键的第二个请求被直接拒绝，
// 而不是排队等待。锁只在进程内存活，进程退出即全部释放。
type LockService struct {
	mu     sync.Mutex
	owners map[string]string
}

// NewLockService 构造空的 LockService。
func NewLockService() *LockService {
	return &LockService{owners: make(map[string]string)}
}

// TryAcquire 尝试以 owner 身份获取 key 对应的锁。
// 已被占用时返回 false，调用方应立即报错而非重试。
func (l *LockService) TryAcquire(key, owner string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.owners[key]; held {
		return false
	}
	l.owners[key] = owner
	return true
}

// Release 释放 key 对应的锁。释放未持有的锁是无害的空操作。
func (l *LockService) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.owners, key)
}

// Owner 返回当前持有者标识，便于诊断接口暴露"谁在跑"。
func (l *LockService) Owner(key string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	owner, held := l.owners[key]
	return owner, held
}
