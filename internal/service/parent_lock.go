package service

import "sync"

// ParentLocker 按父商品串行化库存回算
type ParentLocker interface {
	Lock(parentID uint) (unlock func(), err error)
}

type parentLockEntry struct {
	mu   sync.Mutex
	refs int
}

// LocalParentLocker 进程内按父商品ID加锁
type LocalParentLocker struct {
	mu      sync.Mutex
	entries map[uint]*parentLockEntry
}

// NewLocalParentLocker 创建进程内父商品锁
func NewLocalParentLocker() *LocalParentLocker {
	return &LocalParentLocker{entries: make(map[uint]*parentLockEntry)}
}

// Lock 获取父商品锁，返回的 unlock 只能调用一次
func (l *LocalParentLocker) Lock(parentID uint) (func(), error) {
	l.mu.Lock()
	entry, ok := l.entries[parentID]
	if !ok {
		entry = &parentLockEntry{}
		l.entries[parentID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.entries, parentID)
			}
			l.mu.Unlock()
		})
	}, nil
}
