package services

import (
	"sort"
	"sync"
)

// keyLocks serializes operations on the same keys inside one process.
// Keys are always acquired in sorted order.
type keyLocks struct {
	enabled bool
	mu      sync.Mutex
	locks   map[string]*sync.Mutex
}

func newKeyLocks(enabled bool) *keyLocks {
	return &keyLocks{enabled: enabled, locks: make(map[string]*sync.Mutex)}
}

func (l *keyLocks) lockKeys(keys ...string) func() {
	if !l.enabled || len(keys) == 0 {
		return func() {}
	}
	keys = append([]string(nil), keys...)
	sort.Strings(keys)
	l.mu.Lock()
	acquired := make([]*sync.Mutex, 0, len(keys))
	for i, k := range keys {
		if i > 0 && keys[i-1] == k {
			continue
		}
		m := l.locks[k]
		if m == nil {
			m = &sync.Mutex{}
			l.locks[k] = m
		}
		acquired = append(acquired, m)
	}
	l.mu.Unlock()
	for _, m := range acquired {
		m.Lock()
	}
	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}

func kioskLockKey(kioskID string) string {
	return "kiosk:" + kioskID
}
