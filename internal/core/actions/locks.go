package actions

import "sync"

// nameLocks is a keyed try-lock: at most one holder per service name, with
// entries living only as long as the operation that took them. Unrelated
// names never contend.
type nameLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newNameLocks() *nameLocks {
	return &nameLocks{held: make(map[string]struct{})}
}

// acquire takes the lock for name, reporting false when it is already held.
func (l *nameLocks) acquire(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[name]; busy {
		return false
	}
	l.held[name] = struct{}{}
	return true
}

func (l *nameLocks) release(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, name)
}
