package locks

import (
	"context"
	"fmt"
	"sync"
)

type keyLock struct {
	held chan struct{}
	refs int
}

// Local is an in-process Locker. Entries are dropped once nobody holds or waits for them.
type Local struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

func NewLocal() *Local {
	return &Local{locks: make(map[string]*keyLock)}
}

func (l *Local) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()

	entry, ok := l.locks[key]
	if !ok {
		entry = &keyLock{held: make(chan struct{}, 1)}
		l.locks[key] = entry
	}

	entry.refs++
	l.mu.Unlock()

	select {
	case entry.held <- struct{}{}:
	case <-ctx.Done():
		l.release(key, entry)

		return nil, fmt.Errorf("%w %s: %w", ErrLockTimeout, key, ctx.Err())
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			<-entry.held
			l.release(key, entry)
		})
	}, nil
}

func (l *Local) release(key string, entry *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

// Len returns the number of keys currently held or awaited.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
