package session

import "sync"

// Locker hands out one mutex per identity so a visitor's turns run one at
// a time while different visitors proceed in parallel.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*lockEntry)}
}

// Lock blocks until identity is free and returns the matching unlock.
func (l *Locker) Lock(identity string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.locks[identity]
	if !ok {
		e = &lockEntry{}
		l.locks[identity] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, identity)
		}
		l.mu.Unlock()
	}
}

// held returns the number of identities with a holder or waiter.
func (l *Locker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
