package booking

import "sync"

// resourceLocker serializes conflict check + insert per resource id, so two
// requests targeting overlapping slots on the same resource are strictly
// ordered. Operations on different resources proceed fully in parallel.
type resourceLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// acquire locks the given resource's calendar and returns the unlock func.
func (l *resourceLocker) acquire(resourceID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[resourceID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[resourceID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
