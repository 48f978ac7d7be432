package state

import "sync"

// Memory is the in-process Store. Entries never expire; they are replaced by the
// next Put or removed by Take.
type Memory struct {
	mu      sync.Mutex
	pending map[int64]string
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{pending: make(map[int64]string)}
}

// Put stores value for userID, overwriting any earlier selection.
func (m *Memory) Put(userID int64, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[userID] = value
}

// Take reads and clears the selection of userID under a single lock.
func (m *Memory) Take(userID int64) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.pending[userID]
	if ok {
		delete(m.pending, userID)
	}
	return v, ok
}

// Peek returns the selection of userID, if any.
func (m *Memory) Peek(userID int64) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.pending[userID]
	return v, ok
}

// Len returns the number of users with a pending selection.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
