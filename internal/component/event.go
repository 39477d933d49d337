package component

import (
	"sort"
	"sync"
)

// Event is the unit of work passed through the algorithm sequence. Its data
// store may be read and written concurrently.
type Event struct {
	Number int64

	mu   sync.RWMutex
	data map[string]any
}

// NewEvent creates an empty event.
func NewEvent(number int64) *Event {
	return &Event{Number: number, data: make(map[string]any)}
}

// Put stores a value under key, replacing any previous value.
func (e *Event) Put(key string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data[key] = value
}

// Get returns the value stored under key.
func (e *Event) Get(key string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.data[key]
	return v, ok
}

// Keys returns the stored keys in sorted order.
func (e *Event) Keys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.data))
	for k := range e.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a shallow copy of the data store.
func (e *Event) Snapshot() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]any, len(e.data))
	for k, v := range e.data {
		out[k] = v
	}
	return out
}
