package shape

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownShape is returned when a name is not registered.
var ErrUnknownShape = errors.New("unknown shape")

// Library is a named table of shared shape handles, so many entities can
// reference one lowered solid.
type Library struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

func NewLibrary() *Library {
	return &Library{handles: make(map[string]*Handle)}
}

// Register lowers s and stores it under name, replacing any previous entry.
func (l *Library) Register(name string, s Shape) *Handle {
	h := NewHandle(s)
	l.mu.Lock()
	l.handles[name] = h
	l.mu.Unlock()
	return h
}

// Get returns the handle stored under name.
func (l *Library) Get(name string) (*Handle, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	h, ok := l.handles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, name)
	}
	return h, nil
}

// NameOf finds the name a handle is registered under.
func (l *Library) NameOf(h *Handle) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for name, candidate := range l.handles {
		if candidate == h {
			return name, true
		}
	}
	return "", false
}

// Names returns the registered names in sorted order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.handles))
	for name := range l.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Records returns every entry as an encodable record.
func (l *Library) Records() map[string]Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]Record, len(l.handles))
	for name, h := range l.handles {
		out[name] = Record{Shape: h.Shape()}
	}
	return out
}

// LoadRecords registers every decoded record.
func (l *Library) LoadRecords(records map[string]Record) {
	for name, r := range records {
		l.Register(name, r.Shape)
	}
}

func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.handles)
}
