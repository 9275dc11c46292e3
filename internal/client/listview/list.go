// Package listview keeps a locally displayed collection in step with the
// backend. Creates and deletes are applied to the local copy from the server's
// answer, so only the initial load (and explicit reloads) fetch the whole set.
//
// Operations on one List are serialized: the remote call and the local apply
// of an operation run under a single lock, so a reload can never land on top
// of a delete that was issued before it.
package listview

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Status is the load state of a list.
type Status int

const (
	// Idle means no load has completed yet.
	Idle Status = iota
	// Loading means a load is in flight.
	Loading
	// Loaded means at least one load succeeded.
	Loaded
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Placement says where a created entry goes.
type Placement int

const (
	// Append adds the entry at the tail.
	Append Placement = iota
	// Prepend adds the entry at the head (newest first).
	Prepend
)

// List is an ordered collection of T identified by K.
type List[T any, K comparable] struct {
	name string
	key  func(T) K
	log  *zap.Logger

	op sync.Mutex

	mu       sync.RWMutex
	items    []T
	status   Status
	selected *K
	busy     map[K]struct{}
}

// New returns an empty list. name tags log entries; key extracts the identity
// of an entry.
func New[T any, K comparable](name string, key func(T) K, log *zap.Logger) *List[T, K] {
	if log == nil {
		log = zap.NewNop()
	}
	return &List[T, K]{
		name: name,
		key:  key,
		log:  log.With(zap.String("list", name)),
		busy: make(map[K]struct{}),
	}
}

// Load replaces the collection with the result of fetch. On failure the
// previous collection and status are kept and the error is logged and returned.
func (l *List[T, K]) Load(ctx context.Context, fetch func(context.Context) ([]T, error)) error {
	l.op.Lock()
	defer l.op.Unlock()

	l.mu.Lock()
	prev := l.status
	l.status = Loading
	l.mu.Unlock()

	items, err := fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.status = prev
		l.log.Error("load failed", zap.Error(err))
		return err
	}
	l.items = append([]T(nil), items...)
	l.status = Loaded
	l.log.Debug("loaded", zap.Int("count", len(items)))
	return nil
}

// Create runs create and inserts the entry it returns. The returned entry
// carries the server's canonical key. On failure nothing changes.
func (l *List[T, K]) Create(ctx context.Context, create func(context.Context) (T, error), at Placement) (T, error) {
	l.op.Lock()
	defer l.op.Unlock()

	item, err := create(ctx)
	if err != nil {
		l.log.Warn("create failed", zap.Error(err))
		return item, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if at == Prepend {
		l.items = append([]T{item}, l.items...)
	} else {
		l.items = append(l.items, item)
	}
	return item, nil
}

// Delete runs remove and then drops every entry whose key equals key. If the
// selection held key it is cleared. On failure nothing changes and the error
// is logged and returned.
func (l *List[T, K]) Delete(ctx context.Context, key K, remove func(context.Context) error) error {
	l.mu.Lock()
	l.busy[key] = struct{}{}
	l.mu.Unlock()

	l.op.Lock()
	defer l.op.Unlock()

	err := remove(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.busy, key)
	if err != nil {
		l.log.Error("delete failed", zap.Error(err))
		return err
	}

	kept := l.items[:0:0]
	for _, it := range l.items {
		if l.key(it) != key {
			kept = append(kept, it)
		}
	}
	l.items = kept
	if l.selected != nil && *l.selected == key {
		l.selected = nil
	}
	return nil
}

// Items returns a copy of the current collection.
func (l *List[T, K]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.items...)
}

// Status returns the load state.
func (l *List[T, K]) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

// Empty reports a completed load with nothing in it. It is false while the
// first load is in flight.
func (l *List[T, K]) Empty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status == Loaded && len(l.items) == 0
}

// Find returns the entry with key.
func (l *List[T, K]) Find(key K) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if l.key(it) == key {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Select marks key as the current entry.
func (l *List[T, K]) Select(key K) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := key
	l.selected = &k
}

// Selected returns the current entry's key, if any.
func (l *List[T, K]) Selected() (K, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.selected == nil {
		var zero K
		return zero, false
	}
	return *l.selected, true
}

// ClearSelection drops the current entry.
func (l *List[T, K]) ClearSelection() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selected = nil
}

// Busy reports whether a delete of key is waiting or in flight.
func (l *List[T, K]) Busy(key K) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.busy[key]
	return ok
}

// DedupBy keeps the first entry of each key, in order.
func DedupBy[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
