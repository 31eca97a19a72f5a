// Package dedupe tracks record identities so that a record is used at most once.
package dedupe

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// keySeparator cannot appear in a trimmed CSV identifier cell.
const keySeparator = "\x1f"

// Deduper records seen record keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Size returns the number of distinct keys recorded.
	Size() int64
}

// RecordKey builds the identity of a daily record from its user and date.
// Surrounding whitespace and letter case of the user id are ignored.
func RecordKey(userID, date string) string {
	return strings.ToLower(strings.TrimSpace(userID)) + keySeparator + strings.TrimSpace(date)
}

// inMemoryDeduper implements Deduper with an unbounded set. Training data is
// read once, so every key must be kept for the run to stay exact.
type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
	size atomic.Int64
	hint int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.hint)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
