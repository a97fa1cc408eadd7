// Copyright 2025-2026 Andres Torres

package slack

import (
	"sync"
	"time"
)

// echoTTL bounds how long a sent-message timestamp stays tracked. If the
// echo has not come back on the live feed by then, it never will.
const echoTTL = 10 * time.Second

// echoTracker remembers the timestamps of messages this process just sent,
// so their inbound copies can be recognized and dropped. Entries are
// removed when matched or when they expire, whichever comes first.
type echoTracker struct {
	now func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time
}

func newEchoTracker(now func() time.Time) *echoTracker {
	if now == nil {
		now = time.Now
	}
	return &echoTracker{
		now:     now,
		entries: make(map[string]time.Time),
	}
}

// Add records the timestamp of a message we just sent.
func (t *echoTracker) Add(ts string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[ts] = t.now()
}

// Consume reports whether ts belongs to one of our own sends, removing the
// entry so a second arrival of the same timestamp is treated as a normal
// message. Expired entries never match.
func (t *echoTracker) Consume(ts string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.purgeLocked()
	if _, ok := t.entries[ts]; !ok {
		return false
	}
	delete(t.entries, ts)
	return true
}

func (t *echoTracker) purgeLocked() {
	cutoff := t.now().Add(-echoTTL)
	for ts, added := range t.entries {
		if !added.After(cutoff) {
			delete(t.entries, ts)
		}
	}
}
