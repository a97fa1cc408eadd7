// Copyright 2025-2026 Andres Torres

package slack

import "sync"

// sendGate orders outbound sends before inbound event processing: while a
// send is in flight the live-feed consumer must not run, or the echo
// tracker could miss the send's own timestamp coming back on the feed.
type sendGate struct {
	mu       sync.Mutex
	cond     *sync.Cond
	inflight int
}

func newSendGate() *sendGate {
	g := &sendGate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Begin marks a send as in flight. Re-entrant: sends may nest.
func (g *sendGate) Begin() {
	g.mu.Lock()
	g.inflight++
	g.mu.Unlock()
}

// End marks a send as recorded and wakes any waiting feed consumer.
func (g *sendGate) End() {
	g.mu.Lock()
	g.inflight--
	g.cond.Broadcast()
	g.mu.Unlock()
}

// Wait blocks until no send is in flight.
func (g *sendGate) Wait() {
	g.mu.Lock()
	for g.inflight > 0 {
		g.cond.Wait()
	}
	g.mu.Unlock()
}
