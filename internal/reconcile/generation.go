package reconcile

import (
	"sync"
	"time"
)

// DefaultIdleTTL is how long a list with no new pass stays tracked.
const DefaultIdleTTL = 30 * time.Minute

// Ticket marks one reconciliation pass over a pending line list.
type Ticket struct {
	ListID     string
	Generation uint64
}

type generation struct {
	seq     uint64
	touched time.Time
}

// Generations hands out increasing tickets per pending list. Starting a
// pass supersedes every earlier pass for the same list; callers drop the
// results of a superseded pass instead of cancelling it.
//
// Lists that see no new pass for the idle TTL are dropped, and a pass still
// running on such a list is reported stale.
type Generations struct {
	mu        sync.Mutex
	seq       uint64
	current   map[string]generation
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewGenerations creates an empty tracker. If no idle TTL is provided,
// DefaultIdleTTL is used.
func NewGenerations(idle ...time.Duration) *Generations {
	ttl := DefaultIdleTTL
	if len(idle) > 0 && idle[0] > 0 {
		ttl = idle[0]
	}
	return &Generations{
		current: make(map[string]generation),
		idle:    ttl,
		now:     time.Now,
	}
}

// Begin starts a pass for listID. An empty listID is untracked and its
// ticket is always current.
func (g *Generations) Begin(listID string) Ticket {
	if listID == "" {
		return Ticket{}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.Sub(g.lastSweep) >= g.idle {
		g.sweep(now)
	}

	// One sequence across all lists keeps tickets unique after Forget.
	g.seq++
	g.current[listID] = generation{seq: g.seq, touched: now}
	return Ticket{ListID: listID, Generation: g.seq}
}

// Current reports whether t is still the newest pass for its list.
func (g *Generations) Current(t Ticket) bool {
	if t.ListID == "" {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	gen, ok := g.current[t.ListID]
	return ok && gen.seq == t.Generation
}

// Forget drops the counter for a list whose lines were submitted.
func (g *Generations) Forget(listID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.current, listID)
}

// Len is the number of lists currently tracked.
func (g *Generations) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.current)
}

// sweep drops idle lists. Callers hold mu.
func (g *Generations) sweep(now time.Time) {
	for listID, gen := range g.current {
		if now.Sub(gen.touched) >= g.idle {
			delete(g.current, listID)
		}
	}
	g.lastSweep = now
}
