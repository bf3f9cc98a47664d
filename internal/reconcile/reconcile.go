// Package reconcile merges the persisted message list of a chat with the
// in-flight assistant message of a live stream, and produces the ordered
// sequence the UI renders. The same logical message can be observed as an
// optimistic write, a server echo, or a stream fragment, under different
// identifiers and timestamps; reconciliation collapses them to one.
package reconcile

import (
	"sort"
	"sync"
	"time"

	"github.com/malonaz/tchat/internal/types"
)

// DefaultWindow is the similarity window used to group near-simultaneous
// observations of the same logical message.
const DefaultWindow = 5 * time.Second

// Reconciler holds the per-session timestamp assignments that keep message
// order stable across re-renders. Construct one per chat session.
type Reconciler struct {
	window int64 // microseconds

	mu         sync.Mutex
	stabilized map[string]int64
	now        func() int64
}

// New returns a reconciler with the given similarity window.
func New(window time.Duration) *Reconciler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Reconciler{
		window:     window.Microseconds(),
		stabilized: map[string]int64{},
		now:        types.Now,
	}
}

// Reconcile merges persisted messages with the streaming assistant message.
// When no stream is active the output is the persisted set alone. The
// output is ordered by stabilized timestamp, deduplicated, and stable
// across repeated calls.
func (r *Reconciler) Reconcile(persisted []*types.Message, streaming *types.Message, streamingActive bool) []*types.Message {
	combined := make([]*types.Message, 0, len(persisted)+1)
	combined = append(combined, persisted...)
	if streamingActive && streaming != nil {
		combined = append(combined, streaming)
	}

	type entry struct {
		message   *types.Message
		timestamp int64
	}

	// First-seen wins, both for identity collapse and for the
	// content+window heuristic that catches an optimistic message and its
	// server echo carrying different identities.
	var entries []entry
	seen := map[string]struct{}{}
	for _, message := range combined {
		timestamp := r.stabilize(message.ID, message.CreationTimestamp)
		if _, ok := seen[message.ID]; ok {
			continue
		}
		seen[message.ID] = struct{}{}

		duplicate := false
		for _, kept := range entries {
			if kept.message.Role == message.Role &&
				kept.message.Content == message.Content &&
				absInt64(kept.timestamp-timestamp) <= r.window {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		entries = append(entries, entry{message: message, timestamp: timestamp})
	}

	// Within the similarity window a user message precedes an assistant
	// message: the human turn must visually precede the reply it triggered.
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if absInt64(a.timestamp-b.timestamp) <= r.window {
			if a.message.Role == types.RoleUser && b.message.Role == types.RoleAssistant {
				return true
			}
			if a.message.Role == types.RoleAssistant && b.message.Role == types.RoleUser {
				return false
			}
			return false
		}
		return a.timestamp < b.timestamp
	})

	ordered := make([]*types.Message, 0, len(entries))
	for _, e := range entries {
		message := e.message
		if message.CreationTimestamp != e.timestamp {
			message = message.Clone()
			message.CreationTimestamp = e.timestamp
		}
		ordered = append(ordered, message)
	}
	return ordered
}

// StabilizedTimestamp returns the timestamp assigned to a message identity,
// if one has been observed.
func (r *Reconciler) StabilizedTimestamp(id string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	timestamp, ok := r.stabilized[id]
	return timestamp, ok
}

// stabilize assigns a timestamp to an identity on first observation,
// preferring an explicit one, and reuses that assignment forever after.
// Re-deriving would make message order jitter as stream fragments update
// the same message repeatedly.
func (r *Reconciler) stabilize(id string, explicit int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if timestamp, ok := r.stabilized[id]; ok {
		return timestamp
	}
	timestamp := explicit
	if timestamp == 0 {
		timestamp = r.now()
	}
	r.stabilized[id] = timestamp
	return timestamp
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
