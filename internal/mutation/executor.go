// Package mutation implements the optimistic write protocol of the
// synchronization layer. Every write (create message, pin, unpin, archive,
// delete, rename) runs the same three phases: snapshot the cache entries
// it touches, apply the post-mutation view synchronously, then settle
// against the gateway response or roll back. New mutation kinds supply
// only the phase functions; the executor owns the control flow.
package mutation

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/cache"
	"github.com/malonaz/tchat/internal/debug"
	"github.com/malonaz/tchat/internal/gateway"
	"github.com/malonaz/tchat/internal/types"
)

// Mutation supplies the phases of one optimistic write.
type Mutation interface {
	// Kind names the mutation for logging.
	Kind() string
	// Validate rejects bad input before any optimistic apply happens.
	Validate() error
	// Keys returns the cache entries this mutation touches. The snapshot
	// taken over them is the rollback unit.
	Keys() []cache.Key
	// Apply writes the synthesized post-mutation view into the cache.
	Apply(c *cache.Cache)
	// Call issues the gateway request and returns the server entity.
	Call(ctx context.Context) (interface{}, error)
	// Settle reconciles the optimistic view with the server result.
	Settle(c *cache.Cache, result interface{})
}

// Refresher re-fetches the given views from the gateway, to pick up
// server-side effects not representable optimistically (computed titles,
// concurrent update bumps). Implementations decide how to schedule.
type Refresher func(keys []cache.Key)

// Executor runs mutations against a cache. The executor's lock serializes
// the synchronous phases, so a snapshot-apply or settle sequence is never
// interleaved by another mutation; only the gateway call awaits unlocked.
type Executor struct {
	mu        sync.Mutex
	cache     *cache.Cache
	refresher Refresher
}

// NewExecutor returns an executor over the given cache.
func NewExecutor(c *cache.Cache) *Executor {
	return &Executor{cache: c}
}

// SetRefresher installs the post-settle refresh hook.
func (e *Executor) SetRefresher(refresher Refresher) {
	e.refresher = refresher
}

// Cache returns the cache this executor writes to.
func (e *Executor) Cache() *cache.Cache {
	return e.cache
}

// Apply runs a mutation to completion. Rollback-eligible failures are
// returned as a *types.Failure after the cache has been restored; the
// cache is consistent by the time Apply returns, whatever the outcome.
func (e *Executor) Apply(ctx context.Context, m Mutation) error {
	logger := debug.GetLogger()

	if err := m.Validate(); err != nil {
		return types.NewFailure(types.FailureValidation, err)
	}

	keys := m.Keys()
	e.mu.Lock()
	snapshot := e.cache.TakeSnapshot(keys...)
	m.Apply(e.cache)
	e.mu.Unlock()

	result, err := m.Call(ctx)

	e.mu.Lock()
	if err != nil {
		// Restore entire entries, not fields: a partial rollback would
		// leave the view inconsistent.
		e.cache.Restore(snapshot)
		e.mu.Unlock()
		logger.Debug("mutation rolled back", "kind", m.Kind(), "error", err)
		e.scheduleRefresh(keys)
		return e.failureFor(err)
	}
	m.Settle(e.cache, result)
	e.mu.Unlock()
	logger.Debug("mutation settled", "kind", m.Kind())
	e.scheduleRefresh(keys)
	return nil
}

func (e *Executor) scheduleRefresh(keys []cache.Key) {
	if e.refresher != nil {
		e.refresher(keys)
	}
}

func (e *Executor) failureFor(err error) error {
	if errors.Is(err, gateway.ErrNotFound) {
		return types.NewFailure(types.FailureConflict, err)
	}
	return types.NewFailure(types.FailureNetwork, err)
}

// findChat returns the index of a chat in a list, or -1.
func findChat(chats []*types.Chat, chatID string) int {
	for i, chat := range chats {
		if chat.ID == chatID {
			return i
		}
	}
	return -1
}

// removeChat filters a chat out of a list.
func removeChat(chats []*types.Chat, chatID string) []*types.Chat {
	filtered := make([]*types.Chat, 0, len(chats))
	for _, chat := range chats {
		if chat.ID != chatID {
			filtered = append(filtered, chat)
		}
	}
	return filtered
}
