package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/tchat/internal/types"
)

const window = 5 * time.Second

func message(id string, role types.Role, content string, timestamp int64) *types.Message {
	return &types.Message{ID: id, Role: role, Content: content, CreationTimestamp: timestamp}
}

func ids(messages []*types.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.ID
	}
	return out
}

func TestReconcileWithoutDuplicatesIsIdentity(t *testing.T) {
	r := New(window)
	persisted := []*types.Message{
		message("u1", types.RoleUser, "first", 1_000_000),
		message("a1", types.RoleAssistant, "reply", 8_000_000),
		message("u2", types.RoleUser, "second", 20_000_000),
	}

	out := r.Reconcile(persisted, nil, false)
	assert.Equal(t, []string{"u1", "a1", "u2"}, ids(out))

	// Idempotence: reconciling again returns the same identities in the
	// same order.
	again := r.Reconcile(out, nil, false)
	assert.Equal(t, ids(out), ids(again))
}

func TestIdentityCollapse(t *testing.T) {
	r := New(window)
	persisted := []*types.Message{
		message("m1", types.RoleUser, "hi", 1_000_000),
		message("m1", types.RoleUser, "hi", 2_000_000),
	}
	out := r.Reconcile(persisted, nil, false)
	require.Len(t, out, 1)
	// First-seen wins, including its timestamp.
	assert.Equal(t, int64(1_000_000), out[0].CreationTimestamp)
}

func TestContentWindowCollapse(t *testing.T) {
	// An optimistic user message and its server echo carry different
	// identities but identical content inside the window.
	r := New(window)
	persisted := []*types.Message{
		message("tmp-1", types.RoleUser, "ok", 1_000_000),
		message("srv-9", types.RoleUser, "ok", 3_000_000),
	}
	out := r.Reconcile(persisted, nil, false)
	require.Len(t, out, 1)
	assert.Equal(t, "tmp-1", out[0].ID)
}

func TestDistinctMessagesOutsideWindowSurvive(t *testing.T) {
	r := New(window)
	persisted := []*types.Message{
		message("m1", types.RoleUser, "ok", 1_000_000),
		message("m2", types.RoleUser, "ok", 60_000_000),
	}
	out := r.Reconcile(persisted, nil, false)
	assert.Len(t, out, 2)
}

func TestStreamingMessageMergesIncrementally(t *testing.T) {
	r := New(window)
	persisted := []*types.Message{
		message("u1", types.RoleUser, "say hello", 1_000_000),
	}

	streaming := message("stream-1", types.RoleAssistant, "Hel", 0)
	out := r.Reconcile(persisted, streaming, true)
	require.Len(t, out, 2)
	assert.Equal(t, "Hel", out[1].Content)
	firstTimestamp := out[1].CreationTimestamp

	// The next fragment grows the same message; one assistant message,
	// same stabilized timestamp, same position.
	streaming.Content = "Hello"
	out = r.Reconcile(persisted, streaming, true)
	require.Len(t, out, 2)
	assert.Equal(t, "stream-1", out[1].ID)
	assert.Equal(t, "Hello", out[1].Content)
	assert.Equal(t, firstTimestamp, out[1].CreationTimestamp)
}

func TestStreamingExcludedWhenInactive(t *testing.T) {
	r := New(window)
	persisted := []*types.Message{message("u1", types.RoleUser, "hi", 1_000_000)}
	streaming := message("stream-1", types.RoleAssistant, "partial", 0)

	out := r.Reconcile(persisted, streaming, false)
	assert.Equal(t, []string{"u1"}, ids(out))
}

func TestTimestampStability(t *testing.T) {
	r := New(window)
	// No explicit timestamp: one is assigned on first observation.
	m := message("m1", types.RoleUser, "hi", 0)
	out := r.Reconcile([]*types.Message{m}, nil, false)
	require.Len(t, out, 1)
	assigned := out[0].CreationTimestamp
	require.NotZero(t, assigned)

	// A later observation of the same identity with a different explicit
	// timestamp does not move it.
	relabeled := message("m1", types.RoleUser, "hi", 99_000_000)
	for i := 0; i < 3; i++ {
		out = r.Reconcile([]*types.Message{relabeled}, nil, false)
		require.Len(t, out, 1)
		assert.Equal(t, assigned, out[0].CreationTimestamp)
	}
}

func TestOrderingInvariant(t *testing.T) {
	r := New(window)
	persisted := []*types.Message{
		message("late", types.RoleUser, "late", 60_000_000),
		message("early", types.RoleAssistant, "early", 1_000_000),
	}
	out := r.Reconcile(persisted, nil, false)
	assert.Equal(t, []string{"early", "late"}, ids(out))
}

func TestUserBeforeAssistantWithinWindow(t *testing.T) {
	r := New(window)
	// Recorded at virtually the same instant, assistant first in input.
	persisted := []*types.Message{
		message("a1", types.RoleAssistant, "reply", 1_002_000),
		message("u1", types.RoleUser, "question", 1_000_000),
	}
	out := r.Reconcile(persisted, nil, false)
	assert.Equal(t, []string{"u1", "a1"}, ids(out))
}

func TestScenarioD(t *testing.T) {
	// Two messages, one optimistic (tmp-1, "ok", t=1000ms) and one
	// server-echoed (srv-9, "ok", t=1002ms), within a 5000ms window.
	r := New(window)
	persisted := []*types.Message{
		message("tmp-1", types.RoleUser, "ok", 1_000_000),
		message("srv-9", types.RoleUser, "ok", 1_002_000),
	}
	out := r.Reconcile(persisted, nil, false)
	require.Len(t, out, 1)
}
