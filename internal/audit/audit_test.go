package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitFillsIDAndTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	ctx := context.Background()

	require.NoError(t, pub.Emit(ctx, Event{
		IdentityID: "id-1",
		Action:     ActionProofRejected,
		TemplateID: "age_over_18_and_resident_pt",
		Decision:   "deny",
		Reason:     "commitment_mismatch",
	}))

	events, err := pub.List(ctx, "id-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, "commitment_mismatch", events[0].Reason)
}

func TestAppendOnlyInsertionOrder(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	ctx := context.Background()

	for _, action := range []string{ActionProofIssued, ActionProofVerified, ActionProofRejected} {
		require.NoError(t, pub.Emit(ctx, Event{IdentityID: "id-1", Action: action}))
	}
	require.NoError(t, pub.Emit(ctx, Event{IdentityID: "id-2", Action: ActionProofIssued}))

	events, err := pub.List(ctx, "id-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, ActionProofIssued, events[0].Action)
	assert.Equal(t, ActionProofVerified, events[1].Action)
	assert.Equal(t, ActionProofRejected, events[2].Action)
}
