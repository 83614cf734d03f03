package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "scrollvault/pkg/platform/audit"
)

func TestInMemoryStore_ListBySubject(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.Append(ctx, audit.NewEvent(audit.EventScrollSigned, "scroll_a")))
	require.NoError(t, s.Append(ctx, audit.NewEvent(audit.EventScrollSigned, "scroll_b")))
	require.NoError(t, s.Append(ctx, audit.NewEvent(audit.EventScrollValidated, "scroll_a")))

	events, err := s.ListBySubject(ctx, "scroll_a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(audit.EventScrollSigned), events[0].Action)
	assert.Equal(t, string(audit.EventScrollValidated), events[1].Action)
	assert.Equal(t, audit.CategoryOperations, events[1].Category)
}

func TestInMemoryStore_ListRecent(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	for _, subject := range []string{"one", "two", "three"} {
		require.NoError(t, s.Append(ctx, audit.NewEvent(audit.EventLicenseIssued, subject)))
	}

	recent, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "three", recent[0].Subject)
	assert.Equal(t, "two", recent[1].Subject)

	all, err := s.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	s.Clear()
	all, err = s.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, all)
}
