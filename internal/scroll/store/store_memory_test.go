package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrollvault/internal/scroll/models"
	"scrollvault/pkg/platform/sentinel"
)

func newScroll(id string, pos int64) *models.Scroll {
	return &models.Scroll{
		ID:             id,
		AppConcept:     "orbital greenhouse",
		FundingAmount:  75000,
		TreatyPosition: pos,
		Timestamp:      "2025-01-01T00:00:00Z",
		Signature:      "ab",
		CreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestInMemoryLedger_Positions(t *testing.T) {
	ctx := context.Background()
	l := NewInMemoryLedger(247)

	cur, err := l.CurrentPosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(247), cur)

	next, err := l.NextPosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(248), next)

	cur, err = l.CurrentPosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(248), cur)
}

func TestInMemoryLedger_ConcurrentPositionsAreUnique(t *testing.T) {
	ctx := context.Background()
	l := NewInMemoryLedger(0)

	const n = 200
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool, n)
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pos, err := l.NextPosition(ctx)
			assert.NoError(t, err)
			mu.Lock()
			seen[pos] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

func TestInMemoryLedger_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	l := NewInMemoryLedger(247)

	s := newScroll("scroll_faa_1_deadbeef", 248)
	require.NoError(t, l.Save(ctx, s))
	assert.ErrorIs(t, l.Save(ctx, s), ErrDuplicateScroll)

	got, err := l.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	got.AppConcept = "mutated"
	again, err := l.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "orbital greenhouse", again.AppConcept, "returned scrolls must be copies")

	_, err = l.FindByID(ctx, "scroll_faa_1_00000000")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	count, err := l.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
