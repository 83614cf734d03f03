package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "scrollvault/pkg/platform/audit"
	"scrollvault/pkg/platform/audit/store/memory"
)

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.NewEvent(audit.EventScrollSigned, "scroll_1"))
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "scroll_1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventScrollSigned), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.NewEvent(audit.EventLicenseIssued, "license_1"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		events, err := pub.List(context.Background(), "license_1")
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.NewEvent(audit.EventScrollSigned, "scroll_1")))
	}

	pub.Close()

	events, err := store.ListBySubject(context.Background(), "scroll_1")
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	pub.Close()
	pub.Close()

	err := pub.Emit(context.Background(), audit.NewEvent(audit.EventScrollSigned, "x"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.NewEvent(audit.EventScrollValidated, "s"))
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_AsyncCancelledContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pub.Emit(ctx, audit.NewEvent(audit.EventScrollSigned, "scroll_cancelled"))
	assert.ErrorIs(t, err, context.Canceled)

	pub.Close()
	events, err := store.ListBySubject(context.Background(), "scroll_cancelled")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPublisher_SetsTimestampAndCategory(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	pub := NewPublisher(memory.NewInMemoryStore(), WithClock(func() time.Time { return fixed }))
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Action:  string(audit.EventTokenRejected),
		Subject: "anonymous",
	}))

	events, err := pub.List(context.Background(), "anonymous")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore())
	defer pub.Close()

	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	event := audit.NewEvent(audit.EventScrollSigned, "scroll_1")
	event.Timestamp = customTime
	require.NoError(t, pub.Emit(context.Background(), event))

	events, err := pub.List(context.Background(), "scroll_1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_SinksReceiveEvents(t *testing.T) {
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("broker down")}

	pub := NewPublisher(memory.NewInMemoryStore(), WithSinks(failing, ok))
	require.NoError(t, pub.Emit(context.Background(), audit.NewEvent(audit.EventLicenseIssued, "license_1")))
	pub.Close()

	assert.Equal(t, 1, ok.count())
	assert.Equal(t, 1, failing.count(), "sink failure must not fail the emit")

	async := &recordingSink{}
	pub = NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(4), WithSinks(async))
	require.NoError(t, pub.Emit(context.Background(), audit.NewEvent(audit.EventLicenseIssued, "license_2")))
	pub.Close()
	assert.Equal(t, 1, async.count())
}

func TestPublisher_Recent(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore())
	defer pub.Close()
	for _, s := range []string{"a", "b", "c"} {
		require.NoError(t, pub.Emit(context.Background(), audit.NewEvent(audit.EventScrollSigned, s)))
	}
	recent, err := pub.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "c", recent[0].Subject)
}
