package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNow_FallsBackToWallClock(t *testing.T) {
	assert.WithinDuration(t, time.Now(), Now(context.Background()), time.Second)
}

func TestWithTime_PinsNow(t *testing.T) {
	fixed := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	ctx := WithTime(context.Background(), fixed)
	assert.Equal(t, fixed, Now(ctx))

	got, ok := Time(ctx)
	assert.True(t, ok)
	assert.Equal(t, fixed, got)

	_, ok = Time(context.Background())
	assert.False(t, ok)
}

func TestRequestIDAndClientIP(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, ClientIP(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithClientIP(ctx, "10.0.0.1")
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
}
