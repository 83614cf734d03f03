package store

import (
	"context"
	"sync"

	"scrollvault/internal/scroll/models"
	"scrollvault/pkg/platform/sentinel"
)

// InMemoryLedger keeps scrolls and the treaty position counter in process.
type InMemoryLedger struct {
	mu       sync.RWMutex
	scrolls  map[string]*models.Scroll
	position int64
}

func NewInMemoryLedger(baseline int64) *InMemoryLedger {
	return &InMemoryLedger{
		scrolls:  make(map[string]*models.Scroll),
		position: baseline,
	}
}

// NextPosition reserves the next treaty position. Positions are never reused,
// even when the scroll they were reserved for is never saved.
func (l *InMemoryLedger) NextPosition(_ context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position++
	return l.position, nil
}

// CurrentPosition returns the last reserved position.
func (l *InMemoryLedger) CurrentPosition(_ context.Context) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.position, nil
}

func (l *InMemoryLedger) Save(_ context.Context, scroll *models.Scroll) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.scrolls[scroll.ID]; ok {
		return ErrDuplicateScroll
	}
	cp := *scroll
	l.scrolls[scroll.ID] = &cp
	return nil
}

func (l *InMemoryLedger) FindByID(_ context.Context, id string) (*models.Scroll, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.scrolls[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (l *InMemoryLedger) Count(_ context.Context) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int64(len(l.scrolls)), nil
}
