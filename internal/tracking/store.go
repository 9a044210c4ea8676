// Package tracking simulates vehicle positions for active bookings and keeps a
// short trail of recent fixes per tracking code.
package tracking

import (
	"context"
	"sync"

	"luxdrive/internal/models"
)

// PositionStore defines the interface for recording position fixes.
type PositionStore interface {
	// Record stores fix as the newest entry for its tracking code.
	Record(ctx context.Context, fix models.PositionFix) error
	// Recent returns up to limit fixes for code, newest first. A limit of zero or
	// less returns the whole retained trail.
	Recent(ctx context.Context, code string, limit int) ([]models.PositionFix, error)
	Close() error
}

// MemoryStore keeps the trails in process memory. It is lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	history int
	trails  map[string][]models.PositionFix
}

// NewMemoryStore creates a MemoryStore retaining history fixes per code.
func NewMemoryStore(history int) *MemoryStore {
	if history <= 0 {
		history = 1
	}
	return &MemoryStore{history: history, trails: make(map[string][]models.PositionFix)}
}

func (s *MemoryStore) Record(ctx context.Context, fix models.PositionFix) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trail := append([]models.PositionFix{fix}, s.trails[fix.TrackingCode]...)
	if len(trail) > s.history {
		trail = trail[:s.history]
	}
	s.trails[fix.TrackingCode] = trail
	return nil
}

func (s *MemoryStore) Recent(ctx context.Context, code string, limit int) ([]models.PositionFix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trail := s.trails[code]
	if limit <= 0 || limit > len(trail) {
		limit = len(trail)
	}
	out := make([]models.PositionFix, limit)
	copy(out, trail[:limit])
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
