package core

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"luxdrive/internal/db"
	"luxdrive/internal/models"
)

func init() {
	hashCost = bcrypt.MinCost
}

func newTestStore(t *testing.T) db.Store {
	t.Helper()
	fs, err := db.NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	return db.NewFileBackend(fs)
}

type statusChange struct {
	booking  models.Booking
	previous models.BookingStatus
}

// recordingNotifier captures what the booking service reports.
type recordingNotifier struct {
	mu      sync.Mutex
	created []models.Booking
	changed []statusChange
}

func (n *recordingNotifier) BookingCreated(ctx context.Context, booking *models.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, *booking)
}

func (n *recordingNotifier) StatusChanged(ctx context.Context, booking *models.Booking, previous models.BookingStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, statusChange{booking: *booking, previous: previous})
}

func nopLogger() *zap.Logger { return zap.NewNop() }
