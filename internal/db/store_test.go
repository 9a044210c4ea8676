package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxdrive/internal/models"
)

func newTestBooking(id, userID, code string) *models.Booking {
	return &models.Booking{
		ID:              id,
		CreatedAt:       time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		TrackingCode:    code,
		Status:          models.StatusConfirmed,
		GPS:             models.DefaultGPS,
		CarName:         "BMW X7",
		CarCategory:     "SUV",
		PickupLocation:  "Manhattan",
		DropoffLocation: "JFK",
		PickupDate:      "2025-03-01",
		DropoffDate:     "2025-03-04",
		DailyRate:       349,
		TotalPrice:      1047,
		CustomerName:    "Ann",
		CustomerEmail:   "ann@example.com",
		GPSEnabled:      true,
		InsuranceType:   "basic",
		UserID:          userID,
	}
}

// runStoreContract exercises the behaviour every Store implementation shares.
func runStoreContract(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("users", func(t *testing.T) {
		s := open(t)
		users := s.Users()

		all, err := users.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		u := &models.User{ID: "user_1", Email: "ann@example.com", Password: "hash", CreatedAt: time.Now().UTC()}
		_, err = users.Create(ctx, u)
		require.NoError(t, err)

		got, err := users.FindByEmail(ctx, "ann@example.com")
		require.NoError(t, err)
		assert.Equal(t, "user_1", got.ID)
		assert.Equal(t, "hash", got.Password)

		_, err = users.Create(ctx, &models.User{ID: "user_2", Email: "ann@example.com", Password: "x"})
		assert.ErrorIs(t, err, ErrDuplicate)

		_, err = users.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)

		all, err = users.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("bookings", func(t *testing.T) {
		s := open(t)
		bookings := s.Bookings()

		_, err := bookings.Create(ctx, newTestBooking("bk_1", "user_1", "LXD-AAAAAAAA"))
		require.NoError(t, err)
		_, err = bookings.Create(ctx, newTestBooking("bk_2", "user_2", "LXD-BBBBBBBB"))
		require.NoError(t, err)
		_, err = bookings.Create(ctx, newTestBooking("bk_3", "user_1", "LXD-CCCCCCCC"))
		require.NoError(t, err)

		_, err = bookings.Create(ctx, newTestBooking("bk_1", "user_9", "LXD-DDDDDDDD"))
		assert.ErrorIs(t, err, ErrDuplicate)

		all, err := bookings.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		mine, err := bookings.FindByUser(ctx, "user_1")
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, "bk_1", mine[0].ID)
		assert.Equal(t, "bk_3", mine[1].ID)

		none, err := bookings.FindByUser(ctx, "user_404")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)

		got, err := bookings.FindByTrackingCode(ctx, "LXD-BBBBBBBB")
		require.NoError(t, err)
		assert.Equal(t, "bk_2", got.ID)
		assert.Equal(t, 1047.0, got.TotalPrice)
		assert.Equal(t, models.DefaultGPS, got.GPS)

		_, err = bookings.FindByTrackingCode(ctx, "LXD-NOPE0000")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = bookings.FindByID(ctx, "bk_404")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update merges and persists", func(t *testing.T) {
		s := open(t)
		bookings := s.Bookings()
		_, err := bookings.Create(ctx, newTestBooking("bk_1", "user_1", "LXD-AAAAAAAA"))
		require.NoError(t, err)

		updated, err := bookings.Update(ctx, "bk_1", func(b *models.Booking) error {
			b.Status = models.StatusCancelled
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, updated.Status)
		assert.Equal(t, "BMW X7", updated.CarName)

		reread, err := bookings.FindByID(ctx, "bk_1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, reread.Status)
		assert.Equal(t, "LXD-AAAAAAAA", reread.TrackingCode)
	})

	t.Run("update aborted by mutator", func(t *testing.T) {
		s := open(t)
		bookings := s.Bookings()
		_, err := bookings.Create(ctx, newTestBooking("bk_1", "user_1", "LXD-AAAAAAAA"))
		require.NoError(t, err)

		boom := errors.New("boom")
		_, err = bookings.Update(ctx, "bk_1", func(b *models.Booking) error {
			b.Status = models.StatusCompleted
			return boom
		})
		assert.ErrorIs(t, err, boom)

		reread, err := bookings.FindByID(ctx, "bk_1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, reread.Status)

		_, err = bookings.Update(ctx, "bk_404", func(b *models.Booking) error { return nil })
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cars keep catalog order", func(t *testing.T) {
		s := open(t)
		cars := s.Cars()

		all, err := cars.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		catalog := []models.Car{
			{Name: "Porsche 911", Category: "Sports", Price: 499, Seats: 4},
			{Name: "BMW X7", Category: "SUV", Price: 349, Seats: 7},
		}
		require.NoError(t, cars.ReplaceAll(ctx, catalog))
		require.NoError(t, cars.ReplaceAll(ctx, catalog))

		all, err = cars.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, catalog, all)
	})
}

func TestFileBackend(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		fs, err := NewFileStore(filepath.Join(t.TempDir(), "data", "data.json"))
		require.NoError(t, err)
		return NewFileBackend(fs)
	})
}

func TestSQLiteBackend(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		s, err := NewSQLiteBackend(context.Background(), filepath.Join(t.TempDir(), "luxdrive.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close(context.Background()) })
		return s
	})
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)

	doc, err := fs.Load()
	require.NoError(t, err)
	assert.NotNil(t, doc.Users)
	assert.NotNil(t, doc.Bookings)
	assert.NotNil(t, doc.Cars)
}

func TestFileStore_SavesIndentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	fs, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, fs.Save(&Document{Users: []models.User{{ID: "user_1", Email: "a@b.c"}}}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"users\": [")
	assert.Contains(t, string(raw), `"bookings": []`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should have been renamed away")
}

func TestFileStore_PicksUpExternalEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	fs, err := NewFileStore(path)
	require.NoError(t, err)
	backend := NewFileBackend(fs)

	external := `{"users":[{"id":"user_7","email":"ext@example.com","password":"h"}],"bookings":[],"cars":[]}`
	require.NoError(t, os.WriteFile(path, []byte(external), 0o644))

	u, err := backend.Users().FindByEmail(context.Background(), "ext@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user_7", u.ID)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	fs, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = fs.Load()
	assert.Error(t, err)
}

func TestFileBackend_ConcurrentSignupsSameEmail(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	users := NewFileBackend(fs).Users()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = users.Create(context.Background(), &models.User{
				ID:    "user_" + string(rune('a'+i)),
				Email: "same@example.com",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrDuplicate)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestFileBackend_ConcurrentBookingsAllPersist(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	bookings := NewFileBackend(fs).Bookings()

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "bk_" + string(rune('a'+i))
			_, err := bookings.Create(context.Background(), newTestBooking(id, "user_1", "LXD-"+id))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := bookings.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, n)
}
