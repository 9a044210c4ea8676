package db

import (
	"context"
	"fmt"

	"luxdrive/internal/models"
)

// fileBackend implements Store on top of a FileStore.
type fileBackend struct {
	store    *FileStore
	users    *fileUserRepository
	bookings *fileBookingRepository
	cars     *fileCarRepository
}

// NewFileBackend creates a Store whose repositories all share one JSON file.
func NewFileBackend(store *FileStore) Store {
	return &fileBackend{
		store:    store,
		users:    &fileUserRepository{store: store},
		bookings: &fileBookingRepository{store: store},
		cars:     &fileCarRepository{store: store},
	}
}

func (b *fileBackend) Users() UserRepository { return b.users }

func (b *fileBackend) Bookings() BookingRepository { return b.bookings }

func (b *fileBackend) Cars() CarRepository { return b.cars }

func (b *fileBackend) Close(ctx context.Context) error { return nil }

type fileUserRepository struct {
	store *FileStore
}

func (r *fileUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	doc, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	return doc.Users, nil
}

func (r *fileUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	doc, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Users {
		if doc.Users[i].Email == email {
			u := doc.Users[i]
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email '%s': %w", email, ErrNotFound)
}

// Create appends user. The email check runs under the store lock, so two
// concurrent signups for one address cannot both succeed.
func (r *fileUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.store.Update(func(doc *Document) error {
		for _, existing := range doc.Users {
			if existing.Email == user.Email {
				return fmt.Errorf("user with email '%s': %w", user.Email, ErrDuplicate)
			}
			if existing.ID == user.ID {
				return fmt.Errorf("user with ID '%s': %w", user.ID, ErrDuplicate)
			}
		}
		doc.Users = append(doc.Users, *user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

type fileBookingRepository struct {
	store *FileStore
}

func (r *fileBookingRepository) FindAll(ctx context.Context) ([]models.Booking, error) {
	doc, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	return doc.Bookings, nil
}

func (r *fileBookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.findOne(func(b *models.Booking) bool { return b.ID == id }, "ID", id)
}

func (r *fileBookingRepository) FindByTrackingCode(ctx context.Context, code string) (*models.Booking, error) {
	return r.findOne(func(b *models.Booking) bool { return b.TrackingCode == code }, "tracking code", code)
}

func (r *fileBookingRepository) findOne(match func(*models.Booking) bool, field, value string) (*models.Booking, error) {
	doc, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Bookings {
		if match(&doc.Bookings[i]) {
			b := doc.Bookings[i]
			return &b, nil
		}
	}
	return nil, fmt.Errorf("booking with %s '%s': %w", field, value, ErrNotFound)
}

func (r *fileBookingRepository) FindByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	doc, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	out := []models.Booking{}
	for _, b := range doc.Bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fileBookingRepository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	err := r.store.Update(func(doc *Document) error {
		for _, existing := range doc.Bookings {
			if existing.ID == booking.ID {
				return fmt.Errorf("booking with ID '%s': %w", booking.ID, ErrDuplicate)
			}
		}
		doc.Bookings = append(doc.Bookings, *booking)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *fileBookingRepository) Update(ctx context.Context, id string, mutate BookingMutator) (*models.Booking, error) {
	var updated models.Booking
	err := r.store.Update(func(doc *Document) error {
		for i := range doc.Bookings {
			if doc.Bookings[i].ID != id {
				continue
			}
			b := doc.Bookings[i]
			if err := mutate(&b); err != nil {
				return err
			}
			doc.Bookings[i] = b
			updated = b
			return nil
		}
		return fmt.Errorf("booking with ID '%s': %w", id, ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

type fileCarRepository struct {
	store *FileStore
}

func (r *fileCarRepository) FindAll(ctx context.Context) ([]models.Car, error) {
	doc, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	return doc.Cars, nil
}

func (r *fileCarRepository) ReplaceAll(ctx context.Context, cars []models.Car) error {
	return r.store.Update(func(doc *Document) error {
		doc.Cars = append([]models.Car{}, cars...)
		return nil
	})
}
