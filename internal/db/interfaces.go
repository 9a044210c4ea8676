package db

import (
	"context"
	"errors"

	"luxdrive/internal/models"
)

// ErrNotFound is returned when a record does not exist in the store.
var ErrNotFound = errors.New("document not found")

// ErrDuplicate is returned when a record collides with an existing one
// (same user email or same primary key).
var ErrDuplicate = errors.New("document already exists")

// UserRepository defines the interface for user data storage operations.
type UserRepository interface {
	FindAll(ctx context.Context) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

// BookingMutator changes a booking in place during Update. Returning an error
// aborts the update and nothing is written.
type BookingMutator func(b *models.Booking) error

// BookingRepository defines the interface for booking data storage operations.
type BookingRepository interface {
	FindAll(ctx context.Context) ([]models.Booking, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	FindByUser(ctx context.Context, userID string) ([]models.Booking, error)
	FindByTrackingCode(ctx context.Context, code string) (*models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	// Update loads the booking, applies mutate and stores the result. It returns
	// the merged record, or an error wrapping ErrNotFound.
	Update(ctx context.Context, id string, mutate BookingMutator) (*models.Booking, error)
}

// CarRepository defines the interface for the car catalog.
type CarRepository interface {
	FindAll(ctx context.Context) ([]models.Car, error)
	ReplaceAll(ctx context.Context, cars []models.Car) error
}

// Store bundles the repositories of one storage backend.
type Store interface {
	Users() UserRepository
	Bookings() BookingRepository
	Cars() CarRepository
	Close(ctx context.Context) error
}
