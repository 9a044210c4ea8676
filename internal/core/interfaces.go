package core

import (
	"context"
	"time"

	"luxdrive/internal/models"
)

// UserService defines the interface for account operations.
type UserService interface {
	// SignUp creates an account. It fails with ErrEmailExists when the email is taken.
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	// SignIn checks the credentials and returns the matching account, or
	// ErrInvalidCredentials.
	SignIn(ctx context.Context, email, password string) (*models.User, error)
}

// TokenService issues and verifies the bearer tokens handed out at sign-in.
type TokenService interface {
	Issue(user *models.User) (string, time.Time, error)
	// Verify returns the user ID carried by token, or ErrInvalidToken.
	Verify(token string) (string, error)
}

// BookingService defines the interface for booking operations. actorID is the
// verified caller, or empty when the request carried no token.
type BookingService interface {
	Create(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
	Cancel(ctx context.Context, id, actorID string) (*models.Booking, error)
	Transition(ctx context.Context, id string, to models.BookingStatus, actorID string) (*models.Booking, error)
	// Track looks a booking up by tracking code. Active bookings come back with
	// a freshly simulated position.
	Track(ctx context.Context, code string) (*models.Booking, error)
	Positions(ctx context.Context, code string, limit int) ([]models.PositionFix, error)
}

// CarService defines the interface for the fleet catalog.
type CarService interface {
	List(ctx context.Context) ([]models.Car, error)
	// SeedFromFile loads a YAML catalog into an empty store. It reports how many
	// cars were written; zero means the store already had a catalog.
	SeedFromFile(ctx context.Context, path string) (int, error)
}

// NotificationService fans booking events out to the event bus and to mail.
type NotificationService interface {
	BookingCreated(ctx context.Context, booking *models.Booking)
	StatusChanged(ctx context.Context, booking *models.Booking, previous models.BookingStatus)
}
