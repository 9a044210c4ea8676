package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"luxdrive/internal/db"
	"luxdrive/internal/metrics"
	"luxdrive/internal/models"
	"luxdrive/internal/tracking"
)

// transitions lists the statuses reachable from each status. Cancelling an
// already cancelled booking is handled separately as a no-op.
var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusActive, models.StatusCancelled},
	models.StatusActive:    {models.StatusCompleted, models.StatusCancelled},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to models.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NormalizeTrackingCode trims and upper-cases a user-entered tracking code.
func NormalizeTrackingCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// bookingService implements the BookingService interface.
type bookingService struct {
	bookingRepo db.BookingRepository
	positions   tracking.PositionStore
	notifier    NotificationService
	metrics     *metrics.Metrics
	logger      *zap.Logger

	now     func() time.Time
	newCode func() (string, error)
	jitter  func(models.GPS) models.GPS
}

// NewBookingService creates a new BookingService instance. m may be nil.
func NewBookingService(
	br db.BookingRepository,
	ps tracking.PositionStore,
	ns NotificationService,
	m *metrics.Metrics,
	logger *zap.Logger,
) BookingService {
	return &bookingService{
		bookingRepo: br,
		positions:   ps,
		notifier:    ns,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
		newCode:     tracking.NewCode,
		jitter:      tracking.Jitter,
	}
}

// Create stores a new booking. The server always picks id, created_at and
// tracking_code; status and gps fall back to defaults when the client leaves
// them out. Everything else, total_price included, is stored as sent.
func (s *bookingService) Create(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error) {
	if err := validateBooking(&req); err != nil {
		return nil, err
	}

	status := models.StatusPending
	if req.Status != nil {
		status = *req.Status
	}
	gps := models.DefaultGPS
	if req.GPS != nil {
		gps = *req.GPS
	}

	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate tracking code: %w", err)
	}

	now := s.now().UTC()
	booking := &models.Booking{
		CreatedAt:       now,
		TrackingCode:    code,
		Status:          status,
		GPS:             gps,
		CarName:         req.CarName,
		CarCategory:     req.CarCategory,
		CarImage:        req.CarImage,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		PickupDate:      req.PickupDate,
		DropoffDate:     req.DropoffDate,
		DailyRate:       req.DailyRate,
		TotalPrice:      req.TotalPrice,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		GPSEnabled:      req.GPSEnabled,
		InsuranceType:   req.InsuranceType,
		UserID:          req.UserID,
	}

	var created *models.Booking
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		booking.ID = newID("bk", now, attempt)
		created, err = s.bookingRepo.Create(ctx, booking)
		if err == nil {
			break
		}
		if !errors.Is(err, db.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create booking: %w", err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to allocate a booking ID after %d attempts: %w", maxIDAttempts, err)
	}

	s.logger.Info("Booking created",
		zap.String("bookingID", created.ID),
		zap.String("trackingCode", created.TrackingCode),
		zap.String("status", string(created.Status)))
	s.metrics.BookingCreated()
	s.notifier.BookingCreated(ctx, created)
	return created, nil
}

// ListByUser returns the bookings of userID, or an empty list when userID is empty.
func (s *bookingService) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	if userID == "" {
		return []models.Booking{}, nil
	}
	bookings, err := s.bookingRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for user '%s': %w", userID, err)
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

func (s *bookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, id)
	}
	return booking, nil
}

// Cancel is idempotent: a cancelled booking is returned unchanged.
func (s *bookingService) Cancel(ctx context.Context, id, actorID string) (*models.Booking, error) {
	return s.Transition(ctx, id, models.StatusCancelled, actorID)
}

// Transition moves a booking along the status state machine.
func (s *bookingService) Transition(ctx context.Context, id string, to models.BookingStatus, actorID string) (*models.Booking, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}

	var previous models.BookingStatus
	changed := false
	updated, err := s.bookingRepo.Update(ctx, id, func(b *models.Booking) error {
		if actorID != "" && b.UserID != "" && b.UserID != actorID {
			return ErrForbidden
		}
		previous = b.Status
		if b.Status == to && to == models.StatusCancelled {
			return nil
		}
		if b.Status.Terminal() {
			return fmt.Errorf("%w: booking is already %s", ErrInvalidTransition, b.Status)
		}
		if !CanTransition(b.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
		}
		b.Status = to
		changed = true
		return nil
	})
	if err != nil {
		return nil, translateNotFound(err, id)
	}

	if changed {
		s.logger.Info("Booking status changed",
			zap.String("bookingID", id),
			zap.String("from", string(previous)),
			zap.String("to", string(to)))
		s.metrics.StatusChanged(string(to))
		s.notifier.StatusChanged(ctx, updated, previous)
	}
	return updated, nil
}

// Track returns the booking with the given code. While the booking is active
// its gps is replaced by a simulated fix around the stored pickup point; the fix
// is recorded in the position store, the booking document is left untouched.
func (s *bookingService) Track(ctx context.Context, code string) (*models.Booking, error) {
	code = NormalizeTrackingCode(code)
	booking, err := s.bookingRepo.FindByTrackingCode(ctx, code)
	if err != nil {
		s.metrics.TrackingLookup(false)
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: tracking code '%s'", ErrBookingNotFound, code)
		}
		return nil, fmt.Errorf("failed to look up tracking code '%s': %w", code, err)
	}
	s.metrics.TrackingLookup(true)

	if booking.Status != models.StatusActive {
		return booking, nil
	}

	fix := models.PositionFix{
		TrackingCode: booking.TrackingCode,
		GPS:          s.jitter(booking.GPS),
		RecordedAt:   s.now().UTC(),
	}
	if err := s.positions.Record(ctx, fix); err != nil {
		s.logger.Warn("Failed to record position", zap.String("trackingCode", code), zap.Error(err))
	}
	s.metrics.PositionEmitted()
	booking.GPS = fix.GPS
	return booking, nil
}

// Positions returns the recorded trail of a booking, newest first.
func (s *bookingService) Positions(ctx context.Context, code string, limit int) ([]models.PositionFix, error) {
	code = NormalizeTrackingCode(code)
	if _, err := s.bookingRepo.FindByTrackingCode(ctx, code); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: tracking code '%s'", ErrBookingNotFound, code)
		}
		return nil, fmt.Errorf("failed to look up tracking code '%s': %w", code, err)
	}
	fixes, err := s.positions.Recent(ctx, code, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}
	return fixes, nil
}

func translateNotFound(err error, id string) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: id '%s'", ErrBookingNotFound, id)
	}
	if errors.Is(err, ErrForbidden) || errors.Is(err, ErrInvalidTransition) {
		return err
	}
	return fmt.Errorf("failed to update booking '%s': %w", id, err)
}

// validateBooking only restricts the initial status. Other fields, dates and
// prices included, are stored as sent; the CLI checks them before submitting.
func validateBooking(req *models.CreateBookingRequest) error {
	if req.Status != nil && *req.Status != models.StatusPending && *req.Status != models.StatusConfirmed {
		return fmt.Errorf("%w: initial status must be pending or confirmed, got %q", ErrValidation, *req.Status)
	}
	return nil
}
