package core

import (
	"context"
	"fmt"
	"html"
	"time"

	"go.uber.org/zap"

	"luxdrive/internal/events"
	"luxdrive/internal/mailer"
	"luxdrive/internal/models"
)

// publishTimeout bounds each broker publish and each confirmation mail.
const publishTimeout = 5 * time.Second

// notificationService implements the NotificationService interface. Failures
// are logged and never reach the caller: a booking that is stored stays stored.
type notificationService struct {
	publisher events.Publisher
	mail      mailer.Sender // nil when mail is not configured
	logger    *zap.Logger
	now       func() time.Time
	timeout   time.Duration
}

// NewNotificationService creates a new NotificationService instance. mail may be nil.
func NewNotificationService(publisher events.Publisher, mail mailer.Sender, logger *zap.Logger) NotificationService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &notificationService{publisher: publisher, mail: mail, logger: logger, now: time.Now, timeout: publishTimeout}
}

func (s *notificationService) BookingCreated(ctx context.Context, booking *models.Booking) {
	s.publish(ctx, models.BookingEvent{
		Type:         models.EventBookingCreated,
		BookingID:    booking.ID,
		TrackingCode: booking.TrackingCode,
		UserID:       booking.UserID,
		Status:       booking.Status,
		OccurredAt:   s.now().UTC(),
	})

	if s.mail == nil || booking.CustomerEmail == "" {
		return
	}
	ctx, cancel := s.detached(ctx)
	defer cancel()

	subject := "Your LuxDrive booking " + booking.TrackingCode
	if err := s.mail.Send(ctx, booking.CustomerEmail, subject, confirmationBody(booking)); err != nil {
		s.logger.Warn("Failed to send booking confirmation",
			zap.String("bookingID", booking.ID), zap.Error(err))
	}
}

func (s *notificationService) StatusChanged(ctx context.Context, booking *models.Booking, previous models.BookingStatus) {
	eventType := models.EventBookingStatusChanged
	if booking.Status == models.StatusCancelled {
		eventType = models.EventBookingCancelled
	}
	s.publish(ctx, models.BookingEvent{
		Type:           eventType,
		BookingID:      booking.ID,
		TrackingCode:   booking.TrackingCode,
		UserID:         booking.UserID,
		Status:         booking.Status,
		PreviousStatus: previous,
		OccurredAt:     s.now().UTC(),
	})
}

func (s *notificationService) publish(ctx context.Context, event models.BookingEvent) {
	ctx, cancel := s.detached(ctx)
	defer cancel()

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish booking event",
			zap.String("type", event.Type), zap.String("bookingID", event.BookingID), zap.Error(err))
	}
}

// detached outlives the request, which may already be finishing, but not the
// service timeout.
func (s *notificationService) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
}

// confirmationBody renders the mail. Every booking field is caller supplied and
// is escaped.
func confirmationBody(b *models.Booking) string {
	name := b.CustomerName
	if name == "" {
		name = "there"
	}
	esc := html.EscapeString
	return fmt.Sprintf("<html><body>"+
		"<p>Hi %s,</p>"+
		"<p>Your %s is reserved from %s (%s) to %s (%s).</p>"+
		"<p>Total: $%.2f</p>"+
		"<p>Tracking code: <b>%s</b></p>"+
		"</body></html>",
		esc(name), esc(b.CarName), esc(b.PickupDate), esc(b.PickupLocation),
		esc(b.DropoffDate), esc(b.DropoffLocation), b.TotalPrice, esc(b.TrackingCode))
}
