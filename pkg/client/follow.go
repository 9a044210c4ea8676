package client

import (
	"context"
	"time"

	"luxdrive/internal/models"
)

// FollowInterval is how often FollowTracking polls an active booking.
const FollowInterval = 5 * time.Second

// FollowTracking polls the booking behind code and hands every result to
// onUpdate. Polling continues only while the booking is active: it stops as
// soon as the status differs from active, or when ctx is done. The last
// booking seen is returned; on cancellation the error is ctx.Err().
// interval <= 0 means FollowInterval.
func (c *Client) FollowTracking(ctx context.Context, code string, interval time.Duration, onUpdate func(*models.Booking)) (*models.Booking, error) {
	if interval <= 0 {
		interval = FollowInterval
	}

	booking, err := c.Track(ctx, code)
	if err != nil {
		return nil, err
	}
	if onUpdate != nil {
		onUpdate(booking)
	}
	if booking.Status != models.StatusActive {
		return booking, nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return booking, ctx.Err()
		case <-ticker.C:
		}

		next, err := c.Track(ctx, code)
		if err != nil {
			if ctx.Err() != nil {
				return booking, ctx.Err()
			}
			return booking, err
		}
		booking = next
		if onUpdate != nil {
			onUpdate(booking)
		}
		if booking.Status != models.StatusActive {
			return booking, nil
		}
	}
}
