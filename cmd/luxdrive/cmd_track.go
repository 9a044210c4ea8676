package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"luxdrive/internal/models"
)

var followTracking bool

var trackCmd = &cobra.Command{
	Use:   "track <tracking-code>",
	Short: "Look up a booking by tracking code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := openSession()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if !followTracking {
			booking, err := c.Track(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTracking(out, booking)
			return nil
		}

		_, err = c.FollowTracking(cmd.Context(), args[0], 0, func(b *models.Booking) {
			printTracking(out, b)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	trackCmd.Flags().BoolVarP(&followTracking, "follow", "f", false, "keep polling while the car is on the road")
}

func printTracking(w io.Writer, b *models.Booking) {
	fmt.Fprintf(w, "%s  %s  %-9s  %.5f, %.5f\n", b.TrackingCode, b.CarName, b.Status, b.GPS.Lat, b.GPS.Lng)
}
