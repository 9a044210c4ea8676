package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"luxdrive/internal/models"
	"luxdrive/pkg/client"
)

var carsCmd = &cobra.Command{
	Use:   "cars",
	Short: "List the fleet",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := openSession()
		if err != nil {
			return err
		}
		cars, err := c.Cars(cmd.Context())
		if err != nil {
			return err
		}
		if len(cars) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No cars available.")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tCATEGORY\tSEATS\tFUEL\tPER DAY")
		for _, car := range cars {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t$%.0f\n", car.Name, car.Category, car.Seats, car.Fuel, car.Price)
		}
		return tw.Flush()
	},
}

// bookingForm holds the book command's flags.
type bookingForm struct {
	Car             string
	PickupLocation  string
	DropoffLocation string
	PickupDate      string
	DropoffDate     string
	Name            string
	Email           string
	Phone           string
	Insurance       string
	GPS             bool
}

var form bookingForm

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Book a car from the fleet",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, session, err := openSession()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		car, err := findCar(ctx, c, form.Car)
		if err != nil {
			return err
		}
		req, err := form.request(car)
		if err != nil {
			return err
		}
		if u := session.User(); u != nil {
			req.UserID = u.ID
		}

		booking, err := c.CreateBooking(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Booked %s for $%.2f.\nTracking code: %s\n",
			booking.CarName, booking.TotalPrice, booking.TrackingCode)
		return nil
	},
}

func init() {
	f := bookCmd.Flags()
	f.StringVar(&form.Car, "car", "", "car name as listed by 'luxdrive cars'")
	f.StringVar(&form.PickupLocation, "pickup-location", "", "where to collect the car")
	f.StringVar(&form.DropoffLocation, "dropoff-location", "", "where to return the car")
	f.StringVar(&form.PickupDate, "pickup", "", "pickup date (YYYY-MM-DD)")
	f.StringVar(&form.DropoffDate, "dropoff", "", "drop-off date (YYYY-MM-DD)")
	f.StringVar(&form.Name, "name", "", "customer name")
	f.StringVar(&form.Email, "email", "", "customer email")
	f.StringVar(&form.Phone, "phone", "", "customer phone (optional)")
	f.StringVar(&form.Insurance, "insurance", "full", "insurance type: full or basic")
	f.BoolVar(&form.GPS, "gps", true, "enable GPS tracking")
	_ = bookCmd.MarkFlagRequired("car")
}

func findCar(ctx context.Context, c *client.Client, name string) (*models.Car, error) {
	cars, err := c.Cars(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cars {
		if strings.EqualFold(cars[i].Name, strings.TrimSpace(name)) {
			return &cars[i], nil
		}
	}
	return nil, fmt.Errorf("no car named %q in the fleet", name)
}

// request checks the form the way the booking page does and prices it as
// whole days times the daily rate.
func (f bookingForm) request(car *models.Car) (models.CreateBookingRequest, error) {
	if f.PickupDate == "" || f.DropoffDate == "" || f.PickupLocation == "" ||
		f.DropoffLocation == "" || f.Name == "" || f.Email == "" {
		return models.CreateBookingRequest{}, errors.New("please fill in all required fields: --pickup, --dropoff, --pickup-location, --dropoff-location, --name, --email")
	}
	pickup, err := time.Parse("2006-01-02", f.PickupDate)
	if err != nil {
		return models.CreateBookingRequest{}, fmt.Errorf("invalid --pickup: %w", err)
	}
	dropoff, err := time.Parse("2006-01-02", f.DropoffDate)
	if err != nil {
		return models.CreateBookingRequest{}, fmt.Errorf("invalid --dropoff: %w", err)
	}
	days := int(dropoff.Sub(pickup).Hours() / 24)
	if days <= 0 {
		return models.CreateBookingRequest{}, errors.New("drop-off date must be after pickup date")
	}
	if f.Insurance != "full" && f.Insurance != "basic" {
		return models.CreateBookingRequest{}, fmt.Errorf("unknown insurance type %q", f.Insurance)
	}

	confirmed := models.StatusConfirmed
	req := models.CreateBookingRequest{
		CarName:         car.Name,
		CarCategory:     car.Category,
		PickupLocation:  f.PickupLocation,
		DropoffLocation: f.DropoffLocation,
		PickupDate:      pickup.UTC().Format(time.RFC3339Nano),
		DropoffDate:     dropoff.UTC().Format(time.RFC3339Nano),
		DailyRate:       car.Price,
		TotalPrice:      float64(days) * car.Price,
		CustomerName:    f.Name,
		CustomerEmail:   f.Email,
		GPSEnabled:      f.GPS,
		InsuranceType:   f.Insurance,
		Status:          &confirmed,
	}
	if car.Image != "" {
		image := car.Image
		req.CarImage = &image
	}
	if f.Phone != "" {
		phone := f.Phone
		req.CustomerPhone = &phone
	}
	return req, nil
}

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "List your bookings",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, session, err := openSession()
		if err != nil {
			return err
		}
		u := session.User()
		if u == nil {
			return errors.New("not signed in; run 'luxdrive signin' first")
		}
		bookings, err := c.Bookings(cmd.Context(), u.ID)
		if err != nil {
			return err
		}
		return printBookings(cmd.OutOrStdout(), bookings)
	},
}

func printBookings(w io.Writer, bookings []models.Booking) error {
	if len(bookings) == 0 {
		_, err := fmt.Fprintln(w, "No bookings yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCAR\tPICKUP\tDROP-OFF\tTOTAL\tSTATUS\tTRACKING")
	for _, b := range bookings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t$%.2f\t%s\t%s\n",
			b.ID, b.CarName, shortDate(b.PickupDate), shortDate(b.DropoffDate), b.TotalPrice, b.Status, b.TrackingCode)
	}
	return tw.Flush()
}

// shortDate trims ISO timestamps to their calendar date.
func shortDate(value string) string {
	if len(value) > 10 && value[4] == '-' && value[7] == '-' {
		return value[:10]
	}
	return value
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <booking-id>",
	Short: "Cancel a booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := openSession()
		if err != nil {
			return err
		}
		booking, err := c.CancelBooking(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Booking %s is %s.\n", booking.ID, booking.Status)
		return nil
	},
}
