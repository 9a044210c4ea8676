package models

import "time"

// BookingStatus is the rental lifecycle stage of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusActive    BookingStatus = "active"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s BookingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// GPS is a WGS84 coordinate in decimal degrees.
type GPS struct {
	Lat float64 `json:"lat" bson:"lat" firestore:"lat"`
	Lng float64 `json:"lng" bson:"lng" firestore:"lng"`
}

// DefaultGPS is the pickup point assigned when a booking does not carry one.
var DefaultGPS = GPS{Lat: 40.7128, Lng: -74.006}

// Booking is a car reservation. Pickup and dropoff dates are kept exactly as the
// client sent them; TotalPrice is never recomputed by the server.
type Booking struct {
	ID              string        `json:"id" bson:"id" firestore:"id"`
	CreatedAt       time.Time     `json:"created_at" bson:"created_at" firestore:"created_at"`
	TrackingCode    string        `json:"tracking_code" bson:"tracking_code" firestore:"tracking_code"`
	Status          BookingStatus `json:"status" bson:"status" firestore:"status"`
	GPS             GPS           `json:"gps" bson:"gps" firestore:"gps"`
	CarName         string        `json:"car_name" bson:"car_name" firestore:"car_name"`
	CarCategory     string        `json:"car_category" bson:"car_category" firestore:"car_category"`
	CarImage        *string       `json:"car_image" bson:"car_image" firestore:"car_image"`
	PickupLocation  string        `json:"pickup_location" bson:"pickup_location" firestore:"pickup_location"`
	DropoffLocation string        `json:"dropoff_location" bson:"dropoff_location" firestore:"dropoff_location"`
	PickupDate      string        `json:"pickup_date" bson:"pickup_date" firestore:"pickup_date"`
	DropoffDate     string        `json:"dropoff_date" bson:"dropoff_date" firestore:"dropoff_date"`
	DailyRate       float64       `json:"daily_rate" bson:"daily_rate" firestore:"daily_rate"`
	TotalPrice      float64       `json:"total_price" bson:"total_price" firestore:"total_price"`
	CustomerName    string        `json:"customer_name" bson:"customer_name" firestore:"customer_name"`
	CustomerEmail   string        `json:"customer_email" bson:"customer_email" firestore:"customer_email"`
	CustomerPhone   *string       `json:"customer_phone" bson:"customer_phone" firestore:"customer_phone"`
	GPSEnabled      bool          `json:"gps_enabled" bson:"gps_enabled" firestore:"gps_enabled"`
	InsuranceType   string        `json:"insurance_type" bson:"insurance_type" firestore:"insurance_type"`
	UserID          string        `json:"user_id,omitempty" bson:"user_id,omitempty" firestore:"user_id,omitempty"`
}

// PositionFix is one simulated GPS reading for an active booking.
type PositionFix struct {
	TrackingCode string    `json:"tracking_code"`
	GPS          GPS       `json:"gps"`
	RecordedAt   time.Time `json:"recorded_at"`
}
