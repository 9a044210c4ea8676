package models

// AuthRequest is the body of the signup and signin endpoints.
type AuthRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateBookingRequest represents the request body for creating a booking.
// Status and GPS are pointers so that a value supplied by the client can be told
// apart from one that should fall back to the server default.
type CreateBookingRequest struct {
	CarName         string         `json:"car_name"`
	CarCategory     string         `json:"car_category"`
	CarImage        *string        `json:"car_image"`
	PickupLocation  string         `json:"pickup_location"`
	DropoffLocation string         `json:"dropoff_location"`
	PickupDate      string         `json:"pickup_date"`
	DropoffDate     string         `json:"dropoff_date"`
	DailyRate       float64        `json:"daily_rate"`
	TotalPrice      float64        `json:"total_price"`
	CustomerName    string         `json:"customer_name"`
	CustomerEmail   string         `json:"customer_email"`
	CustomerPhone   *string        `json:"customer_phone"`
	GPSEnabled      bool           `json:"gps_enabled"`
	InsuranceType   string         `json:"insurance_type"`
	Status          *BookingStatus `json:"status,omitempty"`
	GPS             *GPS           `json:"gps,omitempty"`
	UserID          string         `json:"user_id,omitempty"`
}

// UpdateStatusRequest represents the request body for an explicit status transition.
type UpdateStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}
