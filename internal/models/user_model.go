package models

import "time"

// User represents an account that can sign in and own bookings.
// Password holds a bcrypt hash; it is persisted but never sent to clients.
type User struct {
	ID        string    `json:"id" bson:"id" firestore:"id"`
	Email     string    `json:"email" bson:"email" firestore:"email"`
	Password  string    `json:"password" bson:"password" firestore:"password"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" firestore:"created_at"`
}

// PublicUser is the part of a User that is safe to return over the API.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Public strips the credential fields from u.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email}
}
