package model

import "time"

// User is a shopper known to the store. Authentication happens upstream;
// users are identified by email.
type User struct {
	ID        int64     `json:"userId" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
