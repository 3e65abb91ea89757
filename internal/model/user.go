// Package model defines domain entities for the application.
package model

import "time"

// User is a row of the "user" table.
// ID and CreatedAt are assigned by the database and never change.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUser holds the client-supplied fields of a user. Empty strings are
// valid values.
type NewUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
