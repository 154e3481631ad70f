package model

import (
	"strings"
	"time"
)

// UserID uniquely identifies a user record. Never reassigned.
type UserID int

// User is the persisted identity record
type User struct {
	ID          UserID    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	GroupName   string    `json:"group_name,omitempty"` // team assigned by registration code
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
	FederatedID string    `json:"federated_id,omitempty"` // provider subject once linked
}

// Identity is the session-facing projection of a User
type Identity struct {
	ID        UserID `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	GroupName string `json:"group_name,omitempty"`
	IsAdmin   bool   `json:"is_admin"`
}

// Identity returns the session projection of the user
func (u *User) Identity() Identity {
	return Identity{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		GroupName: u.GroupName,
		IsAdmin:   u.IsAdmin,
	}
}

// FullName joins first and last name
func (i Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// NormalizeEmail returns the comparison key for an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SameEmail reports whether two addresses refer to the same account
func SameEmail(a, b string) bool {
	return NormalizeEmail(a) == NormalizeEmail(b)
}
