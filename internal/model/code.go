package model

import (
	"strings"
	"time"
)

// DefaultMaxUses is the budget given to codes created without one
const DefaultMaxUses = 50

// RegistrationCode grants team membership to newly registered users
type RegistrationCode struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	TeamName    string    `json:"team_name"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	MaxUses     int       `json:"max_uses"`
	CurrentUses int       `json:"current_uses"`
}

// Matches compares the code string case-insensitively
func (c *RegistrationCode) Matches(code string) bool {
	return strings.EqualFold(c.Code, strings.TrimSpace(code))
}

// Redeemable is true while the code is active and has budget left
func (c *RegistrationCode) Redeemable() bool {
	return c.IsActive && c.CurrentUses < c.MaxUses
}

// RemainingUses returns how many redemptions are left (never negative)
func (c *RegistrationCode) RemainingUses() int {
	if c.CurrentUses >= c.MaxUses {
		return 0
	}
	return c.MaxUses - c.CurrentUses
}
