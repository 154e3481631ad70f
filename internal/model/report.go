package model

import (
	"strings"
	"time"
)

// ReportID identifies a scouting report
type ReportID int

// UnnamedPlayer is shown for reports without a player name
const UnnamedPlayer = "Unnamed Player"

// Report is a single scouting evaluation. All evaluation fields are free text.
type Report struct {
	ID ReportID `json:"id"`

	// Player info
	PlayerName      string    `json:"player_name"`
	PrimaryPosition string    `json:"primary_position"`
	JerseyNumber    string    `json:"jersey_number"`
	DateOfBirth     time.Time `json:"date_of_birth"`
	Age             string    `json:"age"`
	Height          string    `json:"height"`
	Weight          string    `json:"weight"`
	Bats            string    `json:"bats"`
	Throws          string    `json:"throws"`
	Team            string    `json:"team"`
	ParentGuardian  string    `json:"parent_guardian"`
	Contact         string    `json:"contact"`

	// Scout info
	ScoutName          string    `json:"scout_name"`
	ScoutDate          time.Time `json:"scout_date"`
	Event              string    `json:"event"`
	LeagueOrganization string    `json:"league_organization"`

	// Physical development
	Build        string `json:"build"`
	Coordination string `json:"coordination"`
	Athleticism  string `json:"athleticism"`

	// Hitting
	StanceSetup    string `json:"stance_setup"`
	SwingMechanics string `json:"swing_mechanics"`
	ContactAbility string `json:"contact_ability"`
	PowerPotential string `json:"power_potential"`

	// Running
	Speed           string `json:"speed"`
	BaseRunningIQ   string `json:"base_running_iq"`
	StealingAbility string `json:"stealing_ability"`

	// Fielding
	FieldingReadiness string `json:"fielding_readiness"`
	GloveWork         string `json:"glove_work"`
	ArmStrength       string `json:"arm_strength"`
	ArmAccuracy       string `json:"arm_accuracy"`

	// Notes
	BiggestStrengths string `json:"biggest_strengths"`
	ImprovementAreas string `json:"improvement_areas"`
	Notes            string `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the player name or a placeholder when empty
func (r *Report) DisplayName() string {
	if strings.TrimSpace(r.PlayerName) == "" {
		return UnnamedPlayer
	}
	return r.PlayerName
}

// MatchesQuery reports whether the query appears in the name, team, position or scout
func (r *Report) MatchesQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{r.PlayerName, r.Team, r.PrimaryPosition, r.ScoutName} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
