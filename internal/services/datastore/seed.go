package datastore

import (
	"github.com/google/uuid"

	"github.com/mcoot/scoutbook/internal/model"
)

// Demo data written the first time a collection is loaded
const (
	DemoAdminEmail = "admin@demo.com"
	DemoTeamName   = "Demo Team"
)

func (s *Store) demoUsers() []model.User {
	return []model.User{
		{
			ID:        1,
			FirstName: "Admin",
			LastName:  "User",
			Email:     DemoAdminEmail,
			GroupName: DemoTeamName,
			IsAdmin:   true,
			CreatedAt: s.clock.Now(),
		},
	}
}

func (s *Store) demoCodes() []model.RegistrationCode {
	now := s.clock.Now()
	seed := []struct {
		code    string
		team    string
		maxUses int
	}{
		{"EAGLES2024", "Eagles Baseball", 50},
		{"HAWKS2024", "Hawks Baseball", 30},
		{"DEMO123", DemoTeamName, 100},
	}

	codes := make([]model.RegistrationCode, 0, len(seed))
	for _, c := range seed {
		codes = append(codes, model.RegistrationCode{
			ID:        uuid.NewString(),
			Code:      c.code,
			TeamName:  c.team,
			IsActive:  true,
			CreatedAt: now,
			MaxUses:   c.maxUses,
		})
	}
	return codes
}

func (s *Store) demoReports() []model.Report {
	first := newReport(firstReportID, s.clock.Now())
	first.PlayerName = "John Smith"
	first.PrimaryPosition = "SS"
	first.Team = "Eagles"
	first.ScoutName = "Coach Johnson"

	second := newReport(firstReportID+1, s.clock.Now())
	second.PlayerName = "Sarah Davis"
	second.PrimaryPosition = "CF"
	second.Team = "Hawks"
	second.ScoutName = "Coach Wilson"

	return []model.Report{first, second}
}
