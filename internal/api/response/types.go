package response

import (
	"time"

	"github.com/mcoot/scoutbook/internal/model"
)

// Health is the response for the health check
type Health struct {
	Status string `json:"status"`
}

// ReportSummary represents a report in list responses
type ReportSummary struct {
	ID              model.ReportID `json:"id"`
	DisplayName     string         `json:"display_name"`
	PrimaryPosition string         `json:"primary_position"`
	Team            string         `json:"team"`
	ScoutName       string         `json:"scout_name"`
	ScoutDate       time.Time      `json:"scout_date"`
}

// ReportSummaryFromModel converts a model.Report
func ReportSummaryFromModel(r *model.Report) ReportSummary {
	return ReportSummary{
		ID:              r.ID,
		DisplayName:     r.DisplayName(),
		PrimaryPosition: r.PrimaryPosition,
		Team:            r.Team,
		ScoutName:       r.ScoutName,
		ScoutDate:       r.ScoutDate,
	}
}

// ReportList is the response for listing reports
type ReportList struct {
	Reports []ReportSummary `json:"reports"`
}

// ReportListFromModel converts a slice of reports
func ReportListFromModel(reports []model.Report) ReportList {
	items := make([]ReportSummary, len(reports))
	for i := range reports {
		items[i] = ReportSummaryFromModel(&reports[i])
	}
	return ReportList{Reports: items}
}

// RegistrationCode represents a code in admin responses
type RegistrationCode struct {
	model.RegistrationCode
	RemainingUses int `json:"remaining_uses"`
}

// RegistrationCodeFromModel converts a model.RegistrationCode
func RegistrationCodeFromModel(c *model.RegistrationCode) RegistrationCode {
	return RegistrationCode{
		RegistrationCode: *c,
		RemainingUses:    c.RemainingUses(),
	}
}

// RegistrationCodeList is the response for listing codes
type RegistrationCodeList struct {
	Codes []RegistrationCode `json:"codes"`
}

// RegistrationCodeListFromModel converts a slice of codes
func RegistrationCodeListFromModel(codes []model.RegistrationCode) RegistrationCodeList {
	items := make([]RegistrationCode, len(codes))
	for i := range codes {
		items[i] = RegistrationCodeFromModel(&codes[i])
	}
	return RegistrationCodeList{Codes: items}
}

// UserList is the response for listing users
type UserList struct {
	Users []model.User `json:"users"`
}
