package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mcoot/scoutbook/internal/api/response"
	"github.com/mcoot/scoutbook/internal/model"
	"github.com/mcoot/scoutbook/internal/services/codes"
	"github.com/mcoot/scoutbook/internal/services/session"
)

const dateLayout = "2006-01-02"

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	if w == nil {
		w = os.Stdout
	}
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(os.Stderr, string(data))
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case session.Snapshot:
		o.printSnapshot(v)
	case response.ReportList:
		o.printReportList(v)
	case model.Report:
		o.printReport(v)
	case response.RegistrationCodeList:
		o.printCodeList(v)
	case response.RegistrationCode:
		o.printCode(v)
	case codes.Result:
		o.printCodeResult(v)
	case response.UserList:
		o.printUserList(v)
	case model.User:
		o.printUser(v)
	case response.Health:
		_, _ = fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printSnapshot(s session.Snapshot) {
	_, _ = fmt.Fprintf(o.w, "State: %s\n", s.State)
	if s.CurrentUser != nil {
		admin := ""
		if s.CurrentUser.IsAdmin {
			admin = " [admin]"
		}
		_, _ = fmt.Fprintf(o.w, "User: %s <%s>%s\n", s.CurrentUser.FullName(), s.CurrentUser.Email, admin)
		if s.CurrentUser.GroupName != "" {
			_, _ = fmt.Fprintf(o.w, "Team: %s\n", s.CurrentUser.GroupName)
		}
	}
	if s.ErrorMessage != "" {
		_, _ = fmt.Fprintf(o.w, "Error: %s\n", s.ErrorMessage)
	}

	biometrics := "unavailable"
	if s.Biometrics.Available {
		biometrics = string(s.Biometrics.Kind)
	}
	_, _ = fmt.Fprintf(o.w, "Biometrics: %s\n", biometrics)
	if s.CanUseBiometrics {
		_, _ = fmt.Fprintln(o.w, "Biometric sign-in: ready")
	}
}

func (o *Output) printReportList(l response.ReportList) {
	if len(l.Reports) == 0 {
		_, _ = fmt.Fprintln(o.w, "No reports")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tPLAYER\tPOS\tTEAM\tSCOUT\tDATE")
	for _, r := range l.Reports {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.DisplayName, r.PrimaryPosition, r.Team, r.ScoutName, r.ScoutDate.Format(dateLayout))
	}
	_ = tw.Flush()
}

func (o *Output) printReport(r model.Report) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			_, _ = fmt.Fprintf(tw, "%s:\t%s\n", label, value)
		}
	}

	_, _ = fmt.Fprintf(tw, "Report:\t%d\n", r.ID)
	row("Player", r.DisplayName())
	row("Position", r.PrimaryPosition)
	row("Jersey", r.JerseyNumber)
	row("Team", r.Team)
	row("Bats/Throws", joinNonEmpty(r.Bats, r.Throws))
	row("Scout", r.ScoutName)
	if !r.ScoutDate.IsZero() {
		row("Date", r.ScoutDate.Format(dateLayout))
	}
	row("Event", r.Event)
	row("League", r.LeagueOrganization)
	row("Strengths", r.BiggestStrengths)
	row("Improve", r.ImprovementAreas)
	row("Notes", r.Notes)
	_ = tw.Flush()
}

func (o *Output) printCodeList(l response.RegistrationCodeList) {
	if len(l.Codes) == 0 {
		_, _ = fmt.Fprintln(o.w, "No registration codes")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tCODE\tTEAM\tACTIVE\tUSED\tLEFT")
	for _, c := range l.Codes {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d/%d\t%d\n",
			c.ID, c.Code, c.TeamName, c.IsActive, c.CurrentUses, c.MaxUses, c.RemainingUses)
	}
	_ = tw.Flush()
}

func (o *Output) printCode(c response.RegistrationCode) {
	status := "active"
	if !c.IsActive {
		status = "inactive"
	}
	_, _ = fmt.Fprintf(o.w, "Code: %s (%s)\n", c.Code, c.ID)
	_, _ = fmt.Fprintf(o.w, "Team: %s\n", c.TeamName)
	_, _ = fmt.Fprintf(o.w, "Status: %s, %d of %d uses left\n", status, c.RemainingUses, c.MaxUses)
}

func (o *Output) printCodeResult(r codes.Result) {
	if !r.Valid {
		_, _ = fmt.Fprintln(o.w, "Code is invalid or expired")
		return
	}
	_, _ = fmt.Fprintf(o.w, "Code is valid for %s\n", r.TeamName)
}

func (o *Output) printUserList(l response.UserList) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tTEAM\tADMIN")
	for _, u := range l.Users {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n",
			u.ID, joinNonEmpty(u.FirstName, u.LastName), u.Email, u.GroupName, u.IsAdmin)
	}
	_ = tw.Flush()
}

func (o *Output) printUser(u model.User) {
	_, _ = fmt.Fprintf(o.w, "User: %s (%d)\n", joinNonEmpty(u.FirstName, u.LastName), u.ID)
	_, _ = fmt.Fprintf(o.w, "Email: %s\n", u.Email)
	_, _ = fmt.Fprintf(o.w, "Admin: %t\n", u.IsAdmin)
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
