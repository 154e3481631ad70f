package codes

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mcoot/scoutbook/internal/model"
)

// Source provides the registration codes to validate against
type Source interface {
	RegistrationCodes() []model.RegistrationCode
}

// Result is the outcome of validating a submitted code
type Result struct {
	Valid    bool   `json:"valid"`
	TeamName string `json:"team_name,omitempty"`
}

// Redeemable reports whether a code is active and has uses left
func Redeemable(code model.RegistrationCode) bool {
	return code.Redeemable()
}

// Validator checks submitted registration codes. It never mutates the source.
type Validator struct {
	source Source
	logger *slog.Logger
}

// New creates a Validator over the given source
func New(source Source, logger *slog.Logger) *Validator {
	return &Validator{
		source: source,
		logger: logger.With(slog.String("component", "codes")),
	}
}

// Validate matches the code case-insensitively. The first redeemable match
// wins and its team name is returned.
func (v *Validator) Validate(ctx context.Context, code string) Result {
	code = strings.TrimSpace(code)
	if code == "" {
		return Result{}
	}

	matched := false
	for _, rc := range v.source.RegistrationCodes() {
		if !rc.Matches(code) {
			continue
		}
		matched = true
		if Redeemable(rc) {
			return Result{Valid: true, TeamName: rc.TeamName}
		}
	}

	if matched {
		v.logger.DebugContext(ctx, "registration code not redeemable", slog.String("code", code))
	}
	return Result{}
}
