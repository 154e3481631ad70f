package datastore

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/mcoot/scoutbook/internal/model"
	"github.com/mcoot/scoutbook/internal/storage"
)

// firstReportID is the id given to the first report in an empty store
const firstReportID model.ReportID = 1000

// newReport returns a report with every text field empty
func newReport(id model.ReportID, now time.Time) model.Report {
	return model.Report{
		ID:          id,
		DateOfBirth: now,
		ScoutDate:   now,
		CreatedAt:   now,
	}
}

// NewReport returns an unsaved report with default field values and a
// fresh id. Ids are monotonic for the life of the store.
func (s *Store) NewReport() model.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newReport(s.allocateReportID(), s.clock.Now())
}

// Reports returns a copy of all reports in stored order
func (s *Store) Reports() []model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.reports)
}

// SearchReports returns reports whose name, team, position or scout contains query
func (s *Store) SearchReports(query string) []model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if r.MatchesQuery(query) {
			result = append(result, r)
		}
	}
	return result
}

// FindReport looks a report up by id
func (s *Store) FindReport(id model.ReportID) (*model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.reportIndex(id); i >= 0 {
		r := s.reports[i]
		return &r, nil
	}
	return nil, model.ErrReportNotFound
}

// UpsertReport replaces the report with the same id or appends it.
// A zero id is assigned a fresh one.
func (s *Store) UpsertReport(ctx context.Context, report model.Report) (*model.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == 0 {
		report.ID = s.allocateReportID()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = s.clock.Now()
	}

	updated := slices.Clone(s.reports)
	if idx := s.reportIndex(report.ID); idx >= 0 {
		report.CreatedAt = updated[idx].CreatedAt
		updated[idx] = report
	} else {
		updated = append(updated, report)
	}

	if err := s.persist(ctx, storage.KeyReports, updated); err != nil {
		return nil, err
	}
	s.reports = updated
	s.lastReportID = max(s.lastReportID, report.ID)

	s.logger.Info("report saved", slog.Int("report_id", int(report.ID)))
	return &report, nil
}

// DeleteReport removes a report by id
func (s *Store) DeleteReport(ctx context.Context, id model.ReportID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.reportIndex(id)
	if idx < 0 {
		return model.ErrReportNotFound
	}

	updated := slices.Delete(slices.Clone(s.reports), idx, idx+1)
	if err := s.persist(ctx, storage.KeyReports, updated); err != nil {
		return err
	}
	s.reports = updated

	s.logger.Info("report deleted", slog.Int("report_id", int(id)))
	return nil
}

func (s *Store) reportIndex(id model.ReportID) int {
	return slices.IndexFunc(s.reports, func(r model.Report) bool { return r.ID == id })
}

// allocateReportID must be called with mu held for writing
func (s *Store) allocateReportID() model.ReportID {
	if s.lastReportID < firstReportID {
		s.lastReportID = firstReportID - 1
	}
	s.lastReportID++
	return s.lastReportID
}

func maxReportID(reports []model.Report) model.ReportID {
	var maxID model.ReportID
	for _, r := range reports {
		maxID = max(maxID, r.ID)
	}
	return maxID
}
