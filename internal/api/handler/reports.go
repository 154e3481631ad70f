package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/scoutbook/internal/api/response"
	"github.com/mcoot/scoutbook/internal/model"
	"github.com/mcoot/scoutbook/internal/services/datastore"
)

// ReportHandler handles scouting report endpoints
type ReportHandler struct {
	store *datastore.Store
}

// NewReportHandler creates a new report handler
func NewReportHandler(store *datastore.Store) *ReportHandler {
	return &ReportHandler{store: store}
}

// List handles GET /api/v1/reports
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	reports := h.store.SearchReports(r.URL.Query().Get("q"))
	response.JSON(w, http.StatusOK, response.ReportListFromModel(reports))
}

// Get handles GET /api/v1/reports/{id}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r)
	if !ok {
		return
	}

	report, err := h.store.FindReport(id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}

// Create handles POST /api/v1/reports. Fields missing from the body keep
// their defaults.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	report := h.store.NewReport()
	id, createdAt := report.ID, report.CreatedAt

	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	report.ID = id
	report.CreatedAt = createdAt

	saved, err := h.store.UpsertReport(r.Context(), report)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, saved)
}

// Update handles PUT /api/v1/reports/{id}
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r)
	if !ok {
		return
	}

	existing, err := h.store.FindReport(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	report := *existing
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	report.ID = id

	saved, err := h.store.UpsertReport(r.Context(), report)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, saved)
}

// Delete handles DELETE /api/v1/reports/{id}
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteReport(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

func reportID(w http.ResponseWriter, r *http.Request) (model.ReportID, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, NewInvalidRequestError("invalid report id"))
		return 0, false
	}
	return model.ReportID(id), true
}
