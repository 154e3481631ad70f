package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/scoutbook/internal/api/request"
	"github.com/mcoot/scoutbook/internal/api/response"
	"github.com/mcoot/scoutbook/internal/model"
	"github.com/mcoot/scoutbook/internal/services/codes"
	"github.com/mcoot/scoutbook/internal/services/datastore"
)

// AdminHandler handles registration code and user management
type AdminHandler struct {
	store *datastore.Store
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store *datastore.Store) *AdminHandler {
	return &AdminHandler{store: store}
}

// ListCodes handles GET /api/v1/admin/codes
func (h *AdminHandler) ListCodes(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.RegistrationCodeListFromModel(h.store.RegistrationCodes()))
}

// CreateCode handles POST /api/v1/admin/codes
func (h *AdminHandler) CreateCode(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Code == "" {
		WriteError(w, NewInvalidRequestError("code is required"))
		return
	}
	h.createCode(w, r, req)
}

// GenerateCode handles POST /api/v1/admin/codes/generate
func (h *AdminHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	req.Code = h.store.GenerateCode()
	h.createCode(w, r, req)
}

func (h *AdminHandler) createCode(w http.ResponseWriter, r *http.Request, req request.CreateCodeRequest) {
	if req.TeamName == "" {
		WriteError(w, NewInvalidRequestError("team_name is required"))
		return
	}

	code, err := h.store.AddRegistrationCode(r.Context(), req.Code, req.TeamName, req.MaxUses)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.RegistrationCodeFromModel(code))
}

// UpdateCode handles PATCH /api/v1/admin/codes/{id}
func (h *AdminHandler) UpdateCode(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.IsActive == nil {
		WriteError(w, NewInvalidRequestError("is_active is required"))
		return
	}

	code, err := h.store.SetRegistrationCodeActive(r.Context(), mux.Vars(r)["id"], *req.IsActive)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RegistrationCodeFromModel(code))
}

// DeleteCode handles DELETE /api/v1/admin/codes/{id}
func (h *AdminHandler) DeleteCode(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteRegistrationCode(r.Context(), mux.Vars(r)["id"]); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.UserList{Users: h.store.Users()})
}

// UpdateUser handles PATCH /api/v1/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req request.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.IsAdmin == nil {
		WriteError(w, NewInvalidRequestError("is_admin is required"))
		return
	}

	user, err := h.store.UpdateUserAdminStatus(r.Context(), id, *req.IsAdmin)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/v1/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

func userID(w http.ResponseWriter, r *http.Request) (model.UserID, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, NewInvalidRequestError("invalid user id"))
		return 0, false
	}
	return model.UserID(id), true
}

// CodeHandler handles public registration code checks
type CodeHandler struct {
	validator *codes.Validator
}

// NewCodeHandler creates a new code handler
func NewCodeHandler(validator *codes.Validator) *CodeHandler {
	return &CodeHandler{validator: validator}
}

// Validate handles POST /api/v1/codes/validate
func (h *CodeHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req request.ValidateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	response.JSON(w, http.StatusOK, h.validator.Validate(r.Context(), req.Code))
}
