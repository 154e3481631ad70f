package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/scoutbook/internal/api/handler"
	apimiddleware "github.com/mcoot/scoutbook/internal/api/middleware"
	"github.com/mcoot/scoutbook/internal/api/response"
	"github.com/mcoot/scoutbook/internal/middleware"
	"github.com/mcoot/scoutbook/internal/services/codes"
	"github.com/mcoot/scoutbook/internal/services/datastore"
	"github.com/mcoot/scoutbook/internal/services/identity/federated"
	"github.com/mcoot/scoutbook/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	Session       *session.Controller
	Store         *datastore.Store
	Validator     *codes.Validator
	TokenVerifier *federated.Verifier
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	sessionHandler := handler.NewSessionHandler(cfg.Session, cfg.TokenVerifier, cfg.Logger)
	reportHandler := handler.NewReportHandler(cfg.Store)
	adminHandler := handler.NewAdminHandler(cfg.Store)
	codeHandler := handler.NewCodeHandler(cfg.Validator)

	// Create middleware
	sessionMiddleware := apimiddleware.RequireSession(cfg.Session)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Session routes (no auth required)
	api.HandleFunc("/session", sessionHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/session/events", sessionHandler.Events).Methods(http.MethodGet)
	api.HandleFunc("/session/login", sessionHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/session/register", sessionHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/session/federated", sessionHandler.Federated).Methods(http.MethodPost)
	api.HandleFunc("/session/biometric", sessionHandler.Biometric).Methods(http.MethodPost)
	api.HandleFunc("/session/logout", sessionHandler.Logout).Methods(http.MethodPost)
	api.HandleFunc("/session/refresh", sessionHandler.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/session/error", sessionHandler.ClearError).Methods(http.MethodDelete)

	// Public code check used by the registration form
	api.HandleFunc("/codes/validate", codeHandler.Validate).Methods(http.MethodPost)

	// Report routes (signed in)
	reports := api.PathPrefix("/reports").Subrouter()
	reports.Use(sessionMiddleware)
	reports.HandleFunc("", reportHandler.List).Methods(http.MethodGet)
	reports.HandleFunc("", reportHandler.Create).Methods(http.MethodPost)
	reports.HandleFunc("/{id}", reportHandler.Get).Methods(http.MethodGet)
	reports.HandleFunc("/{id}", reportHandler.Update).Methods(http.MethodPut)
	reports.HandleFunc("/{id}", reportHandler.Delete).Methods(http.MethodDelete)

	// Admin routes (signed in as an admin)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(sessionMiddleware)
	admin.Use(apimiddleware.RequireAdmin)
	admin.HandleFunc("/codes", adminHandler.ListCodes).Methods(http.MethodGet)
	admin.HandleFunc("/codes", adminHandler.CreateCode).Methods(http.MethodPost)
	admin.HandleFunc("/codes/generate", adminHandler.GenerateCode).Methods(http.MethodPost)
	admin.HandleFunc("/codes/{id}", adminHandler.UpdateCode).Methods(http.MethodPatch)
	admin.HandleFunc("/codes/{id}", adminHandler.DeleteCode).Methods(http.MethodDelete)
	admin.HandleFunc("/users", adminHandler.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", adminHandler.UpdateUser).Methods(http.MethodPatch)
	admin.HandleFunc("/users/{id}", adminHandler.DeleteUser).Methods(http.MethodDelete)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
