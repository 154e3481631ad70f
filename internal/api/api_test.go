package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/scoutbook/internal/api"
	"github.com/mcoot/scoutbook/internal/api/apierr"
	"github.com/mcoot/scoutbook/internal/api/response"
	"github.com/mcoot/scoutbook/internal/factory"
	"github.com/mcoot/scoutbook/internal/model"
	"github.com/mcoot/scoutbook/internal/services/codes"
	"github.com/mcoot/scoutbook/internal/services/identity/federated"
	"github.com/mcoot/scoutbook/internal/services/session"
	"github.com/mcoot/scoutbook/internal/services/vault"
	"github.com/mcoot/scoutbook/internal/testutil"
)

type APISuite struct {
	suite.Suite
	app     *factory.TestApp
	handler http.Handler
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.handler = api.NewRouter(api.RouterConfig{
		Logger:        testutil.NopLogger(),
		Session:       s.app.Session,
		Store:         s.app.Store,
		Validator:     s.app.Validator,
		TokenVerifier: s.app.TokenVerifier,
	})
}

func (s *APISuite) request(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&reqBody).Encode(body))
	}

	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *APISuite) decode(rr *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func (s *APISuite) decodeError(rr *httptest.ResponseRecorder) apierr.APIError {
	var resp apierr.ErrorResponse
	s.decode(rr, &resp)
	return resp.Error
}

func (s *APISuite) loginAdmin() {
	rr := s.request(http.MethodPost, "/api/v1/session/login", map[string]string{
		"email":    "admin@demo.com",
		"password": "admin123",
	})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
}

func (s *APISuite) registerScout(email string) {
	rr := s.request(http.MethodPost, "/api/v1/session/register", map[string]string{
		"first_name":        "Jamie",
		"last_name":         "Reyes",
		"email":             email,
		"password":          "secret1",
		"registration_code": "DEMO123",
	})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
}

func (s *APISuite) TestHealthCheck() {
	rr := s.request(http.MethodGet, "/api/v1/health", nil)
	s.Equal(http.StatusOK, rr.Code)

	var resp response.Health
	s.decode(rr, &resp)
	s.Equal("ok", resp.Status)
}

func (s *APISuite) TestSessionStartsSignedOut() {
	rr := s.request(http.MethodGet, "/api/v1/session", nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	var snap session.Snapshot
	s.decode(rr, &snap)
	s.Equal(session.StateUnauthenticated, snap.State)
	s.False(snap.IsAuthenticated)
	s.Nil(snap.CurrentUser)
	s.True(snap.Biometrics.Available)
	s.False(snap.CanUseBiometrics)
}

func (s *APISuite) TestLoginAdmin() {
	rr := s.request(http.MethodPost, "/api/v1/session/login", map[string]string{
		"email":    "Admin@Demo.com",
		"password": "admin123",
	})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var snap session.Snapshot
	s.decode(rr, &snap)
	s.True(snap.IsAuthenticated)
	s.Require().NotNil(snap.CurrentUser)
	s.Equal(model.UserID(1), snap.CurrentUser.ID)
	s.True(snap.CurrentUser.IsAdmin)
	s.True(snap.HasCachedCredential)
	s.Equal(1, s.app.MockSleeper.Count())
}

func (s *APISuite) TestLoginUnknownAccount() {
	rr := s.request(http.MethodPost, "/api/v1/session/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	})
	s.Equal(http.StatusUnauthorized, rr.Code)

	apiErr := s.decodeError(rr)
	s.Equal(apierr.CodeAccountNotFound, apiErr.Code)
	s.Equal("Account not found. Please register first or check your credentials.", apiErr.Message)

	// The failure is also visible on the session
	var snap session.Snapshot
	s.decode(s.request(http.MethodGet, "/api/v1/session", nil), &snap)
	s.Equal(apiErr.Message, snap.ErrorMessage)

	rr = s.request(http.MethodDelete, "/api/v1/session/error", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.decode(rr, &snap)
	s.Empty(snap.ErrorMessage)
}

func (s *APISuite) TestLoginMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/login", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal(apierr.CodeInvalidRequest, s.decodeError(rr).Code)
}

func (s *APISuite) TestRegisterValidation() {
	cases := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{
			name:   "missing fields",
			body:   map[string]string{"email": "a@b.com"},
			status: http.StatusBadRequest,
			code:   apierr.CodeInvalidRequest,
		},
		{
			name: "short password",
			body: map[string]string{
				"first_name": "A", "last_name": "B", "email": "a@b.com",
				"password": "abc", "registration_code": "DEMO123",
			},
			status: http.StatusBadRequest,
			code:   apierr.CodeWeakPassword,
		},
		{
			name: "existing email",
			body: map[string]string{
				"first_name": "A", "last_name": "B", "email": "ADMIN@demo.com",
				"password": "secret1", "registration_code": "DEMO123",
			},
			status: http.StatusConflict,
			code:   apierr.CodeEmailExists,
		},
		{
			name: "unknown code",
			body: map[string]string{
				"first_name": "A", "last_name": "B", "email": "a@b.com",
				"password": "secret1", "registration_code": "NOPE",
			},
			status: http.StatusBadRequest,
			code:   apierr.CodeInvalidRegistrationCode,
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			rr := s.request(http.MethodPost, "/api/v1/session/register", tc.body)
			s.Equal(tc.status, rr.Code, rr.Body.String())
			s.Equal(tc.code, s.decodeError(rr).Code)
		})
	}
}

func (s *APISuite) TestRegisterConsumesCode() {
	s.registerScout("jamie@example.com")

	var snap session.Snapshot
	s.decode(s.request(http.MethodGet, "/api/v1/session", nil), &snap)
	s.Require().NotNil(snap.CurrentUser)
	s.Equal("Demo Team", snap.CurrentUser.GroupName)
	s.False(snap.CurrentUser.IsAdmin)

	s.request(http.MethodPost, "/api/v1/session/logout", nil)
	s.loginAdmin()
	var list response.RegistrationCodeList
	s.decode(s.request(http.MethodGet, "/api/v1/admin/codes", nil), &list)
	for _, c := range list.Codes {
		if c.Code == "DEMO123" {
			s.Equal(1, c.CurrentUses)
			s.Equal(99, c.RemainingUses)
		}
	}
}

func (s *APISuite) TestFederatedSignInWithToken() {
	token, err := federated.Sign(federated.Credential{
		ProviderID: "apple-001",
		Email:      "scout@icloud.com",
		FirstName:  "Pat",
		LastName:   "Lee",
	}, factory.TestFederatedSecret, s.app.MockClock.Now(), time.Hour)
	s.Require().NoError(err)

	rr := s.request(http.MethodPost, "/api/v1/session/federated", map[string]string{"identity_token": token})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var snap session.Snapshot
	s.decode(rr, &snap)
	s.Require().NotNil(snap.CurrentUser)
	s.Equal("scout@icloud.com", snap.CurrentUser.Email)
	s.Equal("Pat", snap.CurrentUser.FirstName)

	user, err := s.app.Store.FindUserByFederatedID("apple-001")
	s.Require().NoError(err)
	s.Equal(snap.CurrentUser.ID, user.ID)
}

func (s *APISuite) TestFederatedSignInRejectsBadToken() {
	token, err := federated.Sign(federated.Credential{ProviderID: "apple-001"}, "wrong-secret", s.app.MockClock.Now(), time.Hour)
	s.Require().NoError(err)

	rr := s.request(http.MethodPost, "/api/v1/session/federated", map[string]string{"identity_token": token})
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal(apierr.CodeInvalidFederatedToken, s.decodeError(rr).Code)
}

func (s *APISuite) TestFederatedSignInRequiresProvider() {
	rr := s.request(http.MethodPost, "/api/v1/session/federated", map[string]string{"email": "a@b.com"})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal(apierr.CodeInvalidRequest, s.decodeError(rr).Code)
}

func (s *APISuite) TestFederatedSignInRequiresTokenWhenSecretConfigured() {
	rr := s.request(http.MethodPost, "/api/v1/session/federated", map[string]string{
		"provider_id": "attacker-001",
		"email":       "admin@demo.com",
	})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal(apierr.CodeInvalidRequest, s.decodeError(rr).Code)

	admin, err := s.app.Store.FindUserByEmail("admin@demo.com")
	s.Require().NoError(err)
	s.Empty(admin.FederatedID)
	s.False(s.app.Session.Snapshot().IsAuthenticated)
}

func (s *APISuite) TestFederatedSignInWithProviderFieldsWithoutSecret() {
	s.handler = api.NewRouter(api.RouterConfig{
		Logger:        testutil.NopLogger(),
		Session:       s.app.Session,
		Store:         s.app.Store,
		Validator:     s.app.Validator,
		TokenVerifier: federated.NewVerifier("", nil),
	})

	rr := s.request(http.MethodPost, "/api/v1/session/federated", map[string]string{"provider_id": "apple-002"})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var snap session.Snapshot
	s.decode(rr, &snap)
	s.Require().NotNil(snap.CurrentUser)
	s.Equal("Scout", snap.CurrentUser.FirstName)
}

func (s *APISuite) TestSignInWhileAuthenticatedConflicts() {
	s.loginAdmin()

	rr := s.request(http.MethodPost, "/api/v1/session/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "secret1",
	})
	s.Equal(http.StatusConflict, rr.Code)
	s.Equal(apierr.CodeAlreadyAuthenticated, s.decodeError(rr).Code)

	var snap session.Snapshot
	s.decode(s.request(http.MethodGet, "/api/v1/session", nil), &snap)
	s.True(snap.IsAuthenticated)
	s.Equal("admin@demo.com", snap.CurrentUser.Email)
}

func (s *APISuite) TestBiometricSignIn() {
	// Nothing cached yet
	rr := s.request(http.MethodPost, "/api/v1/session/biometric", nil)
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal(apierr.CodeCredentialsNotFound, s.decodeError(rr).Code)

	s.registerScout("jamie@example.com")
	rr = s.request(http.MethodPost, "/api/v1/session/logout", nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	var snap session.Snapshot
	s.decode(rr, &snap)
	s.False(snap.IsAuthenticated)
	s.True(snap.CanUseBiometrics)

	rr = s.request(http.MethodPost, "/api/v1/session/biometric", nil)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.decode(rr, &snap)
	s.True(snap.IsAuthenticated)
	s.Equal("jamie@example.com", snap.CurrentUser.Email)
}

func (s *APISuite) TestBiometricPromptDeclined() {
	s.loginAdmin()
	s.request(http.MethodPost, "/api/v1/session/logout", nil)

	s.app.Authenticator.SetResult(model.ErrAuthenticationFailed)
	rr := s.request(http.MethodPost, "/api/v1/session/biometric", nil)
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal(apierr.CodeAuthenticationFailed, s.decodeError(rr).Code)

	// Declining the prompt leaves no error on the session
	var snap session.Snapshot
	s.decode(s.request(http.MethodGet, "/api/v1/session", nil), &snap)
	s.Empty(snap.ErrorMessage)
	s.False(snap.IsAuthenticated)
}

func (s *APISuite) TestRefreshBiometrics() {
	s.app.Authenticator.SetKind(vault.KindTouchID)

	rr := s.request(http.MethodPost, "/api/v1/session/refresh", nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	var snap session.Snapshot
	s.decode(rr, &snap)
	s.Equal(vault.KindTouchID, snap.Biometrics.Kind)
}

func (s *APISuite) TestReportsRequireSession() {
	rr := s.request(http.MethodGet, "/api/v1/reports", nil)
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal(apierr.CodeUnauthorized, s.decodeError(rr).Code)
}

func (s *APISuite) TestReportLifecycle() {
	s.loginAdmin()

	var list response.ReportList
	s.decode(s.request(http.MethodGet, "/api/v1/reports", nil), &list)
	s.Len(list.Reports, 2)

	s.decode(s.request(http.MethodGet, "/api/v1/reports?q=hawks", nil), &list)
	s.Require().Len(list.Reports, 1)
	s.Equal("Sarah Davis", list.Reports[0].DisplayName)

	rr := s.request(http.MethodPost, "/api/v1/reports", map[string]string{
		"primary_position": "C",
		"team":             "Eagles",
	})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var created model.Report
	s.decode(rr, &created)
	s.Equal(model.ReportID(1002), created.ID)
	s.Equal("C", created.PrimaryPosition)

	s.decode(s.request(http.MethodGet, "/api/v1/reports?q=eagles", nil), &list)
	s.Require().Len(list.Reports, 2)
	s.Equal(model.UnnamedPlayer, list.Reports[1].DisplayName)

	path := fmt.Sprintf("/api/v1/reports/%d", created.ID)
	rr = s.request(http.MethodPut, path, map[string]string{"player_name": "Alex Kim"})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var updated model.Report
	s.decode(rr, &updated)
	s.Equal("Alex Kim", updated.PlayerName)
	s.Equal("C", updated.PrimaryPosition)

	rr = s.request(http.MethodDelete, path, nil)
	s.Equal(http.StatusNoContent, rr.Code)

	rr = s.request(http.MethodGet, path, nil)
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal(apierr.CodeReportNotFound, s.decodeError(rr).Code)
}

func (s *APISuite) TestReportInvalidID() {
	s.loginAdmin()

	rr := s.request(http.MethodGet, "/api/v1/reports/abc", nil)
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *APISuite) TestAdminRequiresAdmin() {
	rr := s.request(http.MethodGet, "/api/v1/admin/codes", nil)
	s.Equal(http.StatusUnauthorized, rr.Code)

	s.registerScout("jamie@example.com")
	rr = s.request(http.MethodGet, "/api/v1/admin/codes", nil)
	s.Equal(http.StatusForbidden, rr.Code)
	s.Equal(apierr.CodeForbidden, s.decodeError(rr).Code)
}

func (s *APISuite) TestAdminCodeManagement() {
	s.loginAdmin()

	rr := s.request(http.MethodPost, "/api/v1/admin/codes", map[string]any{
		"code":      "TIGERS2025",
		"team_name": "Tigers",
	})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var created response.RegistrationCode
	s.decode(rr, &created)
	s.Equal(model.DefaultMaxUses, created.MaxUses)
	s.True(created.IsActive)

	rr = s.request(http.MethodPost, "/api/v1/admin/codes", map[string]any{
		"code":      "tigers2025",
		"team_name": "Tigers",
	})
	s.Equal(http.StatusConflict, rr.Code)
	s.Equal(apierr.CodeCodeExists, s.decodeError(rr).Code)

	rr = s.request(http.MethodPatch, "/api/v1/admin/codes/"+created.ID, map[string]any{"is_active": false})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var result codes.Result
	s.decode(s.request(http.MethodPost, "/api/v1/codes/validate", map[string]string{"code": "TIGERS2025"}), &result)
	s.False(result.Valid)

	rr = s.request(http.MethodDelete, "/api/v1/admin/codes/"+created.ID, nil)
	s.Equal(http.StatusNoContent, rr.Code)

	rr = s.request(http.MethodDelete, "/api/v1/admin/codes/"+created.ID, nil)
	s.Equal(http.StatusNotFound, rr.Code)
}

func (s *APISuite) TestAdminGenerateCode() {
	s.loginAdmin()
	s.app.MockRandom.QueueString("K7PX2M9Q")

	rr := s.request(http.MethodPost, "/api/v1/admin/codes/generate", map[string]any{
		"team_name": "Cubs",
		"max_uses":  5,
	})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var created response.RegistrationCode
	s.decode(rr, &created)
	s.Equal("K7PX2M9Q", created.Code)
	s.Equal(5, created.RemainingUses)

	var result codes.Result
	s.decode(s.request(http.MethodPost, "/api/v1/codes/validate", map[string]string{"code": " k7px2m9q "}), &result)
	s.True(result.Valid)
	s.Equal("Cubs", result.TeamName)
}

func (s *APISuite) TestAdminUserManagement() {
	s.registerScout("jamie@example.com")
	s.request(http.MethodPost, "/api/v1/session/logout", nil)
	s.loginAdmin()

	scout, err := s.app.Store.FindUserByEmail("jamie@example.com")
	s.Require().NoError(err)

	var users response.UserList
	s.decode(s.request(http.MethodGet, "/api/v1/admin/users", nil), &users)
	s.Len(users.Users, 2)

	// The seeded admin cannot be demoted while it is the only one
	rr := s.request(http.MethodPatch, "/api/v1/admin/users/1", map[string]any{"is_admin": false})
	s.Equal(http.StatusConflict, rr.Code)
	s.Equal(apierr.CodeLastAdmin, s.decodeError(rr).Code)

	rr = s.request(http.MethodPatch, fmt.Sprintf("/api/v1/admin/users/%d", scout.ID), map[string]any{"is_admin": true})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var promoted model.User
	s.decode(rr, &promoted)
	s.True(promoted.IsAdmin)

	rr = s.request(http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", scout.ID), nil)
	s.Equal(http.StatusNoContent, rr.Code)

	rr = s.request(http.MethodDelete, "/api/v1/admin/users/999", nil)
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal(apierr.CodeUserNotFound, s.decodeError(rr).Code)
}
