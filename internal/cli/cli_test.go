package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/scoutbook/internal/api"
	"github.com/mcoot/scoutbook/internal/api/response"
	"github.com/mcoot/scoutbook/internal/factory"
	"github.com/mcoot/scoutbook/internal/services/session"
	"github.com/mcoot/scoutbook/internal/testutil"
)

type CLISuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:        testutil.NopLogger(),
		Session:       s.app.Session,
		Store:         s.app.Store,
		Validator:     s.app.Validator,
		TokenVerifier: s.app.TokenVerifier,
	}))
}

func (s *CLISuite) TearDownTest() {
	s.server.Close()
}

// run executes the CLI against the test server and returns stdout
func (s *CLISuite) run(stdin string, args ...string) (string, error) {
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--server", s.server.URL}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func (s *CLISuite) TestHealth() {
	out, err := s.run("", "health")
	s.Require().NoError(err)
	s.Equal("Status: ok\n", out)
}

func (s *CLISuite) TestLoginPromptsForPassword() {
	out, err := s.run("admin123\n", "session", "login", "--email", "admin@demo.com")
	s.Require().NoError(err)
	s.Contains(out, "State: authenticated")
	s.Contains(out, "User: Admin User <admin@demo.com> [admin]")
	s.Contains(out, "Biometrics: face_id")
}

func (s *CLISuite) TestLoginFailureReturnsAPIError() {
	_, err := s.run("", "session", "login", "--email", "nobody@example.com", "--password", "whatever")
	s.Require().Error(err)

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("ACCOUNT_NOT_FOUND", apiErr.Code)
	s.Equal(401, apiErr.Status)
}

func (s *CLISuite) TestJSONOutput() {
	out, err := s.run("", "--output", "json", "session", "status")
	s.Require().NoError(err)

	var snap session.Snapshot
	s.Require().NoError(json.Unmarshal([]byte(out), &snap))
	s.Equal(session.StateUnauthenticated, snap.State)
}

func (s *CLISuite) TestUnknownOutputFormat() {
	_, err := s.run("", "--output", "yaml", "health")
	s.Error(err)
}

func (s *CLISuite) TestReportCommands() {
	_, err := s.run("", "session", "login", "--email", "admin@demo.com", "--password", "admin123")
	s.Require().NoError(err)

	out, err := s.run("", "reports", "list", "-q", "eagles")
	s.Require().NoError(err)
	s.Contains(out, "John Smith")
	s.NotContains(out, "Sarah Davis")

	out, err = s.run("", "--output", "json", "reports", "create", "--position", "P", "--team", "Cubs")
	s.Require().NoError(err)

	var created struct {
		ID        int    `json:"id"`
		Team      string `json:"team"`
		ScoutDate string `json:"scout_date"`
	}
	s.Require().NoError(json.Unmarshal([]byte(out), &created))
	s.Equal("Cubs", created.Team)
	s.NotEqual("0001-01-01T00:00:00Z", created.ScoutDate)

	out, err = s.run("", "reports", "show", "1002")
	s.Require().NoError(err)
	s.Contains(out, "Unnamed Player")

	out, err = s.run("", "reports", "delete", "1002")
	s.Require().NoError(err)
	s.Equal("Deleted report 1002\n", out)

	_, err = s.run("", "reports", "show", "abc")
	s.Error(err)
}

func (s *CLISuite) TestCodeCommands() {
	_, err := s.run("", "session", "login", "--email", "admin@demo.com", "--password", "admin123")
	s.Require().NoError(err)

	s.app.MockRandom.QueueString("ZX9Q4RT2")
	out, err := s.run("", "--output", "json", "codes", "generate", "--team", "Cubs", "--max-uses", "3")
	s.Require().NoError(err)

	var created response.RegistrationCode
	s.Require().NoError(json.Unmarshal([]byte(out), &created))
	s.Equal("ZX9Q4RT2", created.Code)

	out, err = s.run("", "codes", "validate", "zx9q4rt2")
	s.Require().NoError(err)
	s.Equal("Code is valid for Cubs\n", out)

	_, err = s.run("", "codes", "disable", created.ID)
	s.Require().NoError(err)

	out, err = s.run("", "codes", "validate", "ZX9Q4RT2")
	s.Require().NoError(err)
	s.Equal("Code is invalid or expired\n", out)

	out, err = s.run("", "codes", "list")
	s.Require().NoError(err)
	s.Contains(out, "EAGLES2024")
	s.Contains(out, "ZX9Q4RT2")
}

func (s *CLISuite) TestUserCommandsNeedAdmin() {
	_, err := s.run("secret1\n", "session", "register",
		"--first-name", "Jamie", "--last-name", "Reyes",
		"--email", "jamie@example.com", "--code", "HAWKS2024")
	s.Require().NoError(err)

	_, err = s.run("", "users", "list")
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("FORBIDDEN", apiErr.Code)
}

func (s *CLISuite) TestBiometricAfterLogout() {
	_, err := s.run("", "session", "login", "--email", "admin@demo.com", "--password", "admin123")
	s.Require().NoError(err)
	_, err = s.run("", "session", "logout")
	s.Require().NoError(err)

	out, err := s.run("", "session", "biometric")
	s.Require().NoError(err)
	s.Contains(out, "State: authenticated")
}

func TestReadEvents(t *testing.T) {
	stream := ": keepalive\n\nevent: session\ndata: {\"state\":\"authenticating\"}\n\nevent: session\ndata: {\"state\":\"authenticated\"}\n\n"

	var events []string
	err := readEvents(strings.NewReader(stream), func(event, data string) {
		events = append(events, event+" "+data)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{
		`session {"state":"authenticating"}`,
		`session {"state":"authenticated"}`,
	}, events)
}

func TestReadSecretFromPipe(t *testing.T) {
	var prompt bytes.Buffer
	secret, err := readSecret("Passcode", strings.NewReader("1234\r\n"), &prompt)

	require.NoError(t, err)
	assert.Equal(t, "1234", secret)
	assert.Equal(t, "Passcode: ", prompt.String())
}

func TestReadSecretEmptyInput(t *testing.T) {
	_, err := readSecret("Password", strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}
