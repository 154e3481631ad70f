package request

// LoginRequest is the request body for signing in with email and password
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the request body for creating an account
type RegisterRequest struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	RegistrationCode string `json:"registration_code"`
}

// FederatedRequest is the request body for provider sign-in. A signed
// identity token takes precedence over the explicit fields.
type FederatedRequest struct {
	IdentityToken string `json:"identity_token,omitempty"`
	ProviderID    string `json:"provider_id,omitempty"`
	Email         string `json:"email,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
}

// BiometricRequest is the request body for biometric sign-in
type BiometricRequest struct {
	Passcode string `json:"passcode,omitempty"`
}

// CreateCodeRequest is the request body for adding a registration code.
// An empty code is generated.
type CreateCodeRequest struct {
	Code     string `json:"code,omitempty"`
	TeamName string `json:"team_name"`
	MaxUses  int    `json:"max_uses,omitempty"`
}

// UpdateCodeRequest is the request body for enabling or disabling a code
type UpdateCodeRequest struct {
	IsActive *bool `json:"is_active"`
}

// UpdateUserRequest is the request body for changing a user's admin flag
type UpdateUserRequest struct {
	IsAdmin *bool `json:"is_admin"`
}

// ValidateCodeRequest is the request body for checking a registration code
type ValidateCodeRequest struct {
	Code string `json:"code"`
}
