package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mcoot/scoutbook/internal/api/request"
	"github.com/mcoot/scoutbook/internal/services/session"
	"github.com/mcoot/scoutbook/internal/services/vault"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Sign-in and session commands",
	}

	cmd.AddCommand(newSessionStatusCmd())
	cmd.AddCommand(newSessionLoginCmd())
	cmd.AddCommand(newSessionRegisterCmd())
	cmd.AddCommand(newSessionFederatedCmd())
	cmd.AddCommand(newSessionBiometricCmd())
	cmd.AddCommand(newSessionLogoutCmd())
	cmd.AddCommand(newSessionRefreshCmd())
	cmd.AddCommand(newSessionClearErrorCmd())

	return cmd
}

// printSession prints the session returned by a call
func printSession(cmd *cobra.Command, method, path string, body any) error {
	var snap session.Snapshot
	if err := client.Do(cmd.Context(), method, path, body, &snap); err != nil {
		return err
	}

	NewOutput(cfg.Output, cmd.OutOrStdout()).Print(snap)
	return nil
}

func newSessionStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printSession(cmd, http.MethodGet, "/api/v1/session", nil)
		},
	}
}

func newSessionLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readSecret("Password", cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			req := request.LoginRequest{Email: email, Password: password}
			return printSession(cmd, http.MethodPost, "/api/v1/session/login", req)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newSessionRegisterCmd() *cobra.Command {
	var req request.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account with a team registration code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				var err error
				if req.Password, err = readSecret("Password", cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			return printSession(cmd, http.MethodPost, "/api/v1/session/register", req)
		},
	}

	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name (required)")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&req.RegistrationCode, "code", "", "Registration code (required)")
	for _, name := range []string{"first-name", "last-name", "email", "code"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newSessionFederatedCmd() *cobra.Command {
	var req request.FederatedRequest

	cmd := &cobra.Command{
		Use:   "federated",
		Short: "Sign in with a federated identity provider",
		Long: `Sign in with a signed identity token (--token), or with the raw provider
fields when the server has no token secret configured (--provider-id with
optional email and names).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.IdentityToken == "" && req.ProviderID == "" {
				return fmt.Errorf("one of --token or --provider-id is required")
			}
			return printSession(cmd, http.MethodPost, "/api/v1/session/federated", req)
		},
	}

	cmd.Flags().StringVar(&req.IdentityToken, "token", "", "Signed identity token")
	cmd.Flags().StringVar(&req.ProviderID, "provider-id", "", "Provider subject identifier")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email shared by the provider")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "Given name shared by the provider")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Family name shared by the provider")
	cmd.MarkFlagsMutuallyExclusive("token", "provider-id")

	return cmd
}

func newSessionBiometricCmd() *cobra.Command {
	var passcode string

	cmd := &cobra.Command{
		Use:   "biometric",
		Short: "Sign in with the credential cached in the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passcode == "" {
				var snap session.Snapshot
				if err := client.Get(cmd.Context(), "/api/v1/session", &snap); err != nil {
					return err
				}
				if snap.Biometrics.Kind == vault.KindPasscode {
					var err error
					if passcode, err = readSecret("Passcode", cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
						return err
					}
				}
			}

			req := request.BiometricRequest{Passcode: passcode}
			return printSession(cmd, http.MethodPost, "/api/v1/session/biometric", req)
		},
	}

	cmd.Flags().StringVar(&passcode, "passcode", "", "Vault passcode (prompted when the vault needs one)")

	return cmd
}

func newSessionLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out, keeping the cached credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printSession(cmd, http.MethodPost, "/api/v1/session/logout", nil)
		},
	}
}

func newSessionRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-check biometric availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printSession(cmd, http.MethodPost, "/api/v1/session/refresh", nil)
		},
	}
}

func newSessionClearErrorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-error",
		Short: "Dismiss the last sign-in error",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printSession(cmd, http.MethodDelete, "/api/v1/session/error", nil)
		},
	}
}
