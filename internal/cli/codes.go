package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/scoutbook/internal/api/request"
	"github.com/mcoot/scoutbook/internal/api/response"
	"github.com/mcoot/scoutbook/internal/services/codes"
)

func newCodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "codes",
		Aliases: []string{"code"},
		Short:   "Registration code commands (admin)",
	}

	cmd.AddCommand(newCodeListCmd())
	cmd.AddCommand(newCodeAddCmd())
	cmd.AddCommand(newCodeGenerateCmd())
	cmd.AddCommand(newCodeSetActiveCmd("enable", true))
	cmd.AddCommand(newCodeSetActiveCmd("disable", false))
	cmd.AddCommand(newCodeDeleteCmd())
	cmd.AddCommand(newCodeValidateCmd())

	return cmd
}

func newCodeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registration codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.RegistrationCodeList
			if err := client.Get(cmd.Context(), "/api/v1/admin/codes", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func addCodeFlags(cmd *cobra.Command, req *request.CreateCodeRequest) {
	cmd.Flags().StringVar(&req.TeamName, "team", "", "Team assigned to users of the code (required)")
	cmd.Flags().IntVar(&req.MaxUses, "max-uses", 0, "Redemption budget (server default when 0)")
	_ = cmd.MarkFlagRequired("team")
}

func newCodeAddCmd() *cobra.Command {
	var req request.CreateCodeRequest

	cmd := &cobra.Command{
		Use:   "add <code>",
		Short: "Add a registration code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Code = args[0]

			var created response.RegistrationCode
			if err := client.Post(cmd.Context(), "/api/v1/admin/codes", req, &created); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(created)
			return nil
		},
	}
	addCodeFlags(cmd, &req)

	return cmd
}

func newCodeGenerateCmd() *cobra.Command {
	var req request.CreateCodeRequest

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Add a registration code with a random code string",
		RunE: func(cmd *cobra.Command, args []string) error {
			var created response.RegistrationCode
			if err := client.Post(cmd.Context(), "/api/v1/admin/codes/generate", req, &created); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(created)
			return nil
		},
	}
	addCodeFlags(cmd, &req)

	return cmd
}

func newCodeSetActiveCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: fmt.Sprintf("Mark a registration code %sd", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.UpdateCodeRequest{IsActive: &active}

			var updated response.RegistrationCode
			if err := client.Patch(cmd.Context(), "/api/v1/admin/codes/"+args[0], req, &updated); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(updated)
			return nil
		},
	}
}

func newCodeDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a registration code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), "/api/v1/admin/codes/"+args[0]); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Deleted registration code " + args[0])
			return nil
		},
	}
}

func newCodeValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <code>",
		Short: "Check whether a code can be used to register",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result codes.Result
			if err := client.Post(cmd.Context(), "/api/v1/codes/validate", request.ValidateCodeRequest{Code: args[0]}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}
