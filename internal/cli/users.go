package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/scoutbook/internal/api/request"
	"github.com/mcoot/scoutbook/internal/api/response"
	"github.com/mcoot/scoutbook/internal/model"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "User management commands (admin)",
	}

	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserSetAdminCmd("promote", true))
	cmd.AddCommand(newUserSetAdminCmd("demote", false))
	cmd.AddCommand(newUserDeleteCmd())

	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.UserList
			if err := client.Get(cmd.Context(), "/api/v1/admin/users", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newUserSetAdminCmd(use string, admin bool) *cobra.Command {
	short := "Grant administrator access"
	if !admin {
		short = "Revoke administrator access"
	}

	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var user model.User
			req := request.UpdateUserRequest{IsAdmin: &admin}
			if err := client.Patch(cmd.Context(), fmt.Sprintf("/api/v1/admin/users/%d", id), req, &user); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(user)
			return nil
		},
	}
}

func newUserDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := client.Delete(cmd.Context(), fmt.Sprintf("/api/v1/admin/users/%d", id)); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage(fmt.Sprintf("Deleted user %d", id))
			return nil
		},
	}
}
