package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/scoutbook/internal/api/response"
	"github.com/mcoot/scoutbook/internal/model"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reports",
		Aliases: []string{"report"},
		Short:   "Scouting report commands",
	}

	cmd.AddCommand(newReportListCmd())
	cmd.AddCommand(newReportShowCmd())
	cmd.AddCommand(newReportCreateCmd())
	cmd.AddCommand(newReportDeleteCmd())

	return cmd
}

func newReportListCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/reports"
			if query != "" {
				path += "?q=" + url.QueryEscape(query)
			}

			var result response.ReportList
			if err := client.Get(cmd.Context(), path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Match player, team, position or scout")

	return cmd
}

func newReportShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var report model.Report
			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/v1/reports/%d", id), &report); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(report)
			return nil
		},
	}
}

// reportFields maps create flags to report JSON fields
var reportFields = []struct{ flag, field, usage string }{
	{"player", "player_name", "Player name"},
	{"position", "primary_position", "Primary position"},
	{"team", "team", "Team"},
	{"jersey", "jersey_number", "Jersey number"},
	{"scout", "scout_name", "Scout name"},
	{"event", "event", "Event"},
	{"strengths", "biggest_strengths", "Biggest strengths"},
	{"improve", "improvement_areas", "Areas to improve"},
	{"notes", "notes", "Notes"},
}

func newReportCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a report",
		Long:  "Create a report. Fields left unset keep the server defaults.",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only send what was given so the server defaults survive
			body := map[string]string{}
			for _, f := range reportFields {
				if cmd.Flags().Changed(f.flag) {
					body[f.field], _ = cmd.Flags().GetString(f.flag)
				}
			}

			var created model.Report
			if err := client.Post(cmd.Context(), "/api/v1/reports", body, &created); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(created)
			return nil
		},
	}

	for _, f := range reportFields {
		cmd.Flags().String(f.flag, "", f.usage)
	}

	return cmd
}

func newReportDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := client.Delete(cmd.Context(), fmt.Sprintf("/api/v1/reports/%d", id)); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage(fmt.Sprintf("Deleted report %d", id))
			return nil
		},
	}
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
