package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/scoutbook/internal/services/session"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream session changes",
		Long: `Connect to the session SSE endpoint and print every session change in
real-time: sign-in progress, the signed-in user, error messages and biometric
availability. The current session is printed first.

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return streamEvents(ctx, cmd.OutOrStdout())
		},
	}

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time        `json:"time"`
	Event string           `json:"event"`
	Data  session.Snapshot `json:"data"`
}

func streamEvents(ctx context.Context, w io.Writer) error {
	url := strings.TrimSuffix(cfg.ServerURL, "/") + "/api/v1/session/events"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	httpClient := &http.Client{
		Timeout: 0, // No timeout for SSE
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	out := NewOutput(cfg.Output, w)
	if cfg.Output != "json" {
		_, _ = fmt.Fprintln(w, "Connected to session stream")
	}

	err = readEvents(resp.Body, func(event, data string) {
		printEvent(out, event, data)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if cfg.Output != "json" {
		_, _ = fmt.Fprintln(w, "Disconnected")
	}
	return nil
}

// readEvents parses an SSE stream, calling fn for each complete event.
// Comment lines (keepalives) are skipped.
func readEvents(r io.Reader, fn func(event, data string)) error {
	scanner := bufio.NewScanner(r)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			// End of event
			if currentEvent != "" {
				fn(currentEvent, strings.Join(dataLines, "\n"))
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	return scanner.Err()
}

func printEvent(out *Output, event, data string) {
	var snap session.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		out.PrintError(fmt.Errorf("malformed %s event: %w", event, err))
		return
	}

	now := time.Now()
	if out.format == "json" {
		out.printJSON(SSEEvent{Time: now, Event: event, Data: snap})
		return
	}

	_, _ = fmt.Fprintf(out.w, "[%s] %s\n", now.Format("2006-01-02 15:04:05"), event)
	out.printSnapshot(snap)
}
