package command

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tasklist-go/internal/cli/connection"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server health and status",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server health and readiness",
				Action: systemHealth,
			},
			{
				Name:   "status",
				Usage:  "Show server status summary",
				Action: systemStatus,
			},
		},
	}
}

func systemHealth(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, 10*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/health")
	if err != nil {
		PrintError(c, "health check failed: %v", err)
		return fmt.Errorf("server unreachable")
	}

	var health healthResponse
	if err := connection.ParseResponse(resp, &health); err != nil {
		return err
	}

	result := Health{Server: client.BaseURL(), Status: health.Status}

	resp, err = client.Get(ctx, "/ready")
	if err != nil {
		return fmt.Errorf("readiness check failed: %w", err)
	}
	var ready healthResponse
	err = connection.ParseResponse(resp, &ready)
	var apiErr *connection.APIError
	switch {
	case err == nil:
		result.Ready = true
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable:
		verbosef(c, "server not ready: %v", err)
	default:
		return err
	}

	if !isTable(c) {
		return render(c, result)
	}

	switch {
	case result.Status != "healthy":
		fmt.Fprintf(c.App.Writer, "Server is unhealthy: %s\n", result.Status)
	case !result.Ready:
		fmt.Fprintf(c.App.Writer, "Server is healthy but not ready\n")
	default:
		fmt.Fprintf(c.App.Writer, "Server is healthy\n")
	}
	fmt.Fprintf(c.App.Writer, "  Target: %s\n", result.Server)
	return nil
}

func systemStatus(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, connection.DefaultTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/admin/v1/status/summary")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var summary StatusSummary
	if err := connection.ParseResponse(resp, &summary); err != nil {
		return err
	}

	if !isTable(c) {
		return render(c, summary)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "System Status\n")
	fmt.Fprintf(w, "=============\n\n")
	fmt.Fprintf(w, "Status:         %s\n", summary.Status)
	fmt.Fprintf(w, "Version:        %s (%s)\n", summary.Build.Version, summary.Build.Commit)
	fmt.Fprintf(w, "Uptime:         %s\n", time.Duration(summary.UptimeSeconds)*time.Second)
	fmt.Fprintf(w, "Tasks:          %d\n", summary.Tasks)
	fmt.Fprintf(w, "Workers:        %d (%d processed)\n", summary.Workers, summary.Processed)
	fmt.Fprintf(w, "Open journals:  %d\n", summary.OpenJournals)
	if flags, err := ParseGlobalFlags(c); err == nil && flags.Wide {
		fmt.Fprintf(w, "Started at:     %s\n", summary.StartedAt)
		fmt.Fprintf(w, "Goroutines:     %d\n", summary.Goroutines)
		fmt.Fprintf(w, "Go version:     %s\n", summary.Build.GoVersion)
	}
	return nil
}
