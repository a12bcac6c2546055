package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tasklist-go/internal/cli/connection"
	"github.com/yndnr/tasklist-go/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show client and server versions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "client",
				Usage: "Only show the client version",
			},
		},
		Action: versionAction,
	}
}

func versionAction(c *cli.Context) error {
	info := VersionInfo{Client: buildinfo.Get()}

	if !c.Bool("client") {
		server, err := serverVersion(c)
		if err != nil {
			// A down server still prints the client version.
			verbosef(c, "server version unavailable: %v", err)
		} else {
			info.Server = server
		}
	}

	if !isTable(c) {
		return render(c, info)
	}

	fmt.Fprintf(c.App.Writer, "Client: %s (%s, %s)\n", info.Client.Version, info.Client.Commit, info.Client.GoVersion)
	if info.Server != nil {
		fmt.Fprintf(c.App.Writer, "Server: %s (%s, %s)\n", info.Server.Version, info.Server.Commit, info.Server.GoVersion)
	}
	return nil
}

func serverVersion(c *cli.Context) (*buildinfo.Info, error) {
	client, err := EnsureConnected(c)
	if err != nil {
		return nil, err
	}

	ctx, cancel := requestContext(c, connection.DefaultTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/admin/v1/status/summary")
	if err != nil {
		return nil, err
	}

	var summary StatusSummary
	if err := connection.ParseResponse(resp, &summary); err != nil {
		return nil, err
	}
	return &summary.Build, nil
}
