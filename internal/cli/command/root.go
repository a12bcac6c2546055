package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tasklist-go/internal/cli/config"
	"github.com/yndnr/tasklist-go/internal/cli/connection"
	"github.com/yndnr/tasklist-go/internal/cli/output"
	"github.com/yndnr/tasklist-go/internal/infra/buildinfo"
)

const cliConfigKey = "cliConfig"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "tasklist-cli",
		Usage:   "Command-line client for tasklist-server",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			TaskCommand(),
			SystemCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: loadCLIConfig,
	}
}

// globalFlags returns the global CLI flags. server and output have no flag
// default so the CLI config file can supply one.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "tasklist-server address (default from config, else http://localhost:5080)",
			EnvVars: []string{"TASKLIST_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			EnvVars: []string{"TASKLIST_OUTPUT"},
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Log requests to stderr",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file",
			EnvVars: []string{"TASKLIST_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
	}
}

func loadCLIConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	c.App.Metadata[cliConfigKey] = cfg
	return nil
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server  string
	Output  output.Format
	Wide    bool
	Verbose bool
}

// ParseGlobalFlags resolves global flags: flags and environment first, then
// the CLI config file.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg := config.Default()
	if loaded, ok := c.App.Metadata[cliConfigKey].(*config.CLIConfig); ok {
		cfg = loaded
	}

	flags := &GlobalFlags{
		Server:  cfg.DefaultServer,
		Wide:    cfg.Wide || c.Bool("wide"),
		Verbose: c.Bool("verbose"),
	}
	if c.IsSet("server") {
		flags.Server = c.String("server")
	}

	format := cfg.DefaultOutput
	if c.IsSet("output") {
		format = c.String("output")
	}
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	flags.Output = f

	return flags, nil
}

// EnsureConnected returns an HTTP client for the selected server.
func EnsureConnected(c *cli.Context) (*connection.HTTPClient, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, err
	}
	if flags.Server == "" {
		return nil, fmt.Errorf("no server configured (use --server)")
	}
	return connection.NewHTTPClient(flags.Server), nil
}

// render writes data in the selected output format.
func render(c *cli.Context, data any) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	return output.NewFormatter(flags.Output, flags.Wide).Format(c.App.Writer, data)
}

// isTable reports whether output is human-readable.
func isTable(c *cli.Context) bool {
	flags, err := ParseGlobalFlags(c)
	return err == nil && flags.Output == output.FormatTable
}

// verbosef writes a diagnostic line to stderr when --verbose is set.
func verbosef(c *cli.Context, format string, args ...any) {
	if c.Bool("verbose") {
		fmt.Fprintf(c.App.ErrWriter, format+"\n", args...)
	}
}

// requestContext bounds one command's requests.
func requestContext(c *cli.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

// PrintError prints an error message to the app's error writer.
func PrintError(c *cli.Context, format string, args ...any) {
	fmt.Fprintf(c.App.ErrWriter, "error: "+format+"\n", args...)
}
