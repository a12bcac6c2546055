package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	cliconfig "github.com/yndnr/tasklist-go/internal/cli/config"
	"github.com/yndnr/tasklist-go/internal/infra/confloader"
	serverconfig "github.com/yndnr/tasklist-go/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective CLI settings",
				Action: configShow,
			},
			{
				Name:  "init",
				Usage: "Write a CLI config file with the current settings",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
			{
				Name:      "validate",
				Usage:     "Validate a tasklist-server config file locally",
				ArgsUsage: "FILE",
				Action:    configValidate,
			},
		},
	}
}

// effectiveConfig is the CLI config after flags and environment.
func effectiveConfig(c *cli.Context) (*cliconfig.CLIConfig, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, err
	}
	return &cliconfig.CLIConfig{
		DefaultServer: flags.Server,
		DefaultOutput: string(flags.Output),
		Wide:          flags.Wide,
	}, nil
}

func configShow(c *cli.Context) error {
	cfg, err := effectiveConfig(c)
	if err != nil {
		return err
	}

	path := c.String("config")
	if !isTable(c) {
		return render(c, struct {
			Path   string               `json:"path" yaml:"path"`
			Config *cliconfig.CLIConfig `json:"config" yaml:"config"`
		}{path, cfg})
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Config file: %s", path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprint(w, " (not found)")
	}
	fmt.Fprintf(w, "\n\nServer:  %s\nOutput:  %s\nWide:    %t\n", cfg.DefaultServer, cfg.DefaultOutput, cfg.Wide)
	return nil
}

func configInit(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg, err := effectiveConfig(c)
	if err != nil {
		return err
	}
	if err := cliconfig.Save(cfg, path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

// configValidate loads FILE the way tasklist-server does, environment
// included, and runs the server's checks on it.
func configValidate(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("configuration file path required")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	cfg := serverconfig.Default()
	loader := confloader.NewLoader(confloader.WithConfigFile(path))
	if err := loader.Load(cfg); err != nil {
		return err
	}
	if err := serverconfig.Verify(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !isTable(c) {
		return render(c, cfg)
	}
	fmt.Fprintf(c.App.Writer, "Configuration is valid: %s\n", path)
	return nil
}
