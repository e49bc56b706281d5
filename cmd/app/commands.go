package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/urfave/cli/v3"

	"github.com/starford/studylog/internal"
	pkgconfig "github.com/starford/studylog/pkg/config"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file (defaults are used when it does not exist)",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func contentFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:  "logs",
			Usage: "Directory holding YYYYMM/YYYY-MM-DD.json logs (overrides content.logs_dir)",
		},
	}
}

func siteFlags() []cli.Flag {
	return append(contentFlags(),
		&cli.StringFlag{
			Name:  "out",
			Usage: "Output directory for the generated site (overrides site.out_dir)",
		},
		&cli.StringFlag{
			Name:  "today",
			Usage: "Freeze today's date (YYYY-MM-DD) for reproducible builds",
		},
	)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	changed := false
	if v := cmd.String("logs"); v != "" {
		cfg.Content.LogsDir = v
		changed = true
	}
	if v := cmd.String("out"); v != "" {
		cfg.Site.OutDir = v
		changed = true
	}
	if v := cmd.String("port"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q", v)
		}
		cfg.App.HTTP.Port = port
		changed = true
	}
	if changed {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid flags: %w", err)
		}
	}
	return cfg, nil
}

func options(cmd *cli.Command) ([]internal.Option, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts := []internal.Option{internal.WithConfig(cfg)}
	if today := cmd.String("today"); today != "" {
		opts = append(opts, internal.WithToday(today))
	}
	return opts, nil
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Render the static site from the logs",
		Flags: siteFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			res, err := internal.Build(ctx, opts...)
			if err != nil {
				return fmt.Errorf("build: %w", err)
			}
			fmt.Fprintf(cmd.Root().Writer, "Built %d page(s) (%d day page(s), %s)\n",
				res.Pages, res.DayPages, humanize.Bytes(uint64(res.Bytes)))
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check every log file against the current schema",
		Flags: contentFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			report, err := internal.Validate(ctx, opts...)
			if err != nil {
				return err
			}
			if err := report.Err(); err != nil {
				stderr := cmd.Root().ErrWriter
				fmt.Fprintln(stderr, "Validation failed:")
				for _, issue := range report.Issues {
					fmt.Fprintf(stderr, "- %s\n", issue.Message)
				}
				fmt.Fprintf(stderr, "%s in %s checked\n",
					plural(len(report.Issues), "error"), plural(report.Files, "log file"))
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "Validation passed: %s\n", plural(report.Files, "log file"))
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Build the site, serve it locally and rebuild when logs change",
		Flags: append(siteFlags(), &cli.StringFlag{
			Name:  "port",
			Usage: "HTTP port (overrides app.http.port)",
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			if err := internal.Serve(ctx, opts...); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Expose the logs as MCP tools over stdio",
		Flags: append(contentFlags(), &cli.StringFlag{
			Name:  "today",
			Usage: "Freeze today's date (YYYY-MM-DD)",
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			return internal.ServeMCP(ctx, opts...)
		},
	}
}

func plural(n int, noun string) string {
	return english.Plural(n, noun, "")
}
