package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/messagebridge/internal/app"
	"github.com/florianilch/messagebridge/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version, commit string) error {
	return rootCommand(version, commit).Run(ctx, args)
}

func rootCommand(version, commit string) *cli.Command {
	return &cli.Command{
		Name:    "messagebridge",
		Usage:   "Serve the Anthropic Messages API from an OpenAI-compatible backend",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (.toml, .yaml, .yml or .json)",
				Sources: cli.EnvVars("MESSAGEBRIDGE_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "log-export",
				Usage: "OpenTelemetry log export (none|stdout|otlp-grpc|otlp-http)",
				Value: observability.ExportNone,
			},
		},
		Commands: []*cli.Command{
			startCommand(),
			authCommand(),
			modelsCommand(),
		},
	}
}

func startCommand() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Start the proxy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagHost,
				Usage: "listen host",
			},
			&cli.IntFlag{
				Name:  flagPort,
				Usage: "listen port",
			},
			&cli.StringFlag{
				Name:  flagBaseURL,
				Usage: "backend base URL, /v1 is appended when missing",
			},
			&cli.StringFlag{
				Name:  flagModel,
				Usage: "backend model for Claude model names",
			},
		},
		Action: startAction,
	}
}

func startAction(ctx context.Context, cmd *cli.Command) error {
	level, err := observability.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return err
	}

	// Set up observability before creating app
	shutdownLogs, err := observability.Instrument(ctx, level, cmd.String("log-format"), cmd.String("log-export"))
	if err != nil {
		return fmt.Errorf("failed to set up observability layer: %w", err)
	}
	defer func() {
		if err := shutdownLogs(context.WithoutCancel(ctx)); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", err)
		}
	}()

	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	application, err := app.New(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	slog.InfoContext(ctx, "starting", "addr", cfg.Server.Addr())

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}
