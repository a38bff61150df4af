package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/messagebridge/internal/anthropicadapter/openaichat"
)

func modelsCommand() *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "Print the Claude model names and the backend model each maps to",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return modelsAction(cmd, os.Stdout)
		},
	}
}

func modelsAction(cmd *cli.Command, out io.Writer) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	resolver := openaichat.NewModelResolver(cfg.ModelTable(), cfg.Backend.Model)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ALIAS\tBACKEND MODEL")
	for _, alias := range resolver.Aliases() {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", alias, resolver.WireModel(alias))
	}
	_, _ = fmt.Fprintf(w, "(other)\t%s\n", resolver.WireModel(""))
	return w.Flush()
}
