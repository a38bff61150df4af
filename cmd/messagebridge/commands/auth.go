package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/messagebridge/internal/app"
	"github.com/florianilch/messagebridge/internal/tokensource"
)

// authCommand returns the 'auth' subcommand for managing the backend API key.
func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the backend API key",
		Commands: []*cli.Command{
			{
				Name:  "set-key",
				Usage: "Store the backend API key in the configured file or keyring",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return setKeyAction(ctx, cmd, os.Stdout, readSecureInput)
				},
			},
			{
				Name:  "clear-key",
				Usage: "Remove the stored backend API key",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return clearKeyAction(ctx, cmd, os.Stdout)
				},
			},
		},
	}
}

// writableStore returns the configured key store, refusing the read-only
// environment store.
func writableStore(cmd *cli.Command) (tokensource.Store, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Auth.Storage == app.TokenStorageTypeEnv {
		return nil, fmt.Errorf("auth.storage is env (read-only): set %s or configure file or keyring storage", cfg.Auth.Env)
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}
	return store, nil
}

func setKeyAction(ctx context.Context, cmd *cli.Command, out io.Writer, readInput func(context.Context, string) (string, error)) error {
	store, err := writableStore(cmd)
	if err != nil {
		return err
	}

	key, err := readInput(ctx, "Backend API key: ")
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	if err := store.Write(ctx, key); err != nil {
		return fmt.Errorf("failed to write API key: %w", err)
	}

	_, _ = fmt.Fprintln(out, "API key saved to configured storage")
	return nil
}

func clearKeyAction(ctx context.Context, cmd *cli.Command, out io.Writer) error {
	store, err := writableStore(cmd)
	if err != nil {
		return err
	}

	// An empty key clears the store.
	if err := store.Write(ctx, ""); err != nil {
		return fmt.Errorf("failed to clear API key: %w", err)
	}

	_, _ = fmt.Fprintln(out, "API key removed from configured storage")
	return nil
}

// readSecureInput reads user input with hidden display and context cancellation support.
// term.ReadPassword cannot be interrupted, so it runs in its own goroutine.
func readSecureInput(ctx context.Context, prompt string) (string, error) {
	fmt.Print(prompt)
	defer fmt.Println()

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		resultCh <- result{value: string(inputBytes), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.value, nil
	}
}
