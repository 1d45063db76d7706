package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// initCmd interactively generates a starter configuration file.
func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Generate a configuration file interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "recall.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}

			var (
				bind      = "127.0.0.1:8080"
				windowStr = "12"
				backend   = "sqlite"
				token     string
			)

			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().
					Title("Gateway bind address").
					Value(&bind),
				huh.NewInput().
					Title("Window size (messages kept before compaction)").
					Value(&windowStr).
					Validate(func(s string) error {
						n, err := strconv.Atoi(strings.TrimSpace(s))
						if err != nil || n < 1 {
							return fmt.Errorf("must be a positive integer")
						}
						return nil
					}),
				huh.NewSelect[string]().
					Title("Store backend").
					Options(
						huh.NewOption("SQLite (persistent)", "sqlite"),
						huh.NewOption("In-memory (volatile)", "memory"),
					).
					Value(&backend),
				huh.NewInput().
					Title("Bearer token (leave empty to disable auth)").
					EchoMode(huh.EchoModePassword).
					Value(&token),
			))

			if err := form.Run(); err != nil {
				return err
			}

			window, _ := strconv.Atoi(strings.TrimSpace(windowStr))
			cfg := renderConfig(bind, window, backend, token)
			if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			fmt.Printf("Wrote %s\n", path)
			fmt.Println("Start the server with: recall start -c", path)
			return nil
		},
	}
	return cmd
}

func renderConfig(bind string, window int, backend, token string) string {
	var b strings.Builder

	b.WriteString("version: \"1\"\n\nmodules:\n")

	fmt.Fprintf(&b, "  memory.service:\n    window_size: %d\n", window)

	fmt.Fprintf(&b, "  gateway.http:\n    bind: %q\n", bind)
	if token != "" {
		fmt.Fprintf(&b, "    auth:\n      bearer_token: %q\n", token)
	}

	if backend == "sqlite" {
		b.WriteString("  store.sqlite: {}\n")
	}

	b.WriteString("  memory.sweep:\n    schedule: \"*/5 * * * *\"\n")
	return b.String()
}
