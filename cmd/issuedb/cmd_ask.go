package main

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"issuedb/internal/ollama"
)

// commandPrompt teaches the model the CLI surface so it can translate a
// natural-language request into a runnable command line.
const commandPrompt = `You translate user requests into issuedb commands.
Respond with exactly one command line starting with "issuedb" and nothing else.

Commands:
  issuedb create -t <title> [-d <description>] [-p low|medium|high|critical] [-s open|in-progress|closed|wont-do] [--due-date YYYY-MM-DD]
  issuedb list [-s <status>] [--priority <priority>] [-l <limit>]
  issuedb get <id>
  issuedb update <id> [-t <title>] [-d <description>] [-p <priority>] [-s <status>] [--due-date <date>]
  issuedb delete <id>
  issuedb search <keyword> [-l <limit>]
  issuedb find-similar <text> [--threshold 0.0-1.0]
  issuedb dedupe [--threshold 0.0-1.0]
  issuedb next [-s <status>]
  issuedb comment <id> -t <text>
  issuedb comments <id>
  issuedb start <id>
  issuedb stop [--close]
  issuedb block <id> --by <blocker-id>
  issuedb timer start <id> | issuedb timer stop [<id>]
  issuedb summary
  issuedb report [--group-by status|priority]

Rules:
- Quote multi-word titles and descriptions.
- Dates are YYYY-MM-DD.
- If the request is ambiguous, pick the most likely command.`

func newAskCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "ask <request...>",
		Short: "Translate a natural-language request into a command via Ollama",
		Long: `Send a natural-language request to a local Ollama server, which
translates it into an issuedb command. The generated command is
shown before it runs. Use --dry-run to only show it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			request := strings.Join(args, " ")

			cfg := askConfig()
			client := ollama.NewClient(cfg.host, cfg.port, cfg.model)

			if err := client.CheckServer(ctx); err != nil {
				fmt.Fprintln(os.Stderr, "Make sure Ollama is running: ollama serve")
				return err
			}
			fmt.Fprintf(os.Stderr, "Using model %s\n", client.Model())

			command, err := client.GenerateCommand(ctx, request, commandPrompt)
			if err != nil {
				return err
			}

			fmt.Printf("Generated command:\n  %s\n", command)
			if dryRun {
				return nil
			}

			parts, err := splitCommand(command)
			if err != nil {
				return err
			}
			if len(parts) < 2 || parts[0] != "issuedb" {
				return fmt.Errorf("refusing to run unexpected command: %s", command)
			}

			run := exec.CommandContext(ctx, os.Args[0], parts[1:]...)
			run.Stdout = os.Stdout
			run.Stderr = os.Stderr
			return run.Run()
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the generated command without running it")

	return cmd
}

type ollamaSettings struct {
	host, port, model string
}

// askConfig pulls Ollama settings from the loaded config when present,
// leaving blanks for the client's env and built-in defaults.
func askConfig() ollamaSettings {
	var s ollamaSettings
	if app != nil && app.Config != nil {
		s.host = app.Config.OllamaHost
		s.port = app.Config.OllamaPort
		s.model = app.Config.OllamaModel
	}
	return s
}

// splitCommand breaks a generated command line into arguments, honoring
// double and single quotes so multi-word titles survive.
func splitCommand(line string) ([]string, error) {
	var (
		parts []string
		cur   strings.Builder
		quote rune
		has   bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			has = true
		case r == ' ' || r == '\t':
			if has || cur.Len() > 0 {
				parts = append(parts, cur.String())
				cur.Reset()
				has = false
			}
		default:
			cur.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unbalanced %s in command: %s", strconv.QuoteRune(quote), line)
	}
	if has || cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts, nil
}

func init() {
	rootCmd.AddCommand(newAskCmd())
}
