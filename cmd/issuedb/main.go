// issuedb is a local-first issue tracker backed by SQLite.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	"issuedb/internal/config"
	"issuedb/internal/db"
)

// App holds the state shared across all commands.
type App struct {
	Config *config.Config
	Store  *db.Store

	Issues    *db.IssueStore
	Comments  *db.CommentStore
	Audits    *db.AuditStore
	Deps      *db.DependencyStore
	Times     *db.TimeStore
	Links     *db.LinkStore
	Refs      *db.CodeRefStore
	Searches  *db.SearchStore
	Templates *db.TemplateStore
	Workspace *db.WorkspaceStore

	JSON bool
}

var (
	// Global flags
	jsonOutput bool
	dbPath     string
	verbose    bool

	// The App instance, initialized in PersistentPreRunE
	app *App
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "issuedb",
	Short: "A local SQLite-backed issue tracker",
	Long: `issuedb tracks issues in a single SQLite file next to your code.
It keeps a full audit trail of every change, understands dependencies
between issues, links issues to git commits and branches, and detects
near-duplicate reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()

		// Commands that never touch the database.
		switch cmd.Name() {
		case "help", "completion", "version":
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Name() == "ask" {
			app = &App{Config: cfg, JSON: jsonOutput}
			return nil
		}
		if dbPath != "" {
			cfg.DBPath = dbPath
		}

		store, err := db.NewStore(db.Config{
			Path:     cfg.DBPath,
			MaxConns: cfg.MaxConns,
			LogLevel: logger.Silent,
		})
		if err != nil {
			return fmt.Errorf("open database %s: %w", cfg.DBPath, err)
		}

		app = &App{
			Config:    cfg,
			Store:     store,
			Issues:    db.NewIssueStore(store),
			Comments:  db.NewCommentStore(store),
			Audits:    db.NewAuditStore(store),
			Deps:      db.NewDependencyStore(store),
			Times:     db.NewTimeStore(store),
			Links:     db.NewLinkStore(store),
			Refs:      db.NewCodeRefStore(store),
			Searches:  db.NewSearchStore(store),
			Templates: db.NewTemplateStore(store),
			Workspace: db.NewWorkspaceStore(store),
			JSON:      jsonOutput,
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil && app.Store != nil {
			_ = app.Store.Close()
		}
	},
}

func setupLogging() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite database file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
