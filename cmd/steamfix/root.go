package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/larkstead/steamfix/internal/config"
	"github.com/larkstead/steamfix/internal/log"
	"github.com/larkstead/steamfix/internal/output"
	"github.com/larkstead/steamfix/internal/ui/styles"
)

var (
	// Global flags
	verbose bool
	quiet   bool

	// Shared state injected into commands
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "steamfix",
	Short: "Scan and repair Steam library configuration",
	Long: `steamfix detects and repairs inconsistencies in Steam's library
configuration: stale StagingFolder references, orphaned download
artifacts, dead library entries, and undeclared storage roots.

Every repair backs up the files it touches first; see "steamfix backup"
to list and restore backups.`,
	SilenceUsage:               true,
	SilenceErrors:              true,
	SuggestionsMinimumDistance: 2, // Enable typo suggestions
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose && quiet {
			return fmt.Errorf("--verbose and --quiet are mutually exclusive")
		}

		// Flags are parsed by now; wire the logger into the context here
		// rather than in Execute.
		ctx := cmd.Context()
		ctx = log.WithLogger(ctx, log.New(os.Stderr, verbose, quiet))
		ctx = output.WithPrinter(ctx, os.Stdout)
		cmd.SetContext(ctx)
		return nil
	},
	// Run is not set - shows help when no subcommand provided
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Load config
	loadedCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cfg = &loadedCfg
	styles.SetTheme(cfg.Theme.Accent, cfg.Theme.Warning, cfg.Theme.Error, cfg.Theme.Muted)

	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'steamfix -h' for help")
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show per-file diagnostics")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	// Version flag
	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newFixCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newConfigCmd())
}
