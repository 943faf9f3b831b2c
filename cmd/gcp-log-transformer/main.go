// ABOUTME: Entry point for the log transformer daemon
// ABOUTME: Wires config, discovery, cache, sink, and the monitor together

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SyedAnees21/gcp-log-transformer/internal/config"
	"github.com/SyedAnees21/gcp-log-transformer/internal/dedupe"
	"github.com/SyedAnees21/gcp-log-transformer/internal/discover"
	"github.com/SyedAnees21/gcp-log-transformer/internal/monitor"
	"github.com/SyedAnees21/gcp-log-transformer/internal/sink"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _               _                        __
| | ___   __ _  | |_ _ __ __ _ _ __  ___ / _| ___  _ __ _ __ ___   ___ _ __
| |/ _ \ / _' | | __| '__/ _' | '_ \/ __| |_ / _ \| '__| '_ ' _ \ / _ \ '__|
| | (_) | (_| | | |_| | | (_| | | | \__ \  _| (_) | |  | | | | | |  __/ |
|_|\___/ \__, |  \__|_|  \__,_|_| |_|___/_|  \___/|_|  |_| |_| |_|\___|_|
         |___/
`

const defaultConfigPath = "./app-config/config.yaml"

type cliFlags struct {
	configFile    string
	sourceFiles   []string
	aggInterval   time.Duration
	pruneInterval time.Duration
	timeWait      time.Duration
	logLevel      string
	consoleLog    bool
	outputLog     bool
	outputPath    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	rootCmd := &cobra.Command{
		Use:   "gcp-log-transformer",
		Short: "Deduplicates and aggregates repetitive log streams",
		Long: "gcp-log-transformer tails a set of append-only log files, suppresses\n" +
			"repeated identical messages within a sliding time window, and emits one\n" +
			"aggregated record per suppressed message into a sibling -agg.log file.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}

	rootCmd.Flags().StringVarP(&flags.configFile, "config-file", "c", defaultConfigPath,
		"Path to config file; values there override the built-in defaults")
	rootCmd.Flags().StringSliceVarP(&flags.sourceFiles, "source-files", "s", nil,
		"Glob patterns of source log files")
	rootCmd.Flags().DurationVarP(&flags.aggInterval, "agg-interval", "i", 20*time.Second,
		"Aggregation window for repeated messages")
	rootCmd.Flags().DurationVarP(&flags.pruneInterval, "prune-interval", "p", 5*time.Second,
		"Cache prune sweep interval")
	rootCmd.Flags().DurationVarP(&flags.timeWait, "time-wait", "w", 500*time.Millisecond,
		"Delay between file polls and reconciliation passes")
	rootCmd.Flags().StringVarP(&flags.logLevel, "log-level", "l", "info",
		"Logging level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&flags.consoleLog, "console-log", true,
		"Enable console logging")
	rootCmd.Flags().BoolVar(&flags.outputLog, "output-log", false,
		"Enable application logging to a rotating file")
	rootCmd.Flags().StringVar(&flags.outputPath, "output-path", "./app-logs/gcp-transformer.log",
		"Path of the application log file")

	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

// resolveConfig loads the config file when present and layers explicitly
// set flags on top. A missing or unreadable config file is non-fatal:
// the daemon falls back to defaults plus flags.
func resolveConfig(cmd *cobra.Command, flags *cliFlags) *config.Config {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		cfg = config.Default()
		if cmd.Flags().Changed("config-file") {
			fmt.Fprintf(os.Stderr, "Warning: %v; continuing with defaults\n", err)
		}
	}

	if cmd.Flags().Changed("source-files") {
		cfg.Sources = flags.sourceFiles
	}
	if cmd.Flags().Changed("agg-interval") {
		cfg.Aggregation.Window = flags.aggInterval
	}
	if cmd.Flags().Changed("prune-interval") {
		cfg.Aggregation.PruneInterval = flags.pruneInterval
	}
	if cmd.Flags().Changed("time-wait") {
		cfg.Aggregation.PollDelay = flags.timeWait
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if cmd.Flags().Changed("console-log") {
		cfg.Logging.Console = flags.consoleLog
	}
	if cmd.Flags().Changed("output-log") {
		cfg.Logging.File = flags.outputLog
	}
	if cmd.Flags().Changed("output-path") {
		cfg.Logging.Path = flags.outputPath
	}

	return cfg
}

func run(cmd *cobra.Command, flags *cliFlags) error {
	cfg := resolveConfig(cmd, flags)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating options: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Sources:  %v\n", cfg.Sources)
	green.Print("    ▶ ")
	fmt.Printf("Window:   %s\n", cfg.Aggregation.Window)
	green.Print("    ▶ ")
	fmt.Printf("Prune:    %s\n", cfg.Aggregation.PruneInterval)
	green.Print("    ▶ ")
	fmt.Printf("Poll:     %s\n", cfg.Aggregation.PollDelay)
	fmt.Println()

	logger.Info("starting log transformer",
		"sources", cfg.Sources,
		"window", cfg.Aggregation.Window,
		"prune_interval", cfg.Aggregation.PruneInterval,
		"poll_delay", cfg.Aggregation.PollDelay,
	)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := monitor.New(monitor.Options{
		Provider:      discover.NewGlobProvider(cfg.Sources),
		Cache:         dedupe.New(),
		Sink:          sink.NewFileSink(),
		Window:        cfg.Aggregation.Window,
		PruneInterval: cfg.Aggregation.PruneInterval,
		PollDelay:     cfg.Aggregation.PollDelay,
		ShutdownGrace: cfg.Aggregation.ShutdownGrace,
		Logger:        logger,
	})

	err := m.Run(ctx)
	logger.Info("log transformer shut down")
	return err
}
