package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ezclip/ezclip-api/pkg/config"
	"github.com/ezclip/ezclip-api/pkg/logger"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ezclip-api",
	Short: "Word-level media clip editor API",
	Long: `ezclip API - transcription-driven media editing server

Register a media file and the server transcribes it word by word,
attributes speakers, and lets you cut the media by toggling words
instead of scrubbing a timeline. The kept words become time ranges
that are rendered to a new clip with ffmpeg.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd returns the root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "enable JSON formatted logs")
}

// loadConfig loads configuration and sets up logging. Called lazily so
// commands like version and help run without a config file.
func loadConfig() {
	cmd, _, _ := rootCmd.Find(os.Args[1:])
	if cmd != nil && (cmd.Name() == "version" || cmd.Name() == "help") {
		return
	}

	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if level, _ := rootCmd.PersistentFlags().GetString("log-level"); level != "" {
		logCfg.Level = level
	}
	if jsonLogs, _ := rootCmd.PersistentFlags().GetBool("json-logs"); jsonLogs {
		logCfg.Format = "json"
	}
	logger.Init(logCfg)
}
