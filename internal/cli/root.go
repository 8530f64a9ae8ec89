package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lecsub/internal/config"
	"github.com/mgpai22/lecsub/internal/logging"
)

// command annotations controlling config loading
const (
	annotationConfig = "lecsub/config"
	configNone       = "none"
	configLenient    = "lenient"
)

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lecsub",
	Short: "Subtitle generator for recorded lectures",
	Long: `lecsub turns recorded lecture videos into timed subtitle files.

It extracts the audio track, sends it to a speech recognition service
(Google Cloud Speech-to-Text, Gemini, or OpenAI), and groups the recognized
words into short caption cues written as SRT, VTT, or ASS.

Settings are read from ./lecsub.toml or ~/.config/lecsub/config.toml;
run "lecsub config init" for an annotated sample.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		mode := cmd.Annotations[annotationConfig]
		if mode == configNone {
			logger = logging.NewLogger(verbose)
			return nil
		}

		loaded, resolved, exists, err := config.LoadWith(configPath, config.LoadOptions{
			Override:       flagOverrides(cmd),
			SkipValidation: mode == configLenient,
		})
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err = logging.New(logging.Options{
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
			Verbose: verbose,
		})
		if err != nil {
			return err
		}
		if exists {
			logger.Debugw("loaded config", "path", resolved)
		} else {
			logger.Debugw("no config file found, using defaults", "path", resolved)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command; SIGINT and SIGTERM cancel the context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file path (default ./lecsub.toml or ~/.config/lecsub/config.toml)")
}
