package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/mgpai22/lecsub/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the lecsub configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an annotated sample configuration",
	Long: `Write the annotated sample configuration to the path given by --config,
or to ~/.config/lecsub/config.toml. Use --stdout to print it instead.

Examples:
  lecsub config init
  lecsub config init --config ./lecsub.toml
  lecsub config init --stdout > lecsub.toml`,
	Args: cobra.NoArgs,
	Annotations: map[string]string{
		annotationConfig: configNone,
	},
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	Annotations: map[string]string{
		annotationConfig: configLenient,
	},
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().Bool("stdout", false, "Print the sample instead of writing it")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if toStdout, _ := cmd.Flags().GetBool("stdout"); toStdout {
		_, err := fmt.Fprint(cmd.OutOrStdout(), config.SampleConfig())
		return err
	}

	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.SampleConfig()), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	logger.Infow("wrote sample config", "path", path)
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	shown := *cfg
	shown.Transcription.APIKey = maskSecret(shown.Transcription.APIKey)
	shown.Catalog.DSN = maskSecret(shown.Catalog.DSN)

	data, err := toml.Marshal(shown)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// maskSecret keeps the first four characters of a credential.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
