package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Bitshifter-9/kannada-hindi/internal/config"
	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
)

func (a app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	var (
		initPath string
		force    bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the sample configuration",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return a.configInit(initPath, force)
		},
	}
	initCmd.Flags().StringVar(&initPath, "path", "", "Destination (default ~/.config/dubcut/config.toml)")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	var showPath string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := a.loadSettings(showPath, runFlags{})
			if err != nil {
				return err
			}
			return cfg.Encode(a.stdout)
		},
	}
	showCmd.Flags().StringVar(&showPath, "config", "", "Config file")

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func (a app) configInit(path string, force bool) error {
	if path == "" {
		def, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = def
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s already exists (use --force to overwrite)", failure.ErrConfiguration, path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.SampleConfig()), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintln(a.stdout, path)
	return nil
}
