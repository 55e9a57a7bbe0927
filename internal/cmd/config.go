package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xdg/cosigner/internal/config"
	"github.com/xdg/cosigner/internal/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the cosigner config file",
	Long: `Inspect and edit the cosigner config file.

The file lives at $XDG_CONFIG_HOME/cosigner/config.yaml (~/.config when
XDG_CONFIG_HOME is unset) unless --config names another one. It sets where
policy state is stored, the linked team, the approval durations, the sweep
schedule and the log files.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config",
	Long: `Print the config as cosigner uses it: defaults filled in and paths
expanded.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in $EDITOR",
	Long: `Open the default config file in $EDITOR (vi when unset), creating it
first if needed. The file is validated when the editor exits.`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run:   runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Long: `Write a commented config file holding the defaults. An existing file is
left alone.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a config file without using it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigValidate,
}

func init() {
	for _, c := range []*cobra.Command{configShowCmd, configEditCmd, configPathCmd, configInitCmd, configValidateCmd} {
		configCmd.AddCommand(c)
	}
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := config.MarshalGlobalConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	term.Printf("%s", data)
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	if configFlag != "" {
		return fmt.Errorf("config edit works on the default file; edit %s directly", configFlag)
	}
	if err := config.EditGlobalConfig(); err != nil {
		return fmt.Errorf("failed to edit config: %w", err)
	}
	return nil
}

func configPath() string {
	if configFlag != "" {
		return configFlag
	}
	return config.GlobalConfigPath()
}

func runConfigPath(cmd *cobra.Command, args []string) {
	term.Println(configPath())
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	term.Printf("Config file: %s\n", config.GlobalConfigPath())
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath()
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := config.LoadGlobalConfigFile(path); err != nil {
		return err
	}
	term.Printf("%s: ok\n", path)
	return nil
}
