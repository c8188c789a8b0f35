package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	appconfig "github.com/codeauditor/codeauditor/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or initialize codeauditor configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(appconfig.ConfigFile())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := appconfig.Get()

	if viper.ConfigFileUsed() != "" {
		fmt.Printf("config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Println("config file: (none - using defaults)")
	}
	fmt.Println()

	fmt.Println("judge:")
	fmt.Printf("  binary:       %s\n", cfg.Judge.Binary)
	fmt.Printf("  min_version:  %s\n", cfg.Judge.MinVersion)
	fmt.Println("process:")
	fmt.Printf("  max_concurrent: %d\n", cfg.Process.MaxConcurrent)
	fmt.Println("queue:")
	fmt.Printf("  capacity:       %d\n", cfg.Queue.Capacity)
	fmt.Printf("  max_concurrent: %d\n", cfg.Queue.MaxConcurrent)
	fmt.Println("cache:")
	fmt.Printf("  capacity:   %d\n", cfg.Cache.Capacity)
	fmt.Printf("  ttl_minutes: %d\n", cfg.Cache.TTLMinutes)
	fmt.Println("session:")
	fmt.Printf("  state_dir:             %s\n", cfg.Session.StateDir)
	fmt.Printf("  max_session_age_hours: %d\n", cfg.Session.MaxSessionAgeHours)
	fmt.Printf("  compact:               %v\n", cfg.Session.Compact)
	fmt.Println("engine:")
	fmt.Printf("  timeout_seconds: %d\n", cfg.Engine.TimeoutSeconds)
	fmt.Printf("  max_retries:     %d\n", cfg.Engine.MaxRetries)

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	dir := appconfig.ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path := appconfig.ConfigFile()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	appconfig.SetDefaults()
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("wrote default config to %s\n", filepath.Clean(path))
	return nil
}
