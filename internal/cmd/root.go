// Package cmd provides the codeauditor CLI's command structure: a one-shot
// "audit" command, "sessions" inspection, judge "health" checks, and a
// "watch" loop that re-audits a file on change.
package cmd

import (
	"strings"

	appconfig "github.com/codeauditor/codeauditor/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "codeauditor",
	Short: "Synchronous code-audit orchestrator",
	Long: `codeauditor drives an external judge CLI to produce structured reviews of
candidate code, one "thought" at a time, tracking iteration history across
a session so improvement loops can detect stagnation and terminate.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/codeauditor/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(watchCmd)
}

func initConfig() {
	appconfig.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(appconfig.ConfigDir())
		viper.AddConfigPath("$HOME/.config/codeauditor")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CODEAUDITOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.ReadInConfig()
}
