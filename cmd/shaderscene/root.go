package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/shaderscene"
	"github.com/gogpu/shaderscene/internal/config"
	"github.com/gogpu/shaderscene/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "shaderscene",
	Short: "shaderscene renders generated shader scenes",
	Long: `shaderscene asks a generator service for WGSL shader scenes, validates them
and renders them with one live GPU session at a time.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("backend") {
			loaded.Backend, _ = cmd.Flags().GetString("backend")
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		level, err := logging.ParseLevel(loaded.LogLevel)
		if err != nil {
			return err
		}
		shaderscene.SetLogger(logging.New(level))
		cfg = loaded
		return nil
	},
}

// cfg is the configuration resolved by the root command.
var cfg = config.Default()

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("backend", "", "GPU backend: noop or vulkan (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
}
