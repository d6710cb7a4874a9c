package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kondate-dev/kondate/internal/userconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage kondate configuration",
	Long: `Manage kondate configuration settings.

Configuration is stored in ~/.kondate/config.toml.

Examples:
  kondate config get model
  kondate config set listen 0.0.0.0:9000`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := userconfig.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		value, ok := cfg.Get(args[0])
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown config key: %s\n\nAvailable keys:\n", args[0])
			printAvailableKeys()
			os.Exit(2)
		}

		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := userconfig.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := cfg.Set(args[0], args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n\nAvailable keys:\n", err)
			printAvailableKeys()
			os.Exit(2)
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("%s = %s\n", args[0], args[1])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := userconfig.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		keys := make([]string, 0, len(userconfig.AvailableKeys()))
		for key := range userconfig.AvailableKeys() {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			value, _ := cfg.Get(key)
			fmt.Printf("%s = %s\n", key, value)
		}
		return nil
	},
}

func printAvailableKeys() {
	keys := userconfig.AvailableKeys()
	names := make([]string, 0, len(keys))
	for name := range keys {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", name, keys[name])
	}
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}
