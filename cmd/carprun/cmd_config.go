package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvandessel/carprun/internal/config"
	"github.com/nvandessel/carprun/internal/constants"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage carprun configuration",
		Long: `View and modify carprun configuration settings.

Configuration is stored in ~/.carprun/config.yaml.

Examples:
  carprun config list                              # Show all settings
  carprun config get solver.flavor                 # Get a specific setting
  carprun config set solver.launcher srun          # Set a setting
  carprun config set solver.sim_dirs $CARP_SIMS`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			w := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(w).Encode(cfg)
			}

			fmt.Fprintln(w, "Configuration (~/.carprun/config.yaml):")
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Solver Settings:")
			fmt.Fprintf(w, "  solver.binary:      %s\n", cfg.Solver.Binary)
			fmt.Fprintf(w, "  solver.launcher:    %s\n", valueOrDefault(cfg.Solver.Launcher, "(none)"))
			fmt.Fprintf(w, "  solver.flavor:      %s\n", cfg.Solver.Flavor)
			fmt.Fprintf(w, "  solver.np:          %d\n", cfg.Solver.NP)
			fmt.Fprintf(w, "  solver.mesh:        %s\n", valueOrDefault(cfg.Solver.Mesh, "(not set)"))
			fmt.Fprintf(w, "  solver.sim_dirs:    %s\n", valueOrDefault(joinList(cfg.Solver.SimDirs), "(not set)"))
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Visualizer Settings:")
			fmt.Fprintf(w, "  visualizer.binary:  %s\n", cfg.Visualizer.Binary)
			fmt.Fprintf(w, "  platform.batch:     %v\n", cfg.Platform.Batch)
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Logging & History:")
			fmt.Fprintf(w, "  logging.level:      %s\n", valueOrDefault(cfg.Logging.Level, "info"))
			fmt.Fprintf(w, "  history.enabled:    %v\n", cfg.History.Enabled)
			fmt.Fprintf(w, "  history.path:       %s\n", valueOrDefault(cfg.History.Path, "(default)"))
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			w := cmd.OutOrStdout()
			value, found := getConfigValue(cfg, key)
			if !found {
				if jsonOut {
					json.NewEncoder(w).Encode(map[string]interface{}{
						"error": "key not found",
						"key":   key,
					})
				} else {
					fmt.Fprintf(w, "Unknown configuration key: %s\n", key)
				}
				return nil
			}

			if jsonOut {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"key":   key,
					"value": value,
				})
			} else {
				fmt.Fprintf(w, "%s = %v\n", key, value)
			}
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]
			value := args[1]

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			w := cmd.OutOrStdout()
			if err := setConfigValue(cfg, key, value); err != nil {
				if jsonOut {
					json.NewEncoder(w).Encode(map[string]interface{}{
						"error": err.Error(),
						"key":   key,
					})
				} else {
					fmt.Fprintf(w, "Error: %v\n", err)
				}
				return nil
			}

			path, err := config.Path()
			if err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if jsonOut {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"status": "updated",
					"key":    key,
					"value":  value,
				})
			} else {
				fmt.Fprintf(w, "Set %s = %s\n", key, value)
			}
			return nil
		},
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.CarpConfig, key string) (interface{}, bool) {
	switch key {
	case "solver.binary":
		return cfg.Solver.Binary, true
	case "solver.launcher":
		return cfg.Solver.Launcher, true
	case "solver.flavor":
		return cfg.Solver.Flavor, true
	case "solver.np":
		return cfg.Solver.NP, true
	case "solver.mesh":
		return cfg.Solver.Mesh, true
	case "solver.sim_dirs":
		return joinList(cfg.Solver.SimDirs), true
	case "visualizer.binary":
		return cfg.Visualizer.Binary, true
	case "platform.batch":
		return cfg.Platform.Batch, true
	case "logging.level":
		return cfg.Logging.Level, true
	case "history.enabled":
		return cfg.History.Enabled, true
	case "history.path":
		return cfg.History.Path, true
	default:
		return nil, false
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.CarpConfig, key, value string) error {
	switch key {
	case "solver.binary":
		if value == "" {
			return fmt.Errorf("solver.binary must not be empty")
		}
		cfg.Solver.Binary = value
	case "solver.launcher":
		cfg.Solver.Launcher = value
	case "solver.flavor":
		if !constants.ValidFlavor(value) {
			return fmt.Errorf("invalid flavor: %s (valid: %s)", value, strings.Join(constants.Flavors, ", "))
		}
		cfg.Solver.Flavor = value
	case "solver.np":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid np: %s (must be a positive integer)", value)
		}
		cfg.Solver.NP = n
	case "solver.mesh":
		cfg.Solver.Mesh = value
	case "solver.sim_dirs":
		cfg.Solver.SimDirs = filepath.SplitList(value)
	case "visualizer.binary":
		cfg.Visualizer.Binary = value
	case "platform.batch":
		cfg.Platform.Batch = value == "true" || value == "1"
	case "logging.level":
		validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
		if !validLevels[value] {
			return fmt.Errorf("invalid log level: %s (valid: info, debug, trace)", value)
		}
		cfg.Logging.Level = value
	case "history.enabled":
		cfg.History.Enabled = value == "true" || value == "1"
	case "history.path":
		cfg.History.Path = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// joinList renders a directory list the way CARPRUN_SIM_DIRS expects it.
func joinList(dirs []string) string {
	return strings.Join(dirs, string(filepath.ListSeparator))
}

// valueOrDefault returns the value if non-empty, otherwise the default.
func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
