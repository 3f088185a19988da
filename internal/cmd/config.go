package cmd

import (
	"fmt"
	"sort"

	"bugbook/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCmd creates the config command with subcommands.
func newConfigCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long: `Manage the user configuration in ~/.bugbookrc (or $BUGBOOK_CONFIG).

Supported keys:
  user.name, user.email, editor,
  github.token, github.owner, github.repo, github.auto_labels,
  github.label_prefix, log.file, log.level

Every key can be overridden with an environment variable named
BUGBOOK_ followed by the key in upper case with dots as underscores,
for example BUGBOOK_USER_NAME.

Subcommands:
  get       Get a configuration value
  set       Set a configuration value
  list      List all configuration values
  unset     Remove a configuration value
  validate  Validate configuration`,
	}

	cmd.AddCommand(newConfigGetCmd(provider))
	cmd.AddCommand(newConfigSetCmd(provider))
	cmd.AddCommand(newConfigListCmd(provider))
	cmd.AddCommand(newConfigUnsetCmd(provider))
	cmd.AddCommand(newConfigValidateCmd(provider))

	return cmd
}

// maskSecret hides all but the last four characters of a secret value.
func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}

// displayValue masks secret keys unless reveal is set.
func displayValue(key, value string, reveal bool) string {
	if config.Secret(key) && !reveal {
		return maskSecret(value)
	}
	return value
}

// newConfigGetCmd creates the "config get" subcommand.
func newConfigGetCmd(provider *AppProvider) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get the effective value of a configuration key, after defaults and
environment overrides.

Prints the bare value if the key is set, or "key (not set)" if missing.
github.token is masked unless --reveal is given.

Examples:
  bugbook config get user.name
  bugbook config get github.repo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			key := args[0]
			if err := config.CheckKey(key); err != nil {
				return err
			}
			value, ok := config.Effective(app.ConfigStore)[key]
			shown := displayValue(key, value, reveal)

			if app.JSON {
				return app.writeJSON(map[string]interface{}{
					"key":   key,
					"value": shown,
					"set":   ok,
				})
			}
			if ok {
				fmt.Fprintln(app.Out, shown)
			} else {
				fmt.Fprintf(app.Out, "%s (not set)\n", key)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print secret values in full")
	return cmd
}

// newConfigSetCmd creates the "config set" subcommand.
func newConfigSetCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration key to a value and save the config file.

Examples:
  bugbook config set user.name "Dana Reyes"
  bugbook config set github.repo bugbook
  bugbook config set log.level debug`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			key, value := args[0], args[1]
			if err := config.ValidateValue(key, value); err != nil {
				return err
			}
			if err := app.ConfigStore.Set(key, value); err != nil {
				return fmt.Errorf("setting config: %w", err)
			}

			shown := displayValue(key, value, false)
			if app.JSON {
				return app.writeJSON(map[string]string{"key": key, "value": shown})
			}
			fmt.Fprintf(app.Out, "%s Set %s = %s\n", app.SuccessColor("✓"), key, shown)
			return nil
		},
	}
	return cmd
}

// newConfigListCmd creates the "config list" subcommand.
func newConfigListCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List every configuration value in effect, sorted by key.
Secret values are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			all := config.Effective(app.ConfigStore)
			for k, v := range all {
				all[k] = displayValue(k, v, false)
			}

			if app.JSON {
				return app.writeJSON(all)
			}
			if len(all) == 0 {
				fmt.Fprintln(app.Out, "No configuration set")
				return nil
			}

			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(app.Out, "%s = %s\n", k, all[k])
			}
			return nil
		},
	}
	return cmd
}

// newConfigUnsetCmd creates the "config unset" subcommand.
func newConfigUnsetCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			key := args[0]
			if err := app.ConfigStore.Unset(key); err != nil {
				return fmt.Errorf("unsetting config: %w", err)
			}

			if app.JSON {
				return app.writeJSON(map[string]string{"key": key})
			}
			fmt.Fprintf(app.Out, "Unset %s\n", key)
			return nil
		},
	}
	return cmd
}

// newConfigValidateCmd creates the "config validate" subcommand.
func newConfigValidateCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			err = config.Validate(app.ConfigStore)
			if app.JSON {
				res := map[string]interface{}{"valid": err == nil}
				if err != nil {
					res["error"] = err.Error()
				}
				if encErr := app.writeJSON(res); encErr != nil {
					return encErr
				}
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, app.SuccessColor("Configuration is valid"))
			return nil
		},
	}
	return cmd
}
