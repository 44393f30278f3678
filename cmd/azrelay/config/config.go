// Package configcmder provides the config command for managing persistent
// azrelay configuration stored in the .azrelay/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent azrelay configuration.

Configuration is stored as config.toml in the .azrelay/ directory and provides
default values for "azrelay serve". Environment variables and CLI flags
always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  relay.listen, relay.frame_delay,
  azure.resource_name, azure.api_version, azure.endpoint,
  admin.listen,
  log.level, log.json, log.file

Model deployments are managed with "azrelay models".

Use subcommands to get, set, or list configuration values:
  azrelay config set <key> <value>    Set a configuration value
  azrelay config get <key>            Get a configuration value
  azrelay config list                 List all configuration values

Examples:
  azrelay config set azure.resource_name contoso
  azrelay config set relay.frame_delay 0s
  azrelay config get azure.api_version
  azrelay config list`

const configShortDesc string = "Manage persistent azrelay configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

