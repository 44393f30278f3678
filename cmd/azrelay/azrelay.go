// Package azrelaycmder
package azrelaycmder

import (
	"github.com/spf13/cobra"

	checkcmder "github.com/papercomputeco/azrelay/cmd/azrelay/check"
	configcmder "github.com/papercomputeco/azrelay/cmd/azrelay/config"
	modelscmder "github.com/papercomputeco/azrelay/cmd/azrelay/models"
	servecmder "github.com/papercomputeco/azrelay/cmd/azrelay/serve"
	versioncmder "github.com/papercomputeco/azrelay/cmd/version"
)

const azrelayLongDesc string = `azrelay is an OpenAI-compatible relay in front of Azure OpenAI.

Clients speak the OpenAI API; azrelay maps each model to an Azure deployment,
swaps the bearer token for an api-key header and reframes streamed responses
into whole server-sent events.

Run and manage the relay using:
  azrelay serve                          Run the relay (and admin server)
  azrelay check                          Validate the effective configuration
  azrelay models set <model> <deploy>    Map a model to an Azure deployment
  azrelay config set <key> <value>       Persist a configuration value`

const azrelayShortDesc string = "azrelay - OpenAI to Azure OpenAI relay"

func NewAzrelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "azrelay",
		Short:        azrelayShortDesc,
		Long:         azrelayLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .azrelay/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(checkcmder.NewCheckCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
