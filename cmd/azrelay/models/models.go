// Package modelscmder provides the models command for managing the model to
// Azure deployment mapping.
package modelscmder

import (
	"github.com/spf13/cobra"
)

const modelsLongDesc string = `Manage the mapping from OpenAI model names to Azure deployments.

The relay forwards a request for a model to the Azure deployment mapped to
it and rejects requests for unmapped models. The mapping order is the order
GET /v1/models reports.

Mappings are stored as [[deployments]] tables in config.toml. The
DEPLOY_NAMES (or AZRELAY_DEPLOYMENTS) environment variable, a JSON object,
replaces the stored mapping when set.

Examples:
  azrelay models set gpt-4 gpt4-prod
  azrelay models unset gpt-4
  azrelay models list
  azrelay models list --json`

const modelsShortDesc string = "Manage model to deployment mappings"

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newUnsetCmd())

	return cmd
}
