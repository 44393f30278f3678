package modelscmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/azrelay/pkg/cliui"
	"github.com/papercomputeco/azrelay/pkg/config"
)

const setLongDesc string = `Map a model name to an Azure deployment.

Writes the mapping to config.toml in the .azrelay/ directory. Remapping an
existing model keeps its position in the list; a new model is appended.

Examples:
  azrelay models set gpt-4 gpt4-prod
  azrelay models set gpt-35-turbo gpt35`

const setShortDesc string = "Map a model to a deployment"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <model> <deployment>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(cmd.OutOrStdout(), args[0], args[1], configDir)
		},
	}

	return cmd
}

func runSet(w io.Writer, model, deployment, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SetDeployment(model, deployment); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Mapped %s %s %s\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(model),
		cliui.DimStyle.Render("→"),
		cliui.ValueStyle.Render(deployment),
	)
	return nil
}
