package modelscmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/azrelay/pkg/cliui"
	"github.com/papercomputeco/azrelay/pkg/config"
)

const unsetShortDesc string = "Remove a model mapping"

func newUnsetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unset <model>",
		Short: unsetShortDesc,
		Long:  "Remove a model mapping from config.toml in the .azrelay/ directory.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runUnset(cmd.OutOrStdout(), args[0], configDir)
		},
	}

	return cmd
}

func runUnset(w io.Writer, model, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.UnsetDeployment(model); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Removed %s\n", cliui.SuccessMark, cliui.KeyStyle.Render(model))
	return nil
}
