package modelscmder

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/azrelay/pkg/azure"
	"github.com/papercomputeco/azrelay/pkg/cliui"
	"github.com/papercomputeco/azrelay/pkg/config"
)

const listLongDesc string = `List the effective model mappings.

Shows the mapping "azrelay serve" would use, after environment variables
and config.toml are applied. On a terminal the mapping is rendered as a
table; otherwise one "model deployment" pair is printed per line.

--json prints the mapping as a JSON object in mapping order, the format
DEPLOY_NAMES expects.

Examples:
  azrelay models list
  export DEPLOY_NAMES="$(azrelay models list --json)"`

const listShortDesc string = "List model to deployment mappings"

type listCommander struct {
	json bool
}

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return cmder.run(cmd.OutOrStdout(), configDir)
		},
	}

	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the mapping as a JSON object")

	return cmd
}

func (c *listCommander) run(w io.Writer, configDir string) error {
	v, err := config.InitViper(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if c.json {
		data, err := cfg.Deployments.MarshalJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	if len(cfg.Deployments) == 0 {
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render("No model deployments configured."))
		return nil
	}

	if isTerminal(w) {
		rendered, err := cliui.RenderMarkdown(deploymentsTable(cfg.Deployments))
		if err == nil {
			fmt.Fprint(w, rendered)
			return nil
		}
	}

	for _, d := range cfg.Deployments {
		fmt.Fprintf(w, "%s %s\n", d.Model, d.Deployment)
	}
	return nil
}

// deploymentsTable renders the mapping as a markdown table.
func deploymentsTable(d azure.Deployments) string {
	var b strings.Builder
	b.WriteString("| Model | Deployment |\n| --- | --- |\n")
	for _, dep := range d {
		fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(dep.Model), escapeCell(dep.Deployment))
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
