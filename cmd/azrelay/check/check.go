// Package checkcmder provides the check command that validates the effective
// relay configuration without starting any server.
package checkcmder

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/azrelay/pkg/azure"
	"github.com/papercomputeco/azrelay/pkg/cliui"
	"github.com/papercomputeco/azrelay/pkg/config"
)

// ErrNoDeployments is returned when the effective configuration maps no
// model to a deployment.
var ErrNoDeployments = errors.New("no model deployments configured")

const checkLongDesc string = `Validate the effective relay configuration.

Resolves configuration the same way "azrelay serve" does (environment
variables, config.toml, defaults), then checks that an Azure endpoint can be
derived and at least one model is mapped to a deployment. Prints the upstream
URL each model would be forwarded to.

Examples:
  azrelay check
  RESOURCE_NAME=contoso DEPLOY_NAMES='{"gpt-4":"gpt4-prod"}' azrelay check`

const checkShortDesc string = "Validate the effective relay configuration"

func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: checkShortDesc,
		Long:  checkLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runCheck(cmd.OutOrStdout(), configDir)
		},
	}

	return cmd
}

func runCheck(w io.Writer, configDir string) error {
	var cfg *config.Config
	err := cliui.Step(w, "Loading configuration", func() error {
		v, err := config.InitViper(configDir)
		if err != nil {
			return err
		}
		cfg, err = config.Load(v)
		return err
	})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var endpoint *azure.Endpoint
	err = cliui.Step(w, "Resolving Azure endpoint", func() error {
		var resolveErr error
		endpoint, resolveErr = azure.NewEndpoint(cfg.Azure.ResourceName, cfg.Azure.Endpoint, cfg.Azure.APIVersion)
		return resolveErr
	})
	if err != nil {
		return err
	}

	err = cliui.Step(w, "Checking model deployments", func() error {
		if len(cfg.Deployments) == 0 {
			return ErrNoDeployments
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n  %s %s\n", cliui.KeyStyle.Render("Upstream:   "), cliui.ValueStyle.Render(endpoint.BaseURL))
	fmt.Fprintf(w, "  %s %s\n\n", cliui.KeyStyle.Render("API version:"), cliui.ValueStyle.Render(endpoint.APIVersion))

	maxLen := 0
	for _, model := range cfg.Deployments.Models() {
		maxLen = max(maxLen, len(model))
	}

	for _, d := range cfg.Deployments {
		fmt.Fprintf(w, "  %s %s %s\n",
			cliui.KeyStyle.Render(d.Model+strings.Repeat(" ", maxLen-len(d.Model))),
			cliui.DimStyle.Render("→"),
			cliui.ValueStyle.Render(endpoint.URL(d.Deployment, azure.OperationChatCompletions)),
		)
	}
	fmt.Fprintln(w)

	return nil
}
