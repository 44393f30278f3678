// Package servecmder provides the serve command that runs the relay and its
// admin server.
package servecmder

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/azrelay/api"
	"github.com/papercomputeco/azrelay/pkg/config"
	"github.com/papercomputeco/azrelay/pkg/logger"
	"github.com/papercomputeco/azrelay/proxy"
)

type serveCommander struct {
	listen       string
	frameDelay   string
	resourceName string
	apiVersion   string
	endpoint     string
	adminListen  string
	logLevel     string
	logFile      string
	logJSON      bool

	debug  bool
	cfg    *config.Config
	logger *slog.Logger
}

var serveFlags = []string{
	config.FlagListen,
	config.FlagFrameDelay,
	config.FlagResourceName,
	config.FlagAPIVersion,
	config.FlagEndpoint,
	config.FlagAdminListen,
	config.FlagLogLevel,
	config.FlagLogJSON,
	config.FlagLogFile,
}

const serveLongDesc string = `Run the azrelay relay server.

The relay accepts OpenAI-style requests on /v1/chat/completions,
/v1/completions and /v1/images/generations, maps the request's model to an Azure
deployment and forwards it to Azure OpenAI. Streamed responses are reframed
into whole server-sent events and paced by --frame-delay.

An admin server with /ping, /status and /metrics listens on --admin-listen
unless it is set to an empty string.

Configuration precedence (highest first): flags, environment variables
(AZRELAY_AZURE_RESOURCE_NAME, RESOURCE_NAME, API_VERSION, DEPLOY_NAMES, ...),
config.toml in the .azrelay/ directory, defaults.

Examples:
  azrelay serve --resource-name contoso
  DEPLOY_NAMES='{"gpt-4":"gpt4-prod"}' RESOURCE_NAME=contoso azrelay serve
  azrelay serve --frame-delay 0s --log-json`

const serveShortDesc string = "Run the azrelay relay server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.ServeFlags, serveFlags)

			return cmder.load(v)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.ServeFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagFrameDelay, &cmder.frameDelay)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagResourceName, &cmder.resourceName)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagAPIVersion, &cmder.apiVersion)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagEndpoint, &cmder.endpoint)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagAdminListen, &cmder.adminListen)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagLogLevel, &cmder.logLevel)
	config.AddBoolFlag(cmd, config.ServeFlags, config.FlagLogJSON, &cmder.logJSON)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagLogFile, &cmder.logFile)

	return cmd
}

func (c *serveCommander) load(v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	c.cfg = cfg
	return nil
}

func (c *serveCommander) run() error {
	log, closeLog, err := newLogger(c.cfg, c.debug)
	if err != nil {
		return err
	}
	defer closeLog.Close()
	c.logger = log

	frameDelay, err := c.cfg.FrameDelayDuration()
	if err != nil {
		return err
	}

	if len(c.cfg.Deployments) == 0 {
		c.logger.Warn("no model deployments configured, every relay request will be rejected")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p, err := proxy.New(proxy.Config{
		ListenAddr:   c.cfg.Relay.Listen,
		ResourceName: c.cfg.Azure.ResourceName,
		Endpoint:     c.cfg.Azure.Endpoint,
		APIVersion:   c.cfg.Azure.APIVersion,
		Deployments:  c.cfg.Deployments,
		FrameDelay:   frameDelay,
		Registry:     registry,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating relay: %w", err)
	}
	defer p.Close()

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := p.Run(); err != nil {
			errChan <- fmt.Errorf("relay error: %w", err)
		}
	}()

	if c.cfg.Admin.Listen != "" {
		adminServer := api.NewServer(api.Config{
			ListenAddr:  c.cfg.Admin.Listen,
			Upstream:    p.Endpoint().BaseURL,
			APIVersion:  p.Endpoint().APIVersion,
			Deployments: c.cfg.Deployments,
		}, registry, c.logger)
		defer adminServer.Shutdown()

		go func() {
			if err := adminServer.Run(); err != nil {
				errChan <- fmt.Errorf("admin server error: %w", err)
			}
		}()
	}

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return nil
	}
}

// newLogger builds the service logger: colorized console output, or JSON
// when log.json is set, plus JSON records appended to log.file when given.
// --debug wins over log.level.
func newLogger(cfg *config.Config, debug bool) (*slog.Logger, io.Closer, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	if debug {
		level = slog.LevelDebug
	}

	console := logger.New(
		logger.WithLevel(level),
		logger.WithPretty(!cfg.Log.JSON),
		logger.WithJSON(cfg.Log.JSON),
		logger.WithSource(debug),
		logger.WithWriter(os.Stderr),
	)

	if cfg.Log.File == "" {
		return console, nopCloser{}, nil
	}

	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithLevel(level),
		logger.WithJSON(true),
		logger.WithWriter(f),
	)

	return logger.Multi(console, file), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

