// Package proxy provides the azrelay relay: an OpenAI-compatible HTTP front
// that forwards requests to Azure OpenAI deployments and reframes streamed
// responses.
package proxy

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/papercomputeco/azrelay/pkg/azure"
	"github.com/papercomputeco/azrelay/pkg/logger"
	"github.com/papercomputeco/azrelay/proxy/header"
	"github.com/papercomputeco/azrelay/proxy/worker"
)

const (
	modelsPath = "/v1/models"

	msgNotFound      = "404 Not Found"
	msgMissingMapper = "Missing model mapper"
	msgNotAllowed    = "Not allowed"
	msgUpstreamError = "upstream request failed"
)

// Proxy is an OpenAI to Azure OpenAI request-translation relay.
// It rewrites the inbound OpenAI route and model into an Azure deployment
// URL, swaps the bearer token for an api-key header and relays the response,
// reframing streamed bodies into whole SSE events.
type Proxy struct {
	config        Config
	endpoint      *azure.Endpoint
	logger        *slog.Logger
	httpClient    *http.Client
	server        *fiber.App
	headerHandler *header.Handler
	metrics       *Metrics
	workerPool    *worker.Pool
}

// New creates a new Proxy.
// Returns azure.ErrNoResource if neither a resource name nor an endpoint is
// configured.
func New(config Config, log *slog.Logger) (*Proxy, error) {
	endpoint, err := azure.NewEndpoint(config.ResourceName, config.Endpoint, config.APIVersion)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.Nop()
	}

	registry := config.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	metrics := NewMetrics(registry)

	wp, err := worker.NewPool(&worker.Config{
		Recorder: metrics,
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		// No Timeout: streamed completions can run for minutes.
		httpClient = &http.Client{}
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Enable streaming
		StreamRequestBody: true,
		// Inbound paths are matched exactly
		StrictRouting: true,
		CaseSensitive: true,
	})

	p := &Proxy{
		config:        config,
		endpoint:      endpoint,
		logger:        log,
		httpClient:    httpClient,
		server:        app,
		headerHandler: header.NewHandler(),
		metrics:       metrics,
		workerPool:    wp,
	}

	app.Use(p.handlePreflight)
	app.Use(normalizePath)

	// Add compression middleware to handle responses
	app.Use(compress.New())

	app.All(modelsPath, p.handleModels)
	for _, path := range azure.InboundPaths() {
		op, _ := azure.OperationForPath(path)
		app.All(path, p.relayHandler(op))
	}

	app.Use(p.handleNotFound)

	return p, nil
}

// Run starts the relay server on the given listening address
func (p *Proxy) Run() error {
	p.logger.Info("starting relay server",
		"listen", p.config.ListenAddr,
		"upstream", p.endpoint.BaseURL,
		"api_version", p.endpoint.APIVersion,
		"models", len(p.config.Deployments),
	)

	return p.server.Listen(p.config.ListenAddr)
}

// RunWithListener starts the relay server using the provided listener.
func (p *Proxy) RunWithListener(listener net.Listener) error {
	p.logger.Info("starting relay server",
		"listen", listener.Addr().String(),
		"upstream", p.endpoint.BaseURL,
		"api_version", p.endpoint.APIVersion,
		"models", len(p.config.Deployments),
	)

	return p.server.Listener(listener)
}

// Endpoint returns the Azure endpoint requests are forwarded to.
func (p *Proxy) Endpoint() *azure.Endpoint {
	return p.endpoint
}

// Close gracefully shuts down the relay and waits for the worker pool to drain
func (p *Proxy) Close() error {
	err := p.server.Shutdown()
	p.workerPool.Close()
	return err
}

// handlePreflight answers every OPTIONS request, on any path, with a
// permissive CORS preflight response.
func (p *Proxy) handlePreflight(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodOptions {
		return c.Next()
	}

	p.headerHandler.SetPreflight(c)
	c.Status(fiber.StatusNoContent)
	return nil
}

// normalizePath drops one leading slash so "//v1/models" routes like
// "/v1/models". "///v1/models" still misses.
func normalizePath(c *fiber.Ctx) error {
	if path := c.Path(); strings.HasPrefix(path, "//") {
		c.Path(path[1:])
	}
	return c.Next()
}

func (p *Proxy) handleNotFound(c *fiber.Ctx) error {
	p.metrics.Reject(rejectNotFound)
	return c.Status(fiber.StatusNotFound).SendString(msgNotFound)
}
