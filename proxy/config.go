package proxy

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/papercomputeco/azrelay/pkg/azure"
	"github.com/papercomputeco/azrelay/pkg/sse"
)

// Config is the relay server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// ResourceName is the Azure OpenAI resource (the "contoso" in
	// https://contoso.openai.azure.com).
	ResourceName string

	// Endpoint overrides the URL derived from ResourceName.
	Endpoint string

	// APIVersion is the api-version query parameter sent upstream.
	// Defaults to azure.DefaultAPIVersion.
	APIVersion string

	// Deployments maps public model names to Azure deployments.
	Deployments azure.Deployments

	// FrameDelay is the pause between streamed frames. Zero disables pacing.
	FrameDelay time.Duration

	// Pacer overrides the pacing derived from FrameDelay.
	Pacer sse.Pacer

	// Registry receives the relay metrics. If nil, a private registry is used.
	Registry prometheus.Registerer

	// HTTPClient is used for upstream requests. If nil, a client without a
	// timeout is used so long streams are never cut off.
	HTTPClient *http.Client
}

// pacer returns the pacing policy for one streamed response.
func (c Config) pacer() sse.Pacer {
	if c.Pacer != nil {
		return c.Pacer
	}
	if c.FrameDelay > 0 {
		return sse.NewFixedPacer(c.FrameDelay)
	}
	return sse.NopPacer{}
}
