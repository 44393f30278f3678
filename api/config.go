// Package api provides the azrelay admin HTTP server: health, relay status
// and Prometheus metrics, served apart from the client-facing relay.
package api

import "github.com/papercomputeco/azrelay/pkg/azure"

// Config is the admin server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":9090")
	ListenAddr string

	// Upstream is the Azure endpoint the relay forwards to.
	Upstream string

	// APIVersion is the api-version the relay sends upstream.
	APIVersion string

	// Deployments is the model mapping the relay serves.
	Deployments azure.Deployments
}
