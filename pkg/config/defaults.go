package config

import (
	"github.com/papercomputeco/azrelay/pkg/azure"
	"github.com/papercomputeco/azrelay/pkg/sse"
)

const (
	defaultRelayListen = ":8080"
	defaultAdminListen = ":9090"
	defaultLogLevel    = "info"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Relay: RelayConfig{
			Listen:     defaultRelayListen,
			FrameDelay: sse.DefaultFrameDelay.String(),
		},
		Azure: AzureConfig{
			APIVersion: azure.DefaultAPIVersion,
		},
		Admin: AdminConfig{
			Listen: defaultAdminListen,
		},
		Log: LogConfig{
			Level: defaultLogLevel,
		},
	}
}
