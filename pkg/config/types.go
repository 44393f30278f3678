package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/papercomputeco/azrelay/pkg/azure"
	"github.com/papercomputeco/azrelay/pkg/logger"
)

// Config represents the persistent azrelay configuration stored as
// config.toml in the .azrelay/ directory. The TOML layout uses sections for
// logical grouping; deployments are an array of tables so their order is
// preserved:
//
//	[[deployments]]
//	model = "gpt-4"
//	deployment = "gpt4-prod"
type Config struct {
	Version     int               `toml:"version"`
	Relay       RelayConfig       `toml:"relay"`
	Azure       AzureConfig       `toml:"azure"`
	Admin       AdminConfig       `toml:"admin"`
	Log         LogConfig         `toml:"log"`
	Deployments azure.Deployments `toml:"deployments,omitempty"`
}

// RelayConfig holds settings for the client-facing relay listener.
type RelayConfig struct {
	Listen string `toml:"listen,omitempty"`

	// FrameDelay is the pause between streamed frames, as a Go duration
	// string (e.g. "20ms"). "0s" disables pacing.
	FrameDelay string `toml:"frame_delay,omitempty"`
}

// AzureConfig addresses the upstream Azure OpenAI resource.
type AzureConfig struct {
	ResourceName string `toml:"resource_name,omitempty"`
	APIVersion   string `toml:"api_version,omitempty"`

	// Endpoint overrides the URL derived from ResourceName, e.g. for
	// sovereign clouds or a local test double.
	Endpoint string `toml:"endpoint,omitempty"`
}

// AdminConfig holds settings for the admin listener serving /ping and
// /metrics. An empty Listen disables it.
type AdminConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level,omitempty"`
	JSON  bool   `toml:"json,omitempty"`

	// File additionally writes JSON records to this path.
	File string `toml:"file,omitempty"`
}

// FrameDelayDuration parses Relay.FrameDelay.
func (c *Config) FrameDelayDuration() (time.Duration, error) {
	if c.Relay.FrameDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Relay.FrameDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid relay.frame_delay %q: %w", c.Relay.FrameDelay, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid relay.frame_delay %q: must not be negative", c.Relay.FrameDelay)
	}
	return d, nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported scalar config keys.
// Keys use dotted notation matching the TOML section structure.
// Deployments are managed separately via SetDeployment and UnsetDeployment.
var configKeys = map[string]configKeyInfo{
	"relay.listen": {
		get: func(c *Config) string { return c.Relay.Listen },
		set: func(c *Config, v string) error { c.Relay.Listen = v; return nil },
	},
	"relay.frame_delay": {
		get: func(c *Config) string { return c.Relay.FrameDelay },
		set: func(c *Config, v string) error {
			probe := &Config{Relay: RelayConfig{FrameDelay: v}}
			if _, err := probe.FrameDelayDuration(); err != nil {
				return err
			}
			c.Relay.FrameDelay = v
			return nil
		},
	},
	"azure.resource_name": {
		get: func(c *Config) string { return c.Azure.ResourceName },
		set: func(c *Config, v string) error { c.Azure.ResourceName = v; return nil },
	},
	"azure.api_version": {
		get: func(c *Config) string { return c.Azure.APIVersion },
		set: func(c *Config, v string) error { c.Azure.APIVersion = v; return nil },
	},
	"azure.endpoint": {
		get: func(c *Config) string { return c.Azure.Endpoint },
		set: func(c *Config, v string) error { c.Azure.Endpoint = v; return nil },
	},
	"admin.listen": {
		get: func(c *Config) string { return c.Admin.Listen },
		set: func(c *Config, v string) error { c.Admin.Listen = v; return nil },
	},
	"log.level": {
		get: func(c *Config) string { return c.Log.Level },
		set: func(c *Config, v string) error {
			if _, err := logger.ParseLevel(v); err != nil {
				return fmt.Errorf("invalid value for log.level: %w", err)
			}
			c.Log.Level = v
			return nil
		},
	},
	"log.json": {
		get: func(c *Config) string { return strconv.FormatBool(c.Log.JSON) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for log.json: %w", err)
			}
			c.Log.JSON = b
			return nil
		},
	},
	"log.file": {
		get: func(c *Config) string { return c.Log.File },
		set: func(c *Config, v string) error { c.Log.File = v; return nil },
	},
}
