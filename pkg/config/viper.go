package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/azrelay/pkg/azure"
	"github.com/papercomputeco/azrelay/pkg/dotdir"
	"github.com/papercomputeco/azrelay/pkg/logger"
)

// EnvPrefix prefixes every azrelay environment variable.
const EnvPrefix = "AZRELAY"

// legacyEnv binds the environment variable names used by existing
// deployments of the relay. They are consulted after the AZRELAY_ names.
var legacyEnv = map[string]string{
	"azure.resource_name": "RESOURCE_NAME",
	"azure.api_version":   "API_VERSION",
	"deployments":         "DEPLOY_NAMES",
}

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the AZRELAY_ prefix plus the legacy RESOURCE_NAME, API_VERSION and
// DEPLOY_NAMES names.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (AZRELAY_RELAY_LISTEN, RESOURCE_NAME, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
		if err := v.ReadInConfig(); err != nil {
			// Config file not found errors are fine, defaults will apply.
			if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	// 3. Environment variables: AZRELAY_RELAY_LISTEN, AZRELAY_AZURE_ENDPOINT, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Relay
	v.SetDefault("relay.listen", d.Relay.Listen)
	v.SetDefault("relay.frame_delay", d.Relay.FrameDelay)

	// Azure
	v.SetDefault("azure.resource_name", d.Azure.ResourceName)
	v.SetDefault("azure.api_version", d.Azure.APIVersion)
	v.SetDefault("azure.endpoint", d.Azure.Endpoint)

	// Admin
	v.SetDefault("admin.listen", d.Admin.Listen)

	// Log
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.file", d.Log.File)
}

// Load resolves the effective Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Relay: RelayConfig{
			Listen:     v.GetString("relay.listen"),
			FrameDelay: v.GetString("relay.frame_delay"),
		},
		Azure: AzureConfig{
			ResourceName: v.GetString("azure.resource_name"),
			APIVersion:   v.GetString("azure.api_version"),
			Endpoint:     v.GetString("azure.endpoint"),
		},
		Admin: AdminConfig{
			Listen: v.GetString("admin.listen"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
			JSON:  v.GetBool("log.json"),
			File:  v.GetString("log.file"),
		},
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	if cfg.Azure.APIVersion == "" {
		cfg.Azure.APIVersion = azure.DefaultAPIVersion
	}

	if _, err := cfg.FrameDelayDuration(); err != nil {
		return nil, err
	}
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("invalid log.level: %w", err)
	}

	deployments, err := deploymentsFromValue(v.Get("deployments"))
	if err != nil {
		return nil, err
	}
	cfg.Deployments = deployments

	return cfg, nil
}

// deploymentsFromValue converts whatever viper holds for "deployments" into
// an ordered mapping. Environment values are a JSON object string; the
// config file yields an array of tables.
func deploymentsFromValue(raw any) (azure.Deployments, error) {
	switch val := raw.(type) {
	case nil:
		return nil, nil

	case string:
		d, err := azure.ParseDeploymentsJSON([]byte(val))
		if err != nil {
			return nil, fmt.Errorf("parsing deployments: %w", err)
		}
		return d, nil

	case []map[string]any:
		items := make([]any, len(val))
		for i := range val {
			items[i] = val[i]
		}
		return deploymentsFromTables(items)

	case []any:
		return deploymentsFromTables(val)

	case map[string]any:
		// A plain [deployments] table has no defined key order; sort so the
		// model list is at least stable.
		models := make([]string, 0, len(val))
		for k := range val {
			models = append(models, k)
		}
		sort.Strings(models)

		var d azure.Deployments
		for _, model := range models {
			dep, ok := val[model].(string)
			if !ok {
				return nil, fmt.Errorf("deployment for model %q must be a string", model)
			}
			d = d.Set(model, dep)
		}
		return d, nil

	default:
		return nil, fmt.Errorf("unsupported deployments value of type %T", raw)
	}
}

func deploymentsFromTables(items []any) (azure.Deployments, error) {
	var d azure.Deployments
	for i, item := range items {
		table, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("deployments[%d]: expected a table, got %T", i, item)
		}

		model, _ := table["model"].(string)
		deployment, _ := table["deployment"].(string)
		if model == "" || deployment == "" {
			return nil, fmt.Errorf("deployments[%d]: model and deployment are required", i)
		}
		d = d.Set(model, deployment)
	}
	return d, nil
}
