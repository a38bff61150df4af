package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/messagebridge/internal/app"
)

const envPrefix = "MESSAGEBRIDGE_"

// start flags that override configuration keys.
const (
	flagHost    = "host"
	flagPort    = "port"
	flagBaseURL = "base-url"
	flagModel   = "model"
)

var flagKeys = map[string]string{
	flagHost:    "server.host",
	flagPort:    "server.port",
	flagBaseURL: "backend.base_url",
	flagModel:   "backend.model",
}

// legacyEnv maps the variables understood by earlier LM Studio proxy setups.
var legacyEnv = map[string]string{
	"LMSTUDIO_BASE_URL": "backend.base_url",
	"LMSTUDIO_MODEL":    "backend.model",
	"PROXY_HOST":        "server.host",
	"PROXY_PORT":        "server.port",
}

// loadConfig layers defaults, the config file, environment variables and
// command flags, later sources winning, and validates the result.
func loadConfig(path string, cmd *cli.Command, environ func() []string) (*app.Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		parser, err := parserForExtension(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	legacy := env.Provider(".", env.Opt{
		EnvironFunc: environ,
		TransformFunc: func(key, value string) (string, any) {
			return legacyEnv[key], value
		},
	})
	if err := k.Load(legacy, nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy environment: %w", err)
	}

	prefixed := env.Provider(".", env.Opt{
		Prefix:      envPrefix,
		EnvironFunc: environ,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			if key == "config" {
				return "", nil
			}
			return strings.ReplaceAll(key, "__", "."), value
		},
	})
	if err := k.Load(prefixed, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if cmd != nil {
		if err := k.Load(confmap.Provider(flagValues(cmd), "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg app.Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func parserForExtension(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (expected: .toml, .yaml, .yml, .json)", filepath.Ext(path))
	}
}

func defaultValues() map[string]any {
	cfg := app.DefaultConfig()

	models := make([]any, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		models = append(models, map[string]any{"alias": m.Alias, "target": m.Target})
	}

	return map[string]any{
		"server.host":              cfg.Server.Host,
		"server.port":              cfg.Server.Port,
		"server.max_request_bytes": cfg.Server.MaxRequestBytes,
		"server.shutdown_timeout":  cfg.Server.ShutdownTimeout,
		"backend.base_url":         cfg.Backend.BaseURL,
		"backend.model":            cfg.Backend.Model,
		"auth.storage":             string(cfg.Auth.Storage),
		"auth.env":                 cfg.Auth.Env,
		"auth.file":                cfg.Auth.File,
		"auth.keyring_service":     cfg.Auth.KeyringService,
		"auth.keyring_user":        cfg.Auth.KeyringUser,
		"models":                   models,
	}
}

// flagValues returns the config keys of flags set on cmd.
func flagValues(cmd *cli.Command) map[string]any {
	values := map[string]any{}
	for name, key := range flagKeys {
		if !cmd.IsSet(name) {
			continue
		}
		if name == flagPort {
			values[key] = cmd.Int(name)
		} else {
			values[key] = cmd.String(name)
		}
	}
	return values
}
