package app

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/messagebridge/internal/proxy"
	"github.com/florianilch/messagebridge/internal/tokensource"
)

// Defaults applied before any configuration source is loaded.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 3456
	DefaultShutdownTimeout = 5 * time.Second
	DefaultBaseURL         = "http://localhost:1234"
	DefaultBackendModel    = "google/gemma-3-4b"
	DefaultAPIKeyEnv       = "LMSTUDIO_API_KEY"
	DefaultKeyringService  = "messagebridge"
	DefaultKeyringUser     = "backend-api-key"
	DefaultKeyFile         = "~/.config/messagebridge/api-key"
)

// DefaultModelAliases are the Anthropic model names accepted out of the box.
// Each maps to the configured backend model.
var DefaultModelAliases = []string{
	"claude-3-opus-20240229",
	"claude-3-sonnet-20240229",
	"claude-3-haiku-20240307",
	"claude-opus-4-5-20251101",
	"claude-sonnet-4-5-20250929",
	"claude-haiku-4-5-20251001",
}

// TokenStorageType selects where the backend API key is kept.
type TokenStorageType string

const (
	TokenStorageTypeEnv     TokenStorageType = "env"
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
)

// Config is the complete application configuration.
type Config struct {
	Server  ServerConfig   `koanf:"server"`
	Backend BackendConfig  `koanf:"backend"`
	Auth    AuthConfig     `koanf:"auth"`
	Models  []ModelMapping `koanf:"models" validate:"dive"`
}

// ServerConfig configures the inbound HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	MaxRequestBytes int64         `koanf:"max_request_bytes" validate:"min=1"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// BackendConfig points at the OpenAI-compatible backend.
type BackendConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,http_url"`
	// Model is used for aliases without an explicit target and for unknown
	// model names.
	Model string `koanf:"model" validate:"required"`
}

// AuthConfig selects the backend API key store.
type AuthConfig struct {
	Storage        TokenStorageType `koanf:"storage" validate:"oneof=env file keyring"`
	Env            string           `koanf:"env" validate:"required_if=Storage env"`
	File           string           `koanf:"file" validate:"required_if=Storage file"`
	KeyringService string           `koanf:"keyring_service" validate:"required_if=Storage keyring"`
	KeyringUser    string           `koanf:"keyring_user" validate:"required_if=Storage keyring"`
}

// NewTokenStore returns the configured key store.
func (a AuthConfig) NewTokenStore() (tokensource.Store, error) {
	switch a.Storage {
	case TokenStorageTypeEnv:
		return tokensource.NewEnvStore(a.Env), nil
	case TokenStorageTypeFile:
		return tokensource.NewFileStore(a.File), nil
	case TokenStorageTypeKeyring:
		return tokensource.NewKeyringStore(a.KeyringService, a.KeyringUser), nil
	default:
		return nil, fmt.Errorf("unsupported token storage %q (expected: env, file, keyring)", a.Storage)
	}
}

// ModelMapping maps an Anthropic model name to a backend model. An empty
// Target uses Backend.Model.
type ModelMapping struct {
	Alias  string `koanf:"alias" validate:"required"`
	Target string `koanf:"target"`
}

// DefaultConfig returns the configuration used when no source overrides it.
func DefaultConfig() Config {
	models := make([]ModelMapping, 0, len(DefaultModelAliases))
	for _, alias := range DefaultModelAliases {
		models = append(models, ModelMapping{Alias: alias})
	}

	return Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			MaxRequestBytes: proxy.DefaultMaxRequestBytes,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Backend: BackendConfig{
			BaseURL: DefaultBaseURL,
			Model:   DefaultBackendModel,
		},
		Auth: AuthConfig{
			Storage:        TokenStorageTypeEnv,
			Env:            DefaultAPIKeyEnv,
			File:           DefaultKeyFile,
			KeyringService: DefaultKeyringService,
			KeyringUser:    DefaultKeyringUser,
		},
		Models: models,
	}
}

// ModelTable returns the alias table for the model resolver. Later entries
// win over earlier ones with the same alias.
func (c Config) ModelTable() map[string]string {
	table := make(map[string]string, len(c.Models))
	for _, m := range c.Models {
		table[m.Alias] = m.Target
	}
	return table
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and reports every invalid field.
func (c *Config) Validate() error {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", field, fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
