package server

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/hashicorp/go-hclog"

	"github.com/dirops/freeipa-mcp/internal/ipa"
)

// Config is the process configuration, resolved once at startup from
// struct defaults and environment variables.
type Config struct {
	// Transport selects how tool calls reach the server: "http" exposes the
	// streamable endpoint plus health and metrics routes, "stdio" serves a
	// single client over standard input and output.
	Transport string `default:"http"`

	// HTTP listener settings (ignored for stdio).
	Host string `default:"0.0.0.0"`
	Port int    `default:"8000"`

	LogLevel string `default:"info"`

	// Phone matching knobs for self-service password reset. The stored
	// number and the supplied number are both stripped of the country code
	// prefix, one trunk digit, spaces and hyphens before comparison.
	CountryCode string `default:"+90"`
	TrunkPrefix string `default:"0"`

	// IPA holds the directory backend configuration used for the startup
	// connection and for every automatic reconnect.
	IPA ipa.Config
}

// LoadConfig builds the configuration from defaults and the environment.
// Backend credentials are not validated here; a process may start without
// them and connect later through the connect tool.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply configuration defaults: %w", err)
	}
	cfg.IPA = *ipa.DefaultConfig()

	cfg.Transport = envString("MCP_TRANSPORT", cfg.Transport)
	cfg.Host = envString("HOST", cfg.Host)
	cfg.Port = envInt("PORT", cfg.Port)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.CountryCode = envString("FREEIPA_COUNTRY_CODE", cfg.CountryCode)
	cfg.TrunkPrefix = envString("FREEIPA_TRUNK_PREFIX", cfg.TrunkPrefix)

	cfg.IPA.Server = envString("FREEIPA_SERVER", cfg.IPA.Server)
	cfg.IPA.Username = envString("FREEIPA_USERNAME", cfg.IPA.Username)
	cfg.IPA.Password = envString("FREEIPA_PASSWORD", cfg.IPA.Password)
	cfg.IPA.VerifySSL = envBool("FREEIPA_VERIFY_SSL", cfg.IPA.VerifySSL)
	cfg.IPA.APIVersion = envString("FREEIPA_API_VERSION", cfg.IPA.APIVersion)
	cfg.IPA.Timeout = envDuration("FREEIPA_TIMEOUT", cfg.IPA.Timeout)
	cfg.IPA.RetryMax = envInt("FREEIPA_RETRY_MAX", cfg.IPA.RetryMax)
	cfg.IPA.KerberosConfig = envString("FREEIPA_KRB5_CONF", cfg.IPA.KerberosConfig)
	cfg.IPA.KerberosKeytab = envString("FREEIPA_KEYTAB", cfg.IPA.KerberosKeytab)
	cfg.IPA.KerberosCCache = envString("FREEIPA_CCACHE", cfg.IPA.KerberosCCache)

	if method := os.Getenv("FREEIPA_AUTH_METHOD"); method != "" {
		parsed, err := ipa.ParseAuthMethod(method)
		if err != nil {
			return nil, fmt.Errorf("invalid FREEIPA_AUTH_METHOD: %w", err)
		}
		cfg.IPA.AuthMethod = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the transport and listener settings. The backend
// configuration is validated separately when a connection is attempted, so
// that a server without credentials can still start and report unhealthy.
func (c *Config) Validate() error {
	switch c.Transport {
	case "http", "stdio":
	default:
		return fmt.Errorf("invalid transport %q: must be http or stdio", c.Transport)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

// ListenAddr returns the host:port address for the HTTP listener.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions for configuration value resolution. A set but
// unparseable value falls back to the default rather than failing startup.

func envString(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

func envBool(envVar string, defaultValue bool) bool {
	if value := os.Getenv(envVar); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func envInt(envVar string, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func envDuration(envVar string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envVar); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
