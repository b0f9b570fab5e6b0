package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"log-relay/internal/engine"
	"log-relay/internal/generator/random"
	"log-relay/internal/level"
	"log-relay/internal/relay"
)

// EnvPrefix prefixes every environment override, e.g. LOG_RELAY_BASE_URL.
const EnvPrefix = "LOG_RELAY"

// RelayConfig configures the relay. An empty BaseURL disables forwarding.
type RelayConfig struct {
	Level   level.Severity `yaml:"level" envconfig:"LEVEL"`
	BaseURL string         `yaml:"base_url" envconfig:"BASE_URL"`
	Index   string         `yaml:"index" envconfig:"INDEX"`
	Timeout time.Duration  `yaml:"timeout" envconfig:"TIMEOUT"`
}

type APIConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

type Config struct {
	Relay     RelayConfig            `yaml:"relay"`
	API       APIConfig              `yaml:"api"`
	Engine    engine.EngineConfig    `yaml:"engine"`
	Generator random.GeneratorConfig `yaml:"generator"`
}

func Default() Config {
	return Config{
		Relay: RelayConfig{
			Level: level.INFO,
		},
		API: APIConfig{
			Addr: ":8081",
		},
		Engine: engine.EngineConfig{
			Workers:     2,
			DefaultRate: 10,
		},
		Generator: random.GeneratorConfig{
			Weights: map[level.Severity]int{
				level.DEBUG: 10,
				level.INFO:  70,
				level.WARN:  15,
				level.ERROR: 5,
			},
			Services: []string{"app"},
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults, applies the
// environment overrides and validates the result. An empty path skips the
// file.
func LoadConfig(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		// yaml merges into non-nil maps; weights from the file replace the
		// defaults instead.
		cfg.Generator.Weights = nil
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
		if cfg.Generator.Weights == nil {
			cfg.Generator.Weights = Default().Generator.Weights
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg.Relay); err != nil {
		return Config{}, fmt.Errorf("failed to apply environment: %w", err)
	}
	if err := envconfig.Process(EnvPrefix+"_API", &cfg.API); err != nil {
		return Config{}, fmt.Errorf("failed to apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if !c.Relay.Level.Valid() {
		errs = append(errs, fmt.Errorf("relay.level: invalid severity %d", int(c.Relay.Level)))
	}
	if (c.Relay.BaseURL == "") != (c.Relay.Index == "") {
		errs = append(errs, errors.New("relay: base_url and index must be set together"))
	}
	if c.Relay.Timeout < 0 {
		errs = append(errs, errors.New("relay.timeout: must not be negative"))
	}
	if c.Engine.Workers <= 0 {
		errs = append(errs, errors.New("engine.workers: must be positive"))
	}
	if c.Engine.DefaultRate <= 0 {
		errs = append(errs, errors.New("engine.default_rate: must be positive"))
	}

	return errors.Join(errs...)
}

// Remote returns the relay remote configuration, or nil when forwarding is
// disabled.
func (c RelayConfig) Remote() *relay.RemoteConfig {
	if c.BaseURL == "" {
		return nil
	}
	return &relay.RemoteConfig{BaseURL: c.BaseURL, Index: c.Index}
}
