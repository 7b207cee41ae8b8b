package config

import (
	"time"

	libconfig "parkgate/backend/libs/config"
)

// Config holds gate-server settings.
type Config struct {
	HTTP HTTPConfig `yaml:"http"`
	WS   WSConfig   `yaml:"ws"`
	Gate GateConfig `yaml:"gate"`
}

type HTTPConfig struct {
	Port string `yaml:"port"`
}

type WSConfig struct {
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type GateConfig struct {
	AckTimeout time.Duration `yaml:"ack_timeout" env:"GATE_ACK_TIMEOUT"`
}

// Load reads the config and fills in defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8081"
	}
	if cfg.WS.WriteTimeout <= 0 {
		cfg.WS.WriteTimeout = 10 * time.Second
	}
	if cfg.Gate.AckTimeout <= 0 {
		cfg.Gate.AckTimeout = 5 * time.Second
	}
	return cfg, nil
}
