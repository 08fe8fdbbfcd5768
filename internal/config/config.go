package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Eth    EthConfig    `yaml:"eth"`
	Ens    EnsConfig    `yaml:"ens"`
	Lifi   LifiConfig   `yaml:"lifi"`
}

type ServerConfig struct {
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type EthConfig struct {
	RPCURL string `yaml:"rpc_url"`
}

type EnsConfig struct {
	APIURL       string `yaml:"api_url"`
	CacheTTLSecs int    `yaml:"cache_ttl_seconds"`
}

type LifiConfig struct {
	APIURL string `yaml:"api_url"`
	APIKey string `yaml:"api_key"`
}

// LoadConfig reads the YAML config file named by CONFIG_PATH (default
// ./configs/server.yaml), falling back to built-in defaults when the default
// file is absent, then applies environment variable overrides. An explicitly
// set CONFIG_PATH that cannot be read is an error.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("CONFIG_PATH")
	explicit := configPath != ""
	if configPath == "" {
		configPath = "./configs/server.yaml"
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         3001,
			AllowOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level: "info",
		},
		Eth: EthConfig{
			RPCURL: "https://eth.llamarpc.com",
		},
		Ens: EnsConfig{
			APIURL:       "https://api.ensideas.com/ens/resolve",
			CacheTTLSecs: 300,
		},
		Lifi: LifiConfig{
			APIURL: "https://li.quest/v1",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ETH_RPC_URL"); v != "" {
		cfg.Eth.RPCURL = v
	}
	if v := os.Getenv("ENS_API_URL"); v != "" {
		cfg.Ens.APIURL = v
	}
	if v := os.Getenv("LIFI_API_URL"); v != "" {
		cfg.Lifi.APIURL = v
	}
	if v := os.Getenv("LIFI_API_KEY"); v != "" {
		cfg.Lifi.APIKey = v
	}
}
