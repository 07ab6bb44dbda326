package config

import (
	"fmt"
	"os"
	"time"
)

const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Config holds runtime settings for the socialnet CLI.
type Config struct {
	ServerURL           string
	GRPCAddr            string
	Transport           string
	DatabasePath        string
	OnlineCheckInterval time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:3000"
	c.GRPCAddr = "127.0.0.1:50051"
	c.Transport = TransportHTTP
	c.DatabasePath = "socialnet-client.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "warn"
}

func (c *Config) Validate() error {
	switch c.Transport {
	case TransportHTTP:
		if c.ServerURL == "" {
			return fmt.Errorf("server url is required for the %s transport", c.Transport)
		}
	case TransportGRPC:
		if c.GRPCAddr == "" {
			return fmt.Errorf("grpc address is required for the %s transport", c.Transport)
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive")
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
