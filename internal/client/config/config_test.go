package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:3000", c.ServerURL)
	assert.Equal(t, "127.0.0.1:50051", c.GRPCAddr)
	assert.Equal(t, TransportHTTP, c.Transport)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"grpc ok", func(c *Config) { c.Transport = TransportGRPC }, ""},
		{"unknown transport", func(c *Config) { c.Transport = "smoke" }, `unknown transport "smoke"`},
		{"http without url", func(c *Config) { c.ServerURL = "" }, "server url is required"},
		{"grpc without addr", func(c *Config) { c.Transport = TransportGRPC; c.GRPCAddr = "" }, "grpc address is required"},
		{"no database", func(c *Config) { c.DatabasePath = "" }, "database path is required"},
		{"zero interval", func(c *Config) { c.OnlineCheckInterval = 0 }, "must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
