package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/socialnet/internal/flagx"
	"github.com/dmitrijs2005/socialnet/internal/timex"
	"github.com/tidwall/jsonc"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerURL           string         `json:"server_url"`
	GRPCAddr            string         `json:"grpc_addr"`
	Transport           string         `json:"transport"`
	DatabasePath        string         `json:"database_path"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays Config with the fields set in the file named by
// -c/--config. Panics on read or unmarshal errors.
func parseJson(cfg *Config, args []string) {
	jsonConfigFile := flagx.ConfigFileFlag(args)
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &jc); err != nil {
		panic(err)
	}

	for dst, v := range map[*string]string{
		&cfg.ServerURL:    jc.ServerURL,
		&cfg.GRPCAddr:     jc.GRPCAddr,
		&cfg.Transport:    jc.Transport,
		&cfg.DatabasePath: jc.DatabasePath,
		&cfg.LogLevel:     jc.LogLevel,
	} {
		if v != "" {
			*dst = v
		}
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
}
