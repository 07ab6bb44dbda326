package config

// Environment variables holding the signing secrets.
const (
	EnvAccessTokenSecret  = "ACCESS_TOKEN_SECRET"
	EnvRefreshTokenSecret = "REFRESH_TOKEN_SECRET"
)

// parseEnv overlays the signing secrets from the environment. Empty values
// are ignored.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAccessTokenSecret); ok && v != "" {
		config.AccessTokenSecret = v
	}
	if v, ok := lookup(EnvRefreshTokenSecret); ok && v != "" {
		config.RefreshTokenSecret = v
	}
}
