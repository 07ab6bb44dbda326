package config

import (
	"github.com/dmitrijs2005/socialnet/internal/flagx"
	"github.com/spf13/pflag"
)

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-a, --http-addr string        REST bind address (e.g. ":3000")
//	-g, --grpc-addr string        gRPC bind address (e.g. ":50051")
//	    --storage string          postgres | redis | memory
//	-d, --database-dsn string     PostgreSQL DSN
//	    --redis-addr string       Redis address
//	    --redis-password string   Redis password
//	    --redis-db int            Redis database number
//	    --redis-prefix string     Redis key prefix
//	    --access-secret string    access token secret
//	    --refresh-secret string   refresh token secret
//	-t, --access-ttl duration     access token lifetime
//	-r, --refresh-ttl duration    refresh token lifetime
//	    --bcrypt-cost int         bcrypt work factor
//	-l, --log-level string        debug | info | warn | error
//
// Arguments that belong to other parsers (such as -c) are filtered out
// first. A malformed value panics.
func parseFlags(config *Config, args []string) {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)

	fs.StringVarP(&config.EndpointAddrHTTP, "http-addr", "a", config.EndpointAddrHTTP, "address and port to serve REST on")
	fs.StringVarP(&config.EndpointAddrGRPC, "grpc-addr", "g", config.EndpointAddrGRPC, "address and port to serve gRPC on")
	fs.StringVar(&config.Storage, "storage", config.Storage, "credential store backend: postgres, redis or memory")
	fs.StringVarP(&config.DatabaseDSN, "database-dsn", "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "redis-addr", config.RedisAddr, "redis address")
	fs.StringVar(&config.RedisPassword, "redis-password", config.RedisPassword, "redis password")
	fs.IntVar(&config.RedisDB, "redis-db", config.RedisDB, "redis database number")
	fs.StringVar(&config.RedisKeyPrefix, "redis-prefix", config.RedisKeyPrefix, "redis key prefix")
	fs.StringVar(&config.AccessTokenSecret, "access-secret", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "refresh-secret", config.RefreshTokenSecret, "refresh token secret")
	fs.DurationVarP(&config.AccessTokenValidityDuration, "access-ttl", "t", config.AccessTokenValidityDuration, "access token lifetime")
	fs.DurationVarP(&config.RefreshTokenValidityDuration, "refresh-ttl", "r", config.RefreshTokenValidityDuration, "refresh token lifetime")
	fs.IntVar(&config.BcryptCost, "bcrypt-cost", config.BcryptCost, "bcrypt work factor")
	fs.StringVarP(&config.LogLevel, "log-level", "l", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, flagx.Names(fs))); err != nil {
		panic(err)
	}
}
