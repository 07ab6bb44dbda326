package config

import (
	"github.com/dmitrijs2005/socialnet/internal/flagx"
	"github.com/spf13/pflag"
)

// parseFlags populates Config fields from command-line flags.
//
//	-s, --server-url string          REST base URL
//	-g, --grpc-addr string           gRPC address
//	    --transport string           http | grpc
//	-f, --db-path string             local SQLite database file
//	-i, --check-interval duration    online status check interval
//	-l, --log-level string           debug | info | warn | error
func parseFlags(cfg *Config, args []string) {
	fs := pflag.NewFlagSet("client", pflag.ContinueOnError)

	fs.StringVarP(&cfg.ServerURL, "server-url", "s", cfg.ServerURL, "base URL of the REST server")
	fs.StringVarP(&cfg.GRPCAddr, "grpc-addr", "g", cfg.GRPCAddr, "address and port of the gRPC server")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "transport to use: http or grpc")
	fs.StringVarP(&cfg.DatabasePath, "db-path", "f", cfg.DatabasePath, "local database file")
	fs.DurationVarP(&cfg.OnlineCheckInterval, "check-interval", "i", cfg.OnlineCheckInterval, "online check interval")
	fs.StringVarP(&cfg.LogLevel, "log-level", "l", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, flagx.Names(fs))); err != nil {
		panic(err)
	}
}
