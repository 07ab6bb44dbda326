// Package config loads runtime configuration for the socialnet CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or --config. Comments and trailing
//     commas are accepted.
//  3. Command-line flags, which override earlier values.
//
// # JSON schema
//
// Intervals accept strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:3000",
//	  "grpc_addr": "127.0.0.1:50051",
//	  "transport": "http", // or "grpc"
//	  "database_path": "socialnet-client.db",
//	  "online_check_interval": "3s",
//	  "log_level": "warn",
//	}
package config
