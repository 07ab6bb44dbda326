// Package cli provides the interactive socialnet command-line client.
//
// It wires configuration, the local credential database, the API client for
// the configured transport and an interactive REPL. A background watcher pings
// the server and flips the prompt between online and offline.
//
// Commands: register, login, whoami, passwd, logout, help, exit.
//
// Credentials survive restarts; an expired access token is renewed silently on
// the next protected command. When renewal is refused the user is told to log
// in again.
package cli
