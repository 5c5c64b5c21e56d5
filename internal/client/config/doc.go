// Package config loads runtime configuration for the pmcloud CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with --config, or named by
//     $PMCLOUD_CLIENT_CONFIG.
//  3. Command-line flags, applied by the CLI after LoadConfig returns.
//
// # JSON schema
//
// request_timeout is a timex.Duration, so it may be a string like "15s" or
// integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "state_dir": "~/.pmcloud",
//	  "request_timeout": "15s",
//	  "log_level": "error"
//	}
package config
