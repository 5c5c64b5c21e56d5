package config

import "time"

// EnvConfigFile names the environment variable consulted when no --config
// flag is given.
const EnvConfigFile = "PMCLOUD_CLIENT_CONFIG"

// Config holds runtime settings for the pmcloud CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the vault gRPC endpoint.
//   - StateDir: directory holding the local state database.
//   - RequestTimeout: deadline for each call to the server.
//   - LogLevel: client log level; logs go to stderr.
type Config struct {
	ServerEndpointAddr string
	StateDir           string
	RequestTimeout     time.Duration
	LogLevel           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.StateDir = "~/.pmcloud"
	c.RequestTimeout = 15 * time.Second
	c.LogLevel = "error"
}

// LoadConfig constructs a Config from defaults overlaid with the JSON file
// at jsonFile, or the one named by $PMCLOUD_CLIENT_CONFIG when jsonFile is
// empty. Command-line flags are applied by the caller afterwards.
func LoadConfig(jsonFile string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, jsonFile); err != nil {
		return nil, err
	}
	return cfg, nil
}
