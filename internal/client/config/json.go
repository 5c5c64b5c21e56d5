package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/pmcloud/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// leave the current value alone.
type JsonConfig struct {
	ServerEndpointAddr *string         `json:"server_endpoint_addr"`
	StateDir           *string         `json:"state_dir"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
	LogLevel           *string         `json:"log_level"`
}

func parseJson(cfg *Config, jsonFile string) error {
	if jsonFile == "" {
		jsonFile = os.Getenv(EnvConfigFile)
	}
	if jsonFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonFile)
	if err != nil {
		return fmt.Errorf("read config %s: %w", jsonFile, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", jsonFile, err)
	}

	if jc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *jc.ServerEndpointAddr
	}
	if jc.StateDir != nil {
		cfg.StateDir = *jc.StateDir
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	return nil
}
