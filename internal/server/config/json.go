package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/pmcloud/internal/flagx"
	"github.com/dmitrijs2005/pmcloud/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "10s" or
// integer nanoseconds via timex.Duration. Pointer fields distinguish
// "absent" from zero so a partial file only overrides what it names.
type JsonConfig struct {
	EndpointAddrGRPC   *string         `json:"endpoint_addr_grpc"`
	MetricsAddr        *string         `json:"metrics_addr"`
	LogLevel           *string         `json:"log_level"`
	StoreBackend       *string         `json:"store_backend"`
	DatabaseDSN        *string         `json:"database_dsn"`
	SecretKey          *string         `json:"secret_key"`
	DefaultAccountName *string         `json:"default_account_name"`
	AuthRateLimit      *float64        `json:"auth_rate_limit"`
	AuthRateBurst      *int            `json:"auth_rate_burst"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
	AWSRegion          *string         `json:"aws_region"`
	AWSEndpoint        *string         `json:"aws_endpoint"`
	AWSAccessKey       *string         `json:"aws_access_key"`
	AWSSecretKey       *string         `json:"aws_secret_key"`
	DynamoTable        *string         `json:"dynamo_table"`
	S3Bucket           *string         `json:"s3_bucket"`
	S3Prefix           *string         `json:"s3_prefix"`
}

// parseJson overlays values from the JSON file named by -c/-config (or
// $PMCLOUD_CONFIG) onto config. No file means no changes. An unreadable
// file or invalid JSON panics: the server must not start half-configured.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.StoreBackend, c.StoreBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.DefaultAccountName, c.DefaultAccountName)
	if c.AuthRateLimit != nil {
		config.AuthRateLimit = *c.AuthRateLimit
	}
	if c.AuthRateBurst != nil {
		config.AuthRateBurst = *c.AuthRateBurst
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	setString(&config.AWSRegion, c.AWSRegion)
	setString(&config.AWSEndpoint, c.AWSEndpoint)
	setString(&config.AWSAccessKey, c.AWSAccessKey)
	setString(&config.AWSSecretKey, c.AWSSecretKey)
	setString(&config.DynamoTable, c.DynamoTable)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Prefix, c.S3Prefix)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
