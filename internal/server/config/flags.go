package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/pmcloud/internal/flagx"
)

var knownFlags = []string{
	"-a", "-m", "-v", "-k", "-d", "-s", "-f", "-l", "-n", "-r",
	"-g", "-e", "-u", "-p", "-t", "-b", "-x",
}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-m string   metrics bind address ("" disables)
//	-v string   log level
//	-k string   store backend: postgres, sqlite, dynamodb, s3
//	-d string   database DSN (postgres or sqlite)
//	-s string   session token HMAC secret key
//	-f string   default account name used when a resolved name is absent
//	-l float    auth attempts per second per account name
//	-n int      auth burst per account name
//	-r int      per-request store timeout, seconds
//	-g string   AWS region
//	-e string   AWS endpoint override (e.g., "http://127.0.0.1:9000")
//	-u string   AWS access key id
//	-p string   AWS secret access key
//	-t string   DynamoDB table
//	-b string   S3 bucket
//	-x string   S3 key prefix
//
// Only the flags above are parsed; os.Args is first filtered with
// flagx.FilterArgs so -c/-config does not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port for /metrics")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.StringVar(&config.StoreBackend, "k", config.StoreBackend, "store backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.DefaultAccountName, "f", config.DefaultAccountName, "default account name")
	fs.Float64Var(&config.AuthRateLimit, "l", config.AuthRateLimit, "auth attempts per second per account")
	fs.IntVar(&config.AuthRateBurst, "n", config.AuthRateBurst, "auth burst per account")
	requestTimeout := fs.Int("r", int(config.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&config.AWSRegion, "g", config.AWSRegion, "AWS region")
	fs.StringVar(&config.AWSEndpoint, "e", config.AWSEndpoint, "AWS endpoint override")
	fs.StringVar(&config.AWSAccessKey, "u", config.AWSAccessKey, "AWS access key id")
	fs.StringVar(&config.AWSSecretKey, "p", config.AWSSecretKey, "AWS secret access key")
	fs.StringVar(&config.DynamoTable, "t", config.DynamoTable, "DynamoDB table")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Prefix, "x", config.S3Prefix, "S3 key prefix")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
