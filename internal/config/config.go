// Package config centralizes process configuration for the ingest and
// aggregate commands. Every tunable is a command-line flag whose default is
// seeded from an environment variable, so a .env file, the process
// environment and explicit flags all work, in increasing precedence.
//
// Typical usage:
//
//	if err := config.LoadDotEnv(".env"); err != nil { ... }
//	cfg, err := config.LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
//
// Tests use LoadFromArgs with a private FlagSet and a map-backed getenv:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	cfg, err := config.LoadFromArgs(fs, func(k string) string { return env[k] }, []string{"-v"})
package config

import (
	"errors"
	"flag"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"vendoretl/internal/storage"
)

// Defaults shared by both commands.
const (
	DefaultDriver      = "mssql"
	DefaultCSVFolder   = "data"
	DefaultChunkSize   = 100000
	DefaultLogDir      = "logs"
	DefaultDatadogAddr = "127.0.0.1:8125"
)

// Config holds everything derived from flags and the environment. All fields
// are plain values; the struct is not mutated after LoadFromArgs returns.
type Config struct {
	// Database connection.
	Driver                 string // storage backend kind (mssql, postgres, sqlite)
	Server                 string // host[:port] or host\instance
	Database               string // database name; sqlite takes a file path
	Username               string // optional; empty selects integrated auth on mssql
	Password               string
	Encrypt                bool   // TLS on the connection
	TrustServerCertificate bool   // skip certificate validation
	DSN                    string // full DSN override

	// Bulk loader.
	CSVFolder string
	ChunkSize int

	// Logging and metrics.
	LogDir         string
	Verbose        bool
	MetricsBackend string // none, prom, datadog
	PushgatewayURL string
	DatadogAddr    string

	// ValidateOnly asks the command to print configuration issues and exit.
	ValidateOnly bool
}

// LoadFromArgs defines every flag on fs with an environment-seeded default
// read through getenv, then parses args.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit flags in args override them.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) (*Config, error) {
	cfg := &Config{}

	envOrDefault := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	intEnvOrDefault := func(k string, d int) int {
		if v := getenv(k); v != "" {
			if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return i
			}
		}
		return d
	}
	boolEnvOrDefault := func(k string, d bool) bool {
		return parseBool(getenv(k), d)
	}

	// Database
	fs.StringVar(&cfg.Driver, "driver", envOrDefault("DRIVER", DefaultDriver), "Storage backend: mssql, postgres or sqlite.")
	fs.StringVar(&cfg.Server, "server", getenv("SERVER"), "Database server (host[:port] or host\\instance).")
	fs.StringVar(&cfg.Database, "database", getenv("DATABASE"), "Database name (sqlite: file path or :memory:).")
	fs.StringVar(&cfg.Username, "username", getenv("USERNAME"), "Database user; leave empty for integrated authentication.")
	fs.StringVar(&cfg.Password, "password", getenv("PASSWORD"), "Database password.")
	fs.BoolVar(&cfg.Encrypt, "encrypt", boolEnvOrDefault("DB_ENCRYPT", true), "Encrypt the database connection.")
	fs.BoolVar(&cfg.TrustServerCertificate, "trust-server-certificate", boolEnvOrDefault("DB_TRUST_SERVER_CERTIFICATE", false), "Accept the server certificate without validation.")
	fs.StringVar(&cfg.DSN, "dsn", getenv("DB_DSN"), "Full DSN; overrides the discrete connection settings.")

	// Bulk loader
	fs.StringVar(&cfg.CSVFolder, "csv-folder", envOrDefault("CSV_FOLDER", DefaultCSVFolder), "Directory of CSV files to load.")
	fs.IntVar(&cfg.ChunkSize, "chunk-size", intEnvOrDefault("CHUNK_SIZE", DefaultChunkSize), "Rows per chunk / batch.")

	// Logging & metrics
	fs.StringVar(&cfg.LogDir, "log-dir", envOrDefault("LOG_DIR", DefaultLogDir), "Directory for per-script log files.")
	fs.BoolVar(&cfg.Verbose, "v", false, "Mirror log records to stderr.")
	fs.StringVar(&cfg.MetricsBackend, "metrics-backend", envOrDefault("ETL_METRICS_BACKEND", "none"), "Metrics backend: none, prom or datadog.")
	fs.StringVar(&cfg.PushgatewayURL, "pushgateway-url", getenv("PUSHGATEWAY_URL"), "Prometheus Pushgateway URL (prom backend).")
	fs.StringVar(&cfg.DatadogAddr, "datadog-addr", envOrDefault("DD_AGENT_ADDR", DefaultDatadogAddr), "DogStatsD address (datadog backend).")

	fs.BoolVar(&cfg.ValidateOnly, "validate", false, "Validate configuration, print issues and exit.")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads path with godotenv. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// Storage returns the backend selection and connection settings for
// storage.New.
func (c *Config) Storage() storage.Config {
	return storage.Config{
		Kind: StorageKind(c.Driver),
		DSN:  c.DSN,
		Conn: storage.ConnParams{
			Server:                 c.Server,
			Database:               c.Database,
			Username:               c.Username,
			Password:               c.Password,
			Encrypt:                c.Encrypt,
			TrustServerCertificate: c.TrustServerCertificate,
		},
	}
}

// StorageKind maps the DRIVER setting onto a storage kind. ODBC driver names
// such as "ODBC Driver 17 for SQL Server" select mssql; anything else goes
// through storage.NormalizeKind.
func StorageKind(driver string) string {
	if strings.Contains(strings.ToLower(driver), "sql server") {
		return "mssql"
	}
	return storage.NormalizeKind(driver)
}

// parseBool accepts 1/true/yes/on and 0/false/no/off, case-insensitive.
// Anything else yields d.
func parseBool(v string, d bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}
