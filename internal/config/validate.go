package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a setting that works but deserves attention.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path names the offending setting by its flag name (e.g. "driver",
// "chunk-size"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// knownDrivers lists the storage kinds the commands can open.
var knownDrivers = map[string]struct{}{
	"mssql":    {},
	"postgres": {},
	"sqlite":   {},
}

// Validate performs static checks on cfg. It does not mutate cfg; callers
// decide whether warnings are fatal.
func Validate(cfg *Config) []Issue {
	var issues []Issue

	kind := StorageKind(cfg.Driver)
	if kind == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "driver",
			Message:  "driver must not be empty",
		})
	} else if _, ok := knownDrivers[kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "driver",
			Message:  fmt.Sprintf("unknown driver %q; want mssql, postgres or sqlite", cfg.Driver),
		})
	}

	if strings.TrimSpace(cfg.DSN) == "" {
		if strings.TrimSpace(cfg.Database) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "database",
				Message:  "database must not be empty when no dsn is given",
			})
		}
		if kind != "sqlite" {
			issues = append(issues, connIssues(cfg)...)
		}
	}

	if cfg.ChunkSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "chunk-size",
			Message:  fmt.Sprintf("chunk-size=%d; must be positive", cfg.ChunkSize),
		})
	}

	switch strings.ToLower(strings.TrimSpace(cfg.MetricsBackend)) {
	case "", "none", "datadog", "dogstatsd":
	case "prom", "prometheus", "pushgateway":
		if strings.TrimSpace(cfg.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "pushgateway-url",
				Message:  "prom metrics backend requires pushgateway-url",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics-backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; want none, prom or datadog", cfg.MetricsBackend),
		})
	}

	return issues
}

// connIssues checks the discrete network connection settings.
func connIssues(cfg *Config) []Issue {
	var issues []Issue
	if strings.TrimSpace(cfg.Server) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "server",
			Message:  "server must not be empty when no dsn is given",
		})
	}
	if !cfg.Encrypt {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "encrypt",
			Message:  "connection encryption is disabled; credentials and data travel in clear text",
		})
	}
	if cfg.Encrypt && cfg.TrustServerCertificate {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "trust-server-certificate",
			Message:  "server certificate is not validated",
		})
	}
	if (cfg.Username == "") != (cfg.Password == "") {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "username",
			Message:  "only one of username/password is set; integrated authentication is used",
		})
	}
	return issues
}

// HasErrors reports whether issues contains at least one SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}
