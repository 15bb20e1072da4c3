package mssql

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// BuildDSN returns cfg.DSN when set, otherwise a sqlserver:// URL built from
// the discrete fields.
//
// Unless both username and password are set the URL carries no credentials
// and the driver falls back to integrated (trusted) authentication. Encryption and certificate
// validation follow cfg.Encrypt and cfg.TrustServerCertificate verbatim.
func BuildDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	server := strings.TrimSpace(cfg.Server)
	if server == "" {
		return "", fmt.Errorf("mssql: server is required when no DSN is given")
	}

	u := &url.URL{Scheme: "sqlserver"}
	// host\instance selects a named instance.
	host, instance, _ := strings.Cut(server, `\`)
	u.Host = host
	if instance != "" {
		u.Path = "/" + instance
	}
	if cfg.Username != "" && cfg.Password != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}

	q := url.Values{}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	if cfg.Encrypt {
		q.Set("encrypt", "true")
	} else {
		q.Set("encrypt", "disable")
	}
	q.Set("TrustServerCertificate", strconv.FormatBool(cfg.TrustServerCertificate))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
