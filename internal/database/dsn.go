package database

import (
	"fmt"
	"net/url"
	"strings"
)

// withColumnEncryption sets columnencryption=true on a sqlserver:// URL or an
// ADO style key=value connection string.
func withColumnEncryption(dsn string) (string, error) {
	if strings.HasPrefix(dsn, DriverSQLServer+"://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("failed to parse connection string: %w", err)
		}
		q := u.Query()
		q.Set("columnencryption", "true")
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	parts := strings.Split(dsn, ";")
	out := make([]string, 0, len(parts)+1)
	for _, part := range parts {
		key, _, _ := strings.Cut(part, "=")
		if strings.EqualFold(strings.TrimSpace(key), "columnencryption") || strings.TrimSpace(part) == "" {
			continue
		}
		out = append(out, part)
	}
	out = append(out, "columnencryption=true")
	return strings.Join(out, ";"), nil
}
