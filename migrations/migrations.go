// Package migrations embeds the run history schema for each supported driver.
package migrations

import (
	"embed"
	"io/fs"

	"github.com/allisson/colkeys/internal/errors"
)

//go:embed postgresql/*.sql mysql/*.sql sqlserver/*.sql
var files embed.FS

// FS returns the migration files of driver, one of postgres, mysql or sqlserver.
func FS(driver string) (fs.FS, error) {
	var dir string
	switch driver {
	case "postgres":
		dir = "postgresql"
	case "mysql":
		dir = "mysql"
	case "sqlserver":
		dir = "sqlserver"
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unsupported history driver %q", driver)
	}
	return fs.Sub(files, dir)
}
