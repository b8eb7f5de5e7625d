// internal/service/backup/pgdump.go
package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// PgDumper shells out to pg_dump for a schema+data dump without ownership or
// privilege statements
type PgDumper struct {
	binary      string
	databaseURL string
	database    string
}

func NewPgDumper(binary, databaseURL string) *PgDumper {
	if binary == "" {
		binary = "pg_dump"
	}

	database := "database"
	if cfg, err := pgconn.ParseConfig(databaseURL); err == nil && cfg.Database != "" {
		database = cfg.Database
	}

	return &PgDumper{
		binary:      binary,
		databaseURL: databaseURL,
		database:    database,
	}
}

// Database is the dumped database's name, used in the archive entry name
func (d *PgDumper) Database() string {
	return d.database
}

func (d *PgDumper) Dump(ctx context.Context, w io.Writer) error {
	cmd := exec.CommandContext(ctx, d.binary,
		"--no-owner",
		"--no-privileges",
		"--dbname", d.databaseURL,
	)

	var stderr bytes.Buffer
	cmd.Stdout = w
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("pg_dump failed: %w", err)
		}
		return fmt.Errorf("pg_dump failed: %w: %s", err, msg)
	}
	return nil
}
