package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/scry-tutor/internal/platform/sqlstore"
)

// Migration commands accepted by --migrate
const (
	migrateUp     = "up"
	migrateStatus = "status"
)

// handleMigrations runs a migration command and returns without starting
// the server. status writes one line per migration to out.
func handleMigrations(ctx context.Context, db *sqlstore.DB, command string, out io.Writer) error {
	switch command {
	case migrateUp:
		slog.Info("Executing migrations", "command", command)
		return db.Migrate(ctx)

	case migrateStatus:
		status, err := db.MigrationStatus(ctx)
		if err != nil {
			return err
		}
		for _, s := range status {
			applied := "pending"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			if _, err := fmt.Fprintf(out, "%05d  %-8s  %s  %s\n",
				s.Source.Version, s.State, applied, s.Source.Path); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown migration command %q (want %q or %q)", command, migrateUp, migrateStatus)
	}
}
