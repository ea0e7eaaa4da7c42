package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/growloop/growloop/pkg/persistence"
	"github.com/growloop/growloop/pkg/persistence/file"
	"github.com/growloop/growloop/pkg/persistence/postgresql"
)

// NewPersistence picks the storage backend from the database URL scheme:
// postgres:// gets the SQL store, anything else is a file-store root.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to initialize postgresql persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
