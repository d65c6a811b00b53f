package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/modelflow/modelflow/pkg/persistence"
	"github.com/modelflow/modelflow/pkg/persistence/file"
	"github.com/modelflow/modelflow/pkg/persistence/postgresql"
)

// NewPersistence creates a persistence layer from a database URL. The
// scheme selects the provider; anything without a known scheme is
// treated as a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to connect to PostgreSQL", "error", err)
			panic(err)
		}

		return p
	default:
		p, err := file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
		if err != nil {
			logger.ErrorContext(ctx, "Failed to initialize file persistence", "error", err)
			panic(err)
		}

		return p
	}
}
