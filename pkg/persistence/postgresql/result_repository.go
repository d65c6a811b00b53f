package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelflow/modelflow/pkg/models"
	"github.com/modelflow/modelflow/pkg/persistence"
)

// ResultRepository handles orchestration result database operations.
type ResultRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewResultRepository(db *sql.DB, logger *slog.Logger) *ResultRepository {
	return &ResultRepository{db: db, logger: logger}
}

// Append inserts the results in one transaction.
func (r *ResultRepository) Append(ctx context.Context, orchestrationID string, results []models.ExecutionResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `
		INSERT INTO orchestration_results (
			orchestration_id, action_id, success, output, duration_ns, error, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, result := range results {
		var output []byte

		if result.Output != nil {
			output, err = json.Marshal(result.Output)
			if err != nil {
				_ = tx.Rollback()

				return fmt.Errorf("failed to encode result output: %w", err)
			}
		}

		executedAt := result.Timestamp
		if executedAt.IsZero() {
			executedAt = time.Now().UTC()
		}

		_, err = tx.ExecContext(ctx, query,
			orchestrationID, result.ActionID, result.Success,
			output, int64(result.Duration), result.Error, executedAt,
		)
		if err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("failed to insert result for action %s: %w", result.ActionID, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}

	return nil
}

// ByOrchestration returns the orchestration's results in insertion order.
func (r *ResultRepository) ByOrchestration(ctx context.Context, orchestrationID string) ([]models.ExecutionResult, error) {
	query := `
		SELECT action_id, success, output, duration_ns, error, executed_at
		FROM orchestration_results
		WHERE orchestration_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orchestrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}

	defer func() {
		closeErr := rows.Close()
		if closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	results := make([]models.ExecutionResult, 0)

	for rows.Next() {
		var (
			result     models.ExecutionResult
			output     []byte
			durationNS int64
		)

		err = rows.Scan(&result.ActionID, &result.Success, &output, &durationNS, &result.Error, &result.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}

		result.Duration = time.Duration(durationNS)

		if len(output) > 0 {
			err = json.Unmarshal(output, &result.Output)
			if err != nil {
				return nil, fmt.Errorf("failed to decode result output: %w", err)
			}
		}

		results = append(results, result)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("orchestration %s: %w", orchestrationID, persistence.ErrResultsNotFound)
	}

	return results, nil
}
