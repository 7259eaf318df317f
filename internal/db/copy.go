package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultBatchSize = 50000

// Copier is implemented by both Pool and pgx.Tx.
type Copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// CopyBatches bulk-inserts rows into table using the COPY protocol in
// chunks of batchSize rows (0 = 50,000).
func CopyBatches(ctx context.Context, c Copier, table pgx.Identifier, columns []string, rows [][]any, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	name := strings.Join(table, ".")
	log := zap.L().With(
		zap.String("component", "db.copy"),
		zap.String("table", name),
		zap.Int("total_rows", len(rows)),
	)

	var total int64
	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))

		n, err := c.CopyFrom(ctx, table, columns, pgx.CopyFromRows(rows[i:end]))
		if err != nil {
			return total, eris.Wrapf(err, "db: COPY INTO %s (batch %d-%d)", name, i, end)
		}
		total += n

		log.Debug("batch loaded",
			zap.Int("batch_start", i),
			zap.Int("batch_end", end),
			zap.Int64("batch_rows", n),
		)
	}

	return total, nil
}

// ReplaceConfig describes a full table replacement.
type ReplaceConfig struct {
	Schema    string
	Table     string
	Columns   []string
	BatchSize int
}

// Identifier returns the schema-qualified table identifier.
func (c ReplaceConfig) Identifier() pgx.Identifier {
	if c.Schema == "" {
		return pgx.Identifier{c.Table}
	}
	return pgx.Identifier{c.Schema, c.Table}
}

// ReplaceAll swaps the contents of a table inside one transaction:
// TRUNCATE, then COPY the new rows. Readers never see a partial table.
func ReplaceAll(ctx context.Context, pool Pool, cfg ReplaceConfig, rows [][]any) (int64, error) {
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: replace: no columns specified")
	}
	ident := cfg.Identifier()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: replace: begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE %s", ident.Sanitize())); err != nil {
		return 0, eris.Wrapf(err, "db: replace: truncate %s", strings.Join(ident, "."))
	}

	n, err := CopyBatches(ctx, tx, ident, cfg.Columns, rows, cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: replace: commit tx")
	}
	return n, nil
}
