package storage

// sqlite.go: historial de backtests.
//
// Estrategia:
//   - `runs`: una fila por backtest con el resumen (capital final, profits,
//     long config ganador, mejor threshold si hubo barrido).
//   - `threshold_results`: una fila por candidato del barrido, con su posición
//     en el orden de enumeración para poder reconstruirlo tal cual.
//   - Prune automático al arrancar: runs > 180d (en cascada sus thresholds).

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/statarb/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS runs (
    id             TEXT PRIMARY KEY,
    created_at     TEXT    NOT NULL,
    source         TEXT,
    symbol1        TEXT,
    symbol2        TEXT,
    threshold      REAL    NOT NULL,
    long_config    INTEGER NOT NULL,
    base_capital   REAL    NOT NULL,
    input_rows     INTEGER NOT NULL DEFAULT 0,
    row_count      INTEGER NOT NULL DEFAULT 0,
    trades         INTEGER NOT NULL DEFAULT 0,
    capital        REAL    NOT NULL,
    profit1        REAL    NOT NULL,
    profit2        REAL    NOT NULL,
    best_threshold REAL
);

-- Un candidato por fila; position conserva el orden del barrido
CREATE TABLE IF NOT EXISTS threshold_results (
    run_id    TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position  INTEGER NOT NULL,
    threshold REAL    NOT NULL,
    capital   REAL    NOT NULL,
    trades    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`

const (
	retentionRuns = 180 * 24 * time.Hour
	// layout de ancho fijo: el orden lexicográfico coincide con el temporal
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada, aplica el
// schema y limpia runs antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer; además :memory: es por conexión
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveRun persiste el run y su barrido en una sola transacción.
func (s *SQLiteStorage) SaveRun(ctx context.Context, r domain.Report) error {
	sim := r.Simulation
	end := sim.Terminal()

	var best sql.NullFloat64
	if th, ok := r.BestThreshold(); ok {
		best = sql.NullFloat64{Float64: th, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(id, created_at, source, symbol1, symbol2, threshold, long_config,
			 base_capital, input_rows, row_count, trades, capital, profit1, profit2,
			 best_threshold)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.CreatedAt.UTC().Format(timeLayout),
		r.Source,
		r.Symbol1,
		r.Symbol2,
		sim.Threshold,
		int(sim.LongConfig),
		sim.BaseCapital,
		r.InputRows,
		len(sim.Rows),
		sim.Trades,
		end.Capital,
		end.Profit1,
		end.Profit2,
		best,
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run %s: %w", r.RunID, err)
	}

	if r.Sweep != nil && len(r.Sweep.Results) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO threshold_results (run_id, position, threshold, capital, trades)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("storage.SaveRun: prepare: %w", err)
		}
		defer stmt.Close()

		for i, tr := range r.Sweep.Results {
			if _, err := stmt.ExecContext(ctx, r.RunID, i, tr.Threshold, tr.Capital, tr.Trades); err != nil {
				return fmt.Errorf("storage.SaveRun: insert threshold %v: %w", tr.Threshold, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// ListRuns devuelve los últimos `limit` runs, el más reciente primero.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, source, symbol1, symbol2, threshold, long_config,
		       row_count, trades, base_capital, capital, profit1, profit2, best_threshold
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunSummary
	for rows.Next() {
		var (
			r         domain.RunSummary
			createdAt string
			longCfg   int
			source    sql.NullString
			sym1      sql.NullString
			sym2      sql.NullString
			best      sql.NullFloat64
		)
		if err := rows.Scan(
			&r.RunID, &createdAt, &source, &sym1, &sym2, &r.Threshold, &longCfg,
			&r.Rows, &r.Trades, &r.BaseCapital, &r.Capital, &r.Profit1, &r.Profit2, &best,
		); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: scan row: %w", err)
		}
		r.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		r.Source, r.Symbol1, r.Symbol2 = source.String, sym1.String, sym2.String
		r.LongConfig = domain.LongConfig(longCfg)
		if best.Valid {
			v := best.Float64
			r.BestThreshold = &v
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetSweep devuelve el barrido de un run en orden de enumeración.
func (s *SQLiteStorage) GetSweep(ctx context.Context, runID string) ([]domain.ThresholdResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT threshold, capital, trades
		FROM threshold_results
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetSweep: query: %w", err)
	}
	defer rows.Close()

	var out []domain.ThresholdResult
	for rows.Next() {
		var tr domain.ThresholdResult
		if err := rows.Scan(&tr.Threshold, &tr.Capital, &tr.Trades); err != nil {
			return nil, fmt.Errorf("storage.GetSweep: scan row: %w", err)
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina runs antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns).Format(timeLayout)
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
}
