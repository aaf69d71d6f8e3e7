package ports

import (
	"context"

	"github.com/alejandrodnm/statarb/internal/domain"
)

// Storage persiste el resultado de cada backtest.
type Storage interface {
	// SaveRun persiste el resumen del run y, si lo hay, el barrido de thresholds.
	SaveRun(ctx context.Context, report domain.Report) error

	// ListRuns devuelve los últimos `limit` runs, el más reciente primero.
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)

	// GetSweep devuelve los resultados del barrido de un run en orden de enumeración.
	GetSweep(ctx context.Context, runID string) ([]domain.ThresholdResult, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
