package ports

import (
	"context"

	"github.com/alejandrodnm/statarb/internal/domain"
)

// SeriesLoader obtiene la tabla precio+z-score de un par ya sincronizada.
type SeriesLoader interface {
	// LoadSeries devuelve las filas en orden temporal. Las celdas vacías o NaN
	// se devuelven como NaN; descartarlas es responsabilidad del core.
	LoadSeries(ctx context.Context) (domain.Series, error)
}

// TableWriter exporta la tabla simulada para herramientas externas de plotting.
type TableWriter interface {
	WriteSimulation(ctx context.Context, symbol1, symbol2 string, sim domain.Simulation) error
}
