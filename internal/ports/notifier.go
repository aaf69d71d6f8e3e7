package ports

import (
	"context"

	"github.com/alejandrodnm/statarb/internal/domain"
)

// Notifier presenta el resultado de un backtest al usuario.
type Notifier interface {
	// Notify muestra capital final, profit por instrumento y el mejor threshold.
	// En la implementación de consola, imprime tablas formateadas.
	Notify(ctx context.Context, report domain.Report) error
}
