package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alejandrodnm/statarb/internal/domain"
)

// Writer implementa ports.TableWriter: exporta la tabla simulada como CSV para
// plotting externo.
type Writer struct {
	path string
}

// NewWriter crea un Writer que escribe en path (se sobreescribe en cada run).
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// WriteSimulation escribe una fila por paso con todas las columnas del pipeline.
func (w *Writer) WriteSimulation(_ context.Context, symbol1, symbol2 string, sim domain.Simulation) error {
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("csvfile.WriteSimulation: mkdir %q: %w", dir, err)
		}
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("csvfile.WriteSimulation: create %q: %w", w.path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header(symbol1, symbol2)); err != nil {
		return fmt.Errorf("csvfile.WriteSimulation: header: %w", err)
	}
	for _, r := range sim.Rows {
		if err := cw.Write(record(r)); err != nil {
			return fmt.Errorf("csvfile.WriteSimulation: row %d: %w", r.Index, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csvfile.WriteSimulation: flush: %w", err)
	}
	return f.Close()
}

func header(symbol1, symbol2 string) []string {
	if symbol1 == "" {
		symbol1 = "sym1"
	}
	if symbol2 == "" {
		symbol2 = "sym2"
	}
	return []string{
		"", symbol1, symbol2, "Zscore", "ZscoreSwapped",
		"NextPrice_sym1", "NextPrice_sym2", "Trigger", "NextClose",
		"LongAt_sym1", "ShortAt_sym1", "LongAt_sym2", "ShortAt_sym2", "LongCoin",
		"Capital", "profit_sym1", "profit_sym2",
	}
}

func record(r domain.SimulatedRow) []string {
	longCoin := ""
	if r.HasOrder {
		longCoin = strconv.Itoa(int(r.LongCoin))
	}
	return []string{
		strconv.Itoa(r.Index),
		ftoa(r.Price1),
		ftoa(r.Price2),
		ftoa(r.ZScore),
		strconv.FormatBool(r.SignFlip),
		ftoa(r.NextPrice1),
		ftoa(r.NextPrice2),
		strconv.FormatBool(r.Trigger),
		strconv.Itoa(r.CloseIndex),
		ftoa(r.LongAt1),
		ftoa(r.ShortAt1),
		ftoa(r.LongAt2),
		ftoa(r.ShortAt2),
		longCoin,
		ftoa(r.Capital),
		ftoa(r.Profit1),
		ftoa(r.Profit2),
	}
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
