package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/statarb/internal/domain"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

const maxMarkers = 12

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el reporte en el modo configurado.
func (c *Console) Notify(_ context.Context, r domain.Report) error {
	if c.table {
		return c.printFull(r)
	}
	c.printCompact(r)
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(r domain.Report) {
	sim := r.Simulation
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s th=%.2f cfg=%d trades=%d capital=%s%% (%s %s%% %s %s%%)",
		time.Now().Format("15:04:05"),
		pairLabel(r), sim.Threshold, int(sim.LongConfig), sim.Trades,
		pct(r.CapitalPct()),
		symbol(r.Symbol1, "sym1"), pct(r.ProfitPct(domain.Instrument1)),
		symbol(r.Symbol2, "sym2"), pct(r.ProfitPct(domain.Instrument2)),
	)
	if th, ok := r.BestThreshold(); ok {
		fmt.Fprintf(&sb, " best=%s", thLabel(th))
	}
	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime resumen, barrido y marcadores.
func (c *Console) printFull(r domain.Report) error {
	sim := r.Simulation
	end := sim.Terminal()
	s1, s2 := symbol(r.Symbol1, "sym1"), symbol(r.Symbol2, "sym2")

	fmt.Fprintf(c.out, "\n=== BACKTEST %s | z-score threshold %s ===\n", pairLabel(r), thLabel(sim.Threshold))

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	table.Append("Rows", fmt.Sprintf("%d of %d (dropped %d missing, %d without exit)",
		len(sim.Rows), r.InputRows, r.DroppedMissing, r.DroppedTail))
	table.Append("Long on z>0", fmt.Sprintf("%s (config %d)", longOnPositive(sim.LongConfig, s1, s2), int(sim.LongConfig)))
	table.Append("Trades", fmt.Sprintf("%d", sim.Trades))
	table.Append("Capital "+s1, fmt.Sprintf("%s %%  ($%.2f)", pct(r.ProfitPct(domain.Instrument1)), end.Profit1))
	table.Append("Capital "+s2, fmt.Sprintf("%s %%  ($%.2f)", pct(r.ProfitPct(domain.Instrument2)), end.Profit2))
	table.Append("Total Capital", fmt.Sprintf("%s %%  ($%.2f)", pct(r.CapitalPct()), end.Capital))
	if th, ok := r.BestThreshold(); ok {
		table.Append("Best z-score threshold", thLabel(th))
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("notify.Notify: render summary: %w", err)
	}

	if r.Sweep != nil {
		if err := c.printSweep(*r.Sweep, sim.BaseCapital); err != nil {
			return err
		}
	}

	c.printMarkers(r.Chart, s1, s2)
	fmt.Fprintln(c.out)
	return nil
}

// printSweep imprime un candidato por fila, marcando el ganador.
func (c *Console) printSweep(sw domain.SweepResult, base float64) error {
	fmt.Fprintf(c.out, "\n  Threshold sweep (long config %d)\n", int(sw.LongConfig))

	table := tablewriter.NewWriter(c.out)
	table.Header("Threshold", "Capital", "Return", "Trades", "")
	for i, tr := range sw.Results {
		mark := ""
		if i == sw.BestIndex {
			mark = "*"
		}
		ret := 0.0
		if base != 0 {
			ret = tr.Capital/base*100 - 100
		}
		table.Append(
			thLabel(tr.Threshold),
			fmt.Sprintf("$%.2f", tr.Capital),
			fmt.Sprintf("%s%%", pct(ret)),
			fmt.Sprintf("%d", tr.Trades),
			mark,
		)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("notify.Notify: render sweep: %w", err)
	}
	return nil
}

// printMarkers lista los índices de apertura y cierre que dibujaría el chart.
func (c *Console) printMarkers(ch domain.Chart, s1, s2 string) {
	if len(ch.Close) == 0 {
		fmt.Fprintln(c.out, "\n  No trades at this threshold.")
		return
	}
	fmt.Fprintln(c.out, "\n  Markers (row index):")
	fmt.Fprintf(c.out, "    long  %-10s %s\n", s1, indexList(ch.Long1))
	fmt.Fprintf(c.out, "    short %-10s %s\n", s1, indexList(ch.Short1))
	fmt.Fprintf(c.out, "    long  %-10s %s\n", s2, indexList(ch.Long2))
	fmt.Fprintf(c.out, "    short %-10s %s\n", s2, indexList(ch.Short2))
	fmt.Fprintf(c.out, "    close %-10s %s\n", "", indexList(ch.Close))
}

// PrintHistory imprime los runs guardados.
func (c *Console) PrintHistory(runs []domain.RunSummary) error {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "No backtests stored yet.")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Run", "When", "Pair", "Th", "Cfg", "Trades", "Capital", "Best th")
	for _, r := range runs {
		best := "-"
		if r.BestThreshold != nil {
			best = thLabel(*r.BestThreshold)
		}
		table.Append(
			shortID(r.RunID),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			symbol(r.Symbol1, "sym1")+"/"+symbol(r.Symbol2, "sym2"),
			thLabel(r.Threshold),
			fmt.Sprintf("%d", int(r.LongConfig)),
			fmt.Sprintf("%d", r.Trades),
			fmt.Sprintf("$%.2f", r.Capital),
			best,
		)
	}
	return table.Render()
}

// PrintStoredSweep imprime el barrido guardado de un run.
func (c *Console) PrintStoredSweep(run domain.RunSummary, results []domain.ThresholdResult) error {
	if len(results) == 0 {
		fmt.Fprintf(c.out, "\n  Run %s has no stored sweep.\n", shortID(run.RunID))
		return nil
	}
	sw := domain.SweepResult{
		LongConfig: run.LongConfig,
		Results:    results,
		BestIndex:  domain.BestIndex(results),
	}
	sw.Best = results[sw.BestIndex]
	fmt.Fprintf(c.out, "\n  Run %s %s/%s\n", shortID(run.RunID), symbol(run.Symbol1, "sym1"), symbol(run.Symbol2, "sym2"))
	return c.printSweep(sw, run.BaseCapital)
}

// --- helpers ---

// pct redondea a un decimal ("104.3").
func pct(v float64) string {
	if !finite(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(1)
}

// thLabel imprime al menos un decimal: 1 → "1.0", 1.25 → "1.25".
func thLabel(th float64) string {
	if !finite(th) {
		return strconv.FormatFloat(th, 'f', -1, 64)
	}
	d := decimal.NewFromFloat(th)
	return d.StringFixed(max(1, -d.Exponent()))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func pairLabel(r domain.Report) string {
	return symbol(r.Symbol1, "sym1") + "/" + symbol(r.Symbol2, "sym2")
}

func symbol(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func longOnPositive(cfg domain.LongConfig, s1, s2 string) string {
	if cfg == domain.LongConfig1 {
		return s2
	}
	return s1
}

func indexList(idx []int) string {
	if len(idx) == 0 {
		return "-"
	}
	parts := make([]string, 0, min(len(idx), maxMarkers))
	for i, v := range idx {
		if i == maxMarkers {
			break
		}
		parts = append(parts, fmt.Sprintf("%d", v))
	}
	s := strings.Join(parts, " ")
	if len(idx) > maxMarkers {
		s += fmt.Sprintf(" ... (+%d)", len(idx)-maxMarkers)
	}
	return s
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
