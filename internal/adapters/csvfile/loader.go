package csvfile

// loader.go: lee la tabla precio+z-score que genera el paso de análisis del par.
//
// Formato esperado (el mismo que produce el screener de cointegración):
//
//	,BTCUSDT,ETHUSDT,Zscore
//	0,27010.5,1650.2,
//	1,27015.0,1651.0,0.83
//
// La columna índice (sin nombre, "index", "time", "timestamp"...) se ignora. Las dos primeras
// columnas con nombre que no son el z-score son los precios; sus cabeceras
// dan los símbolos. Celdas vacías o "nan" se cargan como NaN.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/alejandrodnm/statarb/internal/domain"
)

var (
	zscoreHeaders = []string{"zscore", "z_score", "z-score"}
	indexHeaders  = []string{"", "index", "time", "timestamp", "date", "datetime"}
)

// Loader implementa ports.SeriesLoader sobre un archivo CSV.
type Loader struct {
	path string
}

// NewLoader crea un Loader para el archivo dado.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// LoadSeries abre el archivo y parsea la serie.
func (l *Loader) LoadSeries(ctx context.Context) (domain.Series, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return domain.Series{}, fmt.Errorf("csvfile.LoadSeries: open %q: %w", l.path, err)
	}
	defer f.Close()

	s, err := ReadSeries(ctx, f)
	if err != nil {
		return domain.Series{}, fmt.Errorf("csvfile.LoadSeries: %q: %w", l.path, err)
	}
	s.Source = l.path
	return s, nil
}

// ReadSeries parses a price+z-score table from r.
func ReadSeries(ctx context.Context, r io.Reader) (domain.Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.Series{}, errors.New("empty file")
	}
	if err != nil {
		return domain.Series{}, fmt.Errorf("read header: %w", err)
	}

	cols, err := locateColumns(header)
	if err != nil {
		return domain.Series{}, err
	}

	s := domain.Series{
		Symbol1: strings.TrimSpace(header[cols.price1]),
		Symbol2: strings.TrimSpace(header[cols.price2]),
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return domain.Series{}, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Series{}, fmt.Errorf("line %d: %w", line, err)
		}

		p := domain.PricePoint{Index: len(s.Points)}
		if p.Price1, err = parseCell(rec, cols.price1); err != nil {
			return domain.Series{}, fmt.Errorf("line %d: %s: %w", line, s.Symbol1, err)
		}
		if p.Price2, err = parseCell(rec, cols.price2); err != nil {
			return domain.Series{}, fmt.Errorf("line %d: %s: %w", line, s.Symbol2, err)
		}
		if p.ZScore, err = parseCell(rec, cols.zscore); err != nil {
			return domain.Series{}, fmt.Errorf("line %d: zscore: %w", line, err)
		}
		s.Points = append(s.Points, p)
	}

	return s, nil
}

type columns struct {
	price1, price2, zscore int
}

func locateColumns(header []string) (columns, error) {
	c := columns{price1: -1, price2: -1, zscore: -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case oneOf(name, indexHeaders):
			continue
		case oneOf(name, zscoreHeaders):
			if c.zscore < 0 {
				c.zscore = i
			}
		case c.price1 < 0:
			c.price1 = i
		case c.price2 < 0:
			c.price2 = i
		}
	}
	if c.zscore < 0 {
		return c, fmt.Errorf("no zscore column in header %v", header)
	}
	if c.price2 < 0 {
		return c, fmt.Errorf("need two price columns, header %v", header)
	}
	return c, nil
}

func oneOf(name string, set []string) bool {
	for _, z := range set {
		if name == z {
			return true
		}
	}
	return false
}

// parseCell devuelve NaN para celdas ausentes o vacías.
func parseCell(rec []string, i int) (float64, error) {
	if i >= len(rec) {
		return math.NaN(), nil
	}
	v := strings.TrimSpace(rec[i])
	if v == "" || strings.EqualFold(v, "nan") || strings.EqualFold(v, "null") {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", v, err)
	}
	return f, nil
}
