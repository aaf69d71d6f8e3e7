package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del backtester.
type Config struct {
	Backtest BacktestConfig `yaml:"backtest"`
	Storage  StorageConfig  `yaml:"storage"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
}

// BacktestConfig controla el pipeline.
type BacktestConfig struct {
	DataPath    string      `yaml:"data_path"`    // CSV precio+z-score del par
	Threshold   float64     `yaml:"threshold"`    // threshold de z-score para abrir posición
	FindBest    *bool       `yaml:"find_best"`    // nil = true
	BaseCapital float64     `yaml:"base_capital"` // capital nocional inicial
	Sweep       SweepConfig `yaml:"sweep"`
}

// SweepConfig define los candidatos del barrido: una lista explícita o un rango.
// Si Thresholds no está vacío, Min/Max/Step se ignoran.
type SweepConfig struct {
	Thresholds []float64 `yaml:"thresholds"`
	Min        float64   `yaml:"min"`
	Max        float64   `yaml:"max"`
	Step       float64   `yaml:"step"`
	Workers    int       `yaml:"workers"` // 0 = runtime.NumCPU()
}

// StorageConfig controla dónde se persiste el historial de runs.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// OutputConfig controla la exportación de la tabla simulada.
type OutputConfig struct {
	CSVPath string `yaml:"csv_path"` // vacío = no exportar
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
// Un path vacío arranca de los defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// FindBest reports whether the threshold sweep is enabled.
func (c *Config) FindBest() bool {
	return c.Backtest.FindBest == nil || *c.Backtest.FindBest
}

// Validate rechaza valores que el pipeline trataría como error del caller.
func (c *Config) Validate() error {
	b := c.Backtest
	if !positive(b.Threshold) {
		return fmt.Errorf("backtest.threshold must be finite and > 0, got %v", b.Threshold)
	}
	if !positive(b.BaseCapital) {
		return fmt.Errorf("backtest.base_capital must be finite and > 0, got %v", b.BaseCapital)
	}
	if len(b.Sweep.Thresholds) > 0 {
		for _, th := range b.Sweep.Thresholds {
			if !positive(th) {
				return fmt.Errorf("backtest.sweep.thresholds: %v must be finite and > 0", th)
			}
		}
		return nil
	}
	if !positive(b.Sweep.Min) || !positive(b.Sweep.Max) || !positive(b.Sweep.Step) {
		return errors.New("backtest.sweep: min, max and step must be finite and > 0")
	}
	if b.Sweep.Max < b.Sweep.Min {
		return fmt.Errorf("backtest.sweep: max %v < min %v", b.Sweep.Max, b.Sweep.Min)
	}
	return nil
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0)
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BACKTEST_DATA_PATH"); v != "" {
		cfg.Backtest.DataPath = v
	}
	if v := os.Getenv("BACKTEST_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("BACKTEST_THRESHOLD"); v != "" {
		th, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BACKTEST_THRESHOLD: %w", err)
		}
		cfg.Backtest.Threshold = th
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Backtest.DataPath == "" {
		cfg.Backtest.DataPath = "3_backtest_file.csv"
	}
	if cfg.Backtest.Threshold == 0 {
		cfg.Backtest.Threshold = 1.1
	}
	if cfg.Backtest.BaseCapital == 0 {
		cfg.Backtest.BaseCapital = 1000
	}
	if len(cfg.Backtest.Sweep.Thresholds) == 0 {
		if cfg.Backtest.Sweep.Min == 0 {
			cfg.Backtest.Sweep.Min = 1.0
		}
		if cfg.Backtest.Sweep.Max == 0 {
			cfg.Backtest.Sweep.Max = 1.9
		}
		if cfg.Backtest.Sweep.Step == 0 {
			cfg.Backtest.Sweep.Step = 0.1
		}
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "backtests.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
