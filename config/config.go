package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jgarciad/arbscan/internal/domain"
)

// Config es la configuración completa del scanner de arbitraje.
// Se lee una vez al arranque y es de solo lectura durante los ciclos.
type Config struct {
	Scanner ScannerConfig `yaml:"scanner"`
	Risk    RiskConfig    `yaml:"risk"`
	Venues  []VenueConfig `yaml:"venues"`
	Pairs   []domain.Pair `yaml:"pairs"`
	Limits  LimitsConfig  `yaml:"limits"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ScannerConfig controla el ciclo de detección y los umbrales de profit.
type ScannerConfig struct {
	IntervalSeconds     int             `yaml:"interval_seconds"`
	CycleTimeoutSeconds int             `yaml:"cycle_timeout_seconds"`
	BaseAsset           string          `yaml:"base_asset"`           // inicio de ciclos triangulares
	TradeSize           decimal.Decimal `yaml:"trade_size"`           // qty base para cross-venue
	MaxPositionSize     decimal.Decimal `yaml:"max_position_size"`    // capital máximo por oportunidad
	MinProfitThreshold  decimal.Decimal `yaml:"min_profit_threshold"` // fracción: 0.005 = 0.5%
	CrossMinProfit      decimal.Decimal `yaml:"cross_min_profit"`     // absoluto en quote
}

// RiskConfig controla el scoring y el umbral de rechazo.
type RiskConfig struct {
	Weights         domain.RiskWeights `yaml:"weights"`
	RejectThreshold float64            `yaml:"reject_threshold"`
}

// VenueConfig describe un venue habilitado y sus fees por defecto.
type VenueConfig struct {
	Name     string          `yaml:"name"`
	BaseURL  string          `yaml:"base_url"`
	Enabled  bool            `yaml:"enabled"`
	TakerFee decimal.Decimal `yaml:"taker_fee"`
	MakerFee decimal.Decimal `yaml:"maker_fee"`
}

// LimitsConfig controla la política de resiliencia por venue.
type LimitsConfig struct {
	RateLimitMS                int `yaml:"rate_limit_ms"`
	RequestTimeoutSeconds      int `yaml:"request_timeout_seconds"`
	MaxRetries                 int `yaml:"max_retries"`
	CircuitBreakerThreshold    int `yaml:"circuit_breaker_threshold"`
	CircuitBreakerResetMinutes int `yaml:"circuit_breaker_reset_minutes"`
	PriceStalenessSeconds      int `yaml:"price_staleness_seconds"`
}

// StorageConfig controla el histórico de oportunidades.
type StorageConfig struct {
	DSN         string `yaml:"dsn"`          // ruta SQLite, o ":memory:"
	HistoryDays int    `yaml:"history_days"` // ventana de retención
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el .env si existe.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate comprueba que los valores cargados sean coherentes.
func (c *Config) Validate() error {
	if c.Scanner.MinProfitThreshold.IsNegative() {
		return fmt.Errorf("min_profit_threshold no puede ser negativo")
	}
	if !c.Scanner.MaxPositionSize.IsPositive() {
		return fmt.Errorf("max_position_size debe ser positivo")
	}
	if !c.Scanner.TradeSize.IsPositive() {
		return fmt.Errorf("trade_size debe ser positivo")
	}
	if len(c.Pairs) == 0 {
		return fmt.Errorf("pairs no puede estar vacío")
	}
	for i, p := range c.Pairs {
		if p.Symbol == "" || p.Base == "" || p.Quote == "" {
			return fmt.Errorf("pair %d incompleto: symbol/base/quote requeridos", i)
		}
	}
	if len(c.EnabledVenues()) == 0 {
		return fmt.Errorf("al menos un venue debe estar habilitado")
	}
	if c.Limits.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds debe ser mayor que 0")
	}
	if c.Limits.CircuitBreakerThreshold <= 0 {
		return fmt.Errorf("circuit_breaker_threshold debe ser mayor que 0")
	}
	return nil
}

// EnabledVenues devuelve los venues habilitados.
func (c *Config) EnabledVenues() []VenueConfig {
	out := make([]VenueConfig, 0, len(c.Venues))
	for _, v := range c.Venues {
		if v.Enabled {
			out = append(out, v)
		}
	}
	return out
}

// Fees devuelve las comisiones por venue habilitado.
func (c *Config) Fees() map[string]domain.Fees {
	out := make(map[string]domain.Fees)
	for _, v := range c.EnabledVenues() {
		out[v.Name] = domain.Fees{Maker: v.MakerFee, Taker: v.TakerFee}
	}
	return out
}

// ScanInterval devuelve el intervalo entre ciclos como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scanner.IntervalSeconds) * time.Second
}

// CycleTimeout devuelve el límite global del ciclo.
func (c *Config) CycleTimeout() time.Duration {
	return time.Duration(c.Scanner.CycleTimeoutSeconds) * time.Second
}

// Staleness devuelve la edad máxima de un snapshot utilizable.
func (c *Config) Staleness() time.Duration {
	return time.Duration(c.Limits.PriceStalenessSeconds) * time.Second
}

// RateLimit devuelve el intervalo mínimo entre requests por venue.
func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.Limits.RateLimitMS) * time.Millisecond
}

// RequestTimeout devuelve el timeout por llamada a gateway.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Limits.RequestTimeoutSeconds) * time.Second
}

// BreakerCooldown devuelve el tiempo en Open antes de probar HalfOpen.
func (c *Config) BreakerCooldown() time.Duration {
	return time.Duration(c.Limits.CircuitBreakerResetMinutes) * time.Minute
}

// HistoryRetention devuelve la ventana de retención del histórico.
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.Storage.HistoryDays) * 24 * time.Hour
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Scanner.IntervalSeconds <= 0 {
		cfg.Scanner.IntervalSeconds = 5
	}
	if cfg.Scanner.CycleTimeoutSeconds <= 0 {
		cfg.Scanner.CycleTimeoutSeconds = 30
	}
	if cfg.Scanner.BaseAsset == "" {
		cfg.Scanner.BaseAsset = "USDT"
	}
	if cfg.Scanner.TradeSize.IsZero() {
		cfg.Scanner.TradeSize = decimal.RequireFromString("0.1")
	}
	if cfg.Scanner.MaxPositionSize.IsZero() {
		cfg.Scanner.MaxPositionSize = decimal.NewFromInt(1000)
	}
	if cfg.Scanner.MinProfitThreshold.IsZero() {
		cfg.Scanner.MinProfitThreshold = decimal.RequireFromString("0.005")
	}
	if cfg.Risk.Weights == (domain.RiskWeights{}) {
		cfg.Risk.Weights = domain.DefaultRiskWeights()
	}
	if cfg.Risk.RejectThreshold <= 0 {
		cfg.Risk.RejectThreshold = 0.7
	}
	if len(cfg.Venues) == 0 {
		fee := decimal.RequireFromString("0.001") // 0.1% taker spot
		cfg.Venues = []VenueConfig{
			{Name: "binance", Enabled: true, TakerFee: fee, MakerFee: fee},
			{Name: "bybit", Enabled: true, TakerFee: fee, MakerFee: fee},
		}
	}
	if cfg.Limits.RateLimitMS <= 0 {
		cfg.Limits.RateLimitMS = 250
	}
	if cfg.Limits.RequestTimeoutSeconds <= 0 {
		cfg.Limits.RequestTimeoutSeconds = 10
	}
	if cfg.Limits.MaxRetries <= 0 {
		cfg.Limits.MaxRetries = 3
	}
	if cfg.Limits.CircuitBreakerThreshold <= 0 {
		cfg.Limits.CircuitBreakerThreshold = 5
	}
	if cfg.Limits.CircuitBreakerResetMinutes <= 0 {
		cfg.Limits.CircuitBreakerResetMinutes = 5
	}
	if cfg.Limits.PriceStalenessSeconds <= 0 {
		cfg.Limits.PriceStalenessSeconds = 30
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "arbscan.db"
	}
	if cfg.Storage.HistoryDays <= 0 {
		cfg.Storage.HistoryDays = 7
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
