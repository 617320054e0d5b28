package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del daemon.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Simulator SimulatorConfig `yaml:"simulator"`
}

// EngineConfig controla los parámetros económicos del engine.
type EngineConfig struct {
	GracePeriodHours int     `yaml:"grace_period_hours"` // ResolutionTime = EndTime + gracia
	FeeRate          float64 `yaml:"fee_rate"`
	LiquidityRate    float64 `yaml:"liquidity_rate"`
	SweepSeconds     int     `yaml:"sweep_seconds"` // intervalo del barrido de mercados vencidos
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// TelegramConfig habilita los anuncios por Telegram si hay token.
type TelegramConfig struct {
	Token  string `yaml:"token"` // normalmente via TELEGRAM_TOKEN en .env
	ChatID int64  `yaml:"chat_id"`
}

// SimulatorConfig controla el generador de apuestas sintéticas.
type SimulatorConfig struct {
	BetsPerSecond float64 `yaml:"bets_per_second"`
	MaxBetAmount  float64 `yaml:"max_bet_amount"`
	Bettors       int     `yaml:"bettors"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Los valores del .env sobreescriben los del YAML.
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

	return &cfg, nil
}

// GracePeriod devuelve el periodo de gracia como time.Duration.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Engine.GracePeriodHours) * time.Hour
}

// SweepInterval devuelve el intervalo del barrido como time.Duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Engine.SweepSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están
// presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("MARKETD_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Engine.GracePeriodHours <= 0 {
		cfg.Engine.GracePeriodHours = 24
	}
	if cfg.Engine.FeeRate <= 0 {
		cfg.Engine.FeeRate = 0.02 // 2% por apuesta
	}
	if cfg.Engine.LiquidityRate <= 0 {
		cfg.Engine.LiquidityRate = 0.10 // 10% por apuesta
	}
	if cfg.Engine.SweepSeconds <= 0 {
		cfg.Engine.SweepSeconds = 60
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "marketd.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Simulator.BetsPerSecond <= 0 {
		cfg.Simulator.BetsPerSecond = 2
	}
	if cfg.Simulator.MaxBetAmount <= 0 {
		cfg.Simulator.MaxBetAmount = 250
	}
	if cfg.Simulator.Bettors <= 0 {
		cfg.Simulator.Bettors = 8
	}
}
