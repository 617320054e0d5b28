package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/marketd/config"
	"github.com/alejandrodnm/marketd/internal/adapters/ident"
	"github.com/alejandrodnm/marketd/internal/adapters/notify"
	"github.com/alejandrodnm/marketd/internal/adapters/storage"
	"github.com/alejandrodnm/marketd/internal/domain"
	"github.com/alejandrodnm/marketd/internal/engine"
	"github.com/alejandrodnm/marketd/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	seedPath := flag.String("seed", "", "seed markets from a YAML fixtures file and continue")
	simulate := flag.Bool("simulate", false, "generate synthetic betting flow against active markets")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("marketd starting",
		"config", *configPath,
		"dsn", cfg.Storage.DSN,
		"grace_period", cfg.GracePeriod(),
		"simulate", *simulate,
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	console := notify.NewConsole()
	notifier := ports.Notifier(console)
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			slog.Error("failed to init telegram notifier", "err", err)
			os.Exit(1)
		}
		notifier = notify.Multi{console, tg}
		slog.Info("telegram notifier enabled", "chat_id", cfg.Telegram.ChatID)
	}

	eng := engine.New(
		engine.Config{
			GracePeriod:   cfg.GracePeriod(),
			FeeRate:       cfg.Engine.FeeRate,
			LiquidityRate: cfg.Engine.LiquidityRate,
		},
		ident.SystemClock{},
		ident.UUID{},
		store,
		notifier,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := eng.Rehydrate(ctx); err != nil {
		slog.Error("failed to rehydrate engine", "err", err)
		os.Exit(1)
	}

	if *seedPath != "" {
		if err := seedMarkets(ctx, eng, *seedPath); err != nil {
			slog.Error("failed to seed markets", "err", err, "path", *seedPath)
			os.Exit(1)
		}
	}

	if *simulate {
		runSimulation(ctx, eng, cfg.Simulator)
	} else {
		runSweeper(ctx, eng, console, cfg.SweepInterval())
	}

	slog.Info("marketd stopped cleanly")
}

// seedMarkets crea los mercados de las fixtures que aún no existen (por
// título, para que reiniciar con -seed no duplique).
func seedMarkets(ctx context.Context, eng *engine.Engine, path string) error {
	seeds, err := config.LoadSeed(path)
	if err != nil {
		return err
	}

	existing := make(map[string]struct{})
	for _, m := range eng.Registry.ActiveMarkets() {
		existing[m.Title] = struct{}{}
	}

	now := time.Now().UTC()
	created := 0
	for _, s := range seeds {
		if _, ok := existing[s.Title]; ok {
			continue
		}
		id, err := eng.Registry.CreateMarket(ctx, domain.MarketDraft{
			Title:       s.Title,
			Description: s.Description,
			Category:    domain.Category(s.Category),
			OutcomeType: domain.OutcomeType(s.OutcomeType),
			Outcomes:    s.Outcomes,
			EndTime:     now.Add(time.Duration(s.EndsInHours * float64(time.Hour))),
			Creator:     s.Creator,
		})
		if err != nil {
			return err
		}
		slog.Debug("seeded market", "id", id, "title", s.Title)
		created++
	}

	slog.Info("seed complete", "created", created, "skipped", len(seeds)-created)
	return nil
}

// runSweeper imprime el resumen periódico y avisa de los mercados cuya
// hora de resolución ya pasó. El engine nunca resuelve solo: la decisión
// del ganador llega de fuera (aquí, del operador o del simulador).
func runSweeper(ctx context.Context, eng *engine.Engine, console *notify.Console, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		case <-ticker.C:
			active := eng.Registry.ActiveMarkets()
			console.PrintMarkets(active)

			for _, m := range eng.Registry.DueForResolution(time.Now().UTC()) {
				slog.Warn("market awaiting resolution",
					"market", m.ID,
					"title", m.Title,
					"resolution_time", m.ResolutionTime,
				)
			}
		}
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
