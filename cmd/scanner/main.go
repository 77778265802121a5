package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jgarciad/arbscan/config"
	"github.com/jgarciad/arbscan/internal/adapters/execute"
	"github.com/jgarciad/arbscan/internal/adapters/notify"
	"github.com/jgarciad/arbscan/internal/adapters/storage"
	"github.com/jgarciad/arbscan/internal/adapters/venue"
	"github.com/jgarciad/arbscan/internal/application/detector"
	"github.com/jgarciad/arbscan/internal/application/fetch"
	"github.com/jgarciad/arbscan/internal/cache"
	"github.com/jgarciad/arbscan/internal/domain"
	"github.com/jgarciad/arbscan/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one detection cycle and exit")
	paper := flag.Bool("paper", false, "simulate fills for accepted opportunities")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full opportunity table (default: compact 1-line)")
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

	slog.Info("arbscan starting",
		"config", *configPath,
		"interval", cfg.ScanInterval(),
		"venues", len(cfg.EnabledVenues()),
		"pairs", len(cfg.Pairs),
		"once", *once,
	)

	gateways, err := buildGateways(cfg)
	if err != nil {
		slog.Error("failed to build venue gateways", "err", err)
		os.Exit(1)
	}

	history, err := storage.NewSQLiteHistory(cfg.Storage.DSN, cfg.HistoryRetention())
	if err != nil {
		slog.Error("failed to open history storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer history.Close()

	fetcher := fetch.New(fetch.Config{
		RateLimit:        cfg.RateLimit(),
		RequestTimeout:   cfg.RequestTimeout(),
		MaxRetries:       cfg.Limits.MaxRetries,
		BreakerThreshold: uint(cfg.Limits.CircuitBreakerThreshold),
		BreakerCooldown:  cfg.BreakerCooldown(),
	}, gateways)

	notifier := notify.NewConsole(*table)

	var executor ports.Executor
	if *paper {
		executor = execute.NewPaper()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	venueNames := make([]string, 0, len(gateways))
	for _, gw := range gateways {
		venueNames = append(venueNames, gw.Venue())
	}

	// Comisiones reales del venue si el gateway las expone; las de la config
	// quedan como fallback.
	fees := cfg.Fees()
	if len(cfg.Pairs) > 0 {
		for _, name := range venueNames {
			f, err := fetcher.Fees(ctx, name, cfg.Pairs[0].Symbol)
			if err != nil {
				slog.Warn("using configured fees", "venue", name, "err", err)
				continue
			}
			fees[name] = f
		}
	}

	d := detector.New(detector.Config{
		Interval:       cfg.ScanInterval(),
		CycleTimeout:   cfg.CycleTimeout(),
		Venues:         venueNames,
		Pairs:          cfg.Pairs,
		BaseAsset:      cfg.Scanner.BaseAsset,
		TradeSize:      cfg.Scanner.TradeSize,
		MaxPosition:    cfg.Scanner.MaxPositionSize,
		MinProfitRatio: cfg.Scanner.MinProfitThreshold,
		MinCrossProfit: cfg.Scanner.CrossMinProfit,
		StalenessMax:   cfg.Staleness(),
		Fees:           fees,
		RiskWeights:    cfg.Risk.Weights,
		RiskThreshold:  cfg.Risk.RejectThreshold,
		DryRun:         *once,
	}, fetcher, cache.New(), history, notifier, executor)

	if err := d.Run(ctx); err != nil {
		slog.Error("detector exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("arbscan stopped cleanly")
}

// buildGateways instancia un gateway por venue habilitado en la config.
func buildGateways(cfg *config.Config) ([]ports.VenueGateway, error) {
	var out []ports.VenueGateway
	for _, v := range cfg.EnabledVenues() {
		fees := domain.Fees{Maker: v.MakerFee, Taker: v.TakerFee}
		switch v.Name {
		case "binance":
			out = append(out, venue.NewBinance(v.BaseURL, fees))
		case "bybit":
			out = append(out, venue.NewBybit(v.BaseURL, fees))
		default:
			return nil, fmt.Errorf("venue %q no soportado", v.Name)
		}
	}
	return out, nil
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
