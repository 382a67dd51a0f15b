package main

import (
	"flag"
	"log"

	"github.com/nathanyu/lob-engine/internal/backtest"
	"github.com/nathanyu/lob-engine/internal/config"
	"github.com/nathanyu/lob-engine/internal/marketdata"
	"github.com/nathanyu/lob-engine/internal/replay"
	"github.com/nathanyu/lob-engine/internal/strategy"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config (optional)")
	dataPath := flag.String("data", "", "LOBSTER message CSV path")
	gamma := flag.Float64("gamma", 0, "risk aversion (overrides config)")
	sigma := flag.Float64("sigma", 0, "volatility (overrides config)")
	kappa := flag.Float64("kappa", 0, "order-flow decay (overrides config)")
	horizon := flag.Float64("horizon", 0, "trading horizon (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}
	if *gamma > 0 {
		cfg.Strategy.Gamma = *gamma
	}
	if *sigma > 0 {
		cfg.Strategy.Sigma = *sigma
	}
	if *kappa > 0 {
		cfg.Strategy.Kappa = *kappa
	}
	if *horizon > 0 {
		cfg.Strategy.Horizon = *horizon
	}
	if cfg.Data.Path == "" {
		log.Fatal("no data path: pass -data or set data.path in the config")
	}

	reader, closer, err := replay.Open(cfg.Data.Path)
	if err != nil {
		log.Fatalf("open data: %v", err)
	}
	events, err := reader.ReadAll()
	_ = closer.Close()
	if err != nil {
		log.Fatalf("read data: %v", err)
	}
	log.Printf("[backtest] loaded %d events from %s", len(events), cfg.Data.Path)

	quoter := strategy.NewAvellanedaStoikov(
		cfg.Strategy.Gamma,
		cfg.Strategy.Sigma,
		cfg.Strategy.Kappa,
		cfg.Strategy.Horizon,
		cfg.Strategy.Size,
	)
	publisher := marketdata.NewPublisher()
	runner := backtest.NewRunner(
		quoter,
		backtest.WithPublisher(publisher),
		backtest.WithDepth(cfg.Data.Depth),
		backtest.WithWarmup(cfg.Data.WarmupEvents),
	)

	report := runner.Run(events)

	log.Printf("[backtest] run %s finished in %s", report.RunID, report.Elapsed)
	log.Printf("[backtest] orders/sec: %.2f", report.OrdersPerSec)
	log.Printf("[backtest] trades: %d (strategy fills: %d)", report.Trades, report.StrategyFills)
	log.Printf("[backtest] inventory: %d, cash: %.2f, pnl: %.2f", report.Inventory, report.Cash, report.PnL)
}
