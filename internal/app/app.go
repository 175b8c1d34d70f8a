// Package app wires configuration into a ready-to-use FAA service.
package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"FAASentinel/internal/collector"
	"FAASentinel/internal/config"
	"FAASentinel/internal/fund"
	"FAASentinel/internal/metrics"
	"FAASentinel/internal/model"
	"FAASentinel/internal/recorder"
	"FAASentinel/internal/service"
)

// App holds the long-lived components shared by the bot and the CLI.
type App struct {
	Config   *config.Config
	Service  *service.Service
	Metrics  *metrics.Registry
	Recorder recorder.Recorder
	Guards   []*collector.Guard
}

// New builds the fetchers, collector, preferences store, recorder and service from cfg.
func New(cfg *config.Config) (*App, error) {
	timeout := time.Duration(cfg.DataSource.TimeoutSeconds) * time.Second

	yahooGuard := collector.NewGuard("yahoo", cfg.DataSource.RPS, cfg.DataSource.Burst)
	fxGuard := collector.NewGuard("exchange-rate", cfg.DataSource.RPS, cfg.DataSource.Burst)

	fetcher := collector.NewYahooFetcher(cfg.DataSource.Proxy, timeout, yahooGuard)
	log.Printf("[INFO] data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher, cfg.Universe.LookbackMonths)
	rates := collector.NewExchangeRateFetcher(cfg.Allocation.FXURL, cfg.DataSource.Proxy, timeout, fxGuard)

	fm, err := fund.NewManager(cfg.Preferences.StateFile, model.Preferences{
		Tickers:     cfg.Universe.Tickers,
		IncludeCash: cfg.Universe.IncludeCash,
		Currency:    cfg.Allocation.BaseCurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("init preferences: %w", err)
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		if dir := filepath.Dir(cfg.Database.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	reg := metrics.New()
	return &App{
		Config:   cfg,
		Service:  service.New(cfg, col, rates, fm, rec, reg),
		Metrics:  reg,
		Recorder: rec,
		Guards:   []*collector.Guard{yahooGuard, fxGuard},
	}, nil
}

// Close releases the recorder.
func (a *App) Close() error {
	return a.Recorder.Close()
}
