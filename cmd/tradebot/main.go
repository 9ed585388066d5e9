package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/FrancoUysp/TT/internal/api"
	"github.com/FrancoUysp/TT/internal/engine"
	"github.com/FrancoUysp/TT/internal/execution"
	"github.com/FrancoUysp/TT/internal/logger"
	"github.com/FrancoUysp/TT/internal/market"
	"github.com/FrancoUysp/TT/internal/oracle"
	"github.com/FrancoUysp/TT/internal/position"
	"github.com/FrancoUysp/TT/internal/types"
)

func main() {
	cmd := &cli.Command{
		Name:  "tradebot",
		Usage: "Run the intraday strategy engine and its control surface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML engine configuration",
				Value:   "config.yaml",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "tradebot: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := engine.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	tradeLog, err := position.NewTradeLog(log, cfg.TradeLogPath)
	if err != nil {
		return err
	}
	defer tradeLog.Close()

	if err := tradeLog.Initialize(); err != nil {
		return err
	}

	dataPort, err := market.NewCSVPort(cfg.DataPath, cfg.BufferSize)
	if err != nil {
		return err
	}

	var execPort execution.Port
	switch cfg.Execution {
	case "binance":
		execPort = execution.NewBinancePort(cfg.BinanceAPIKey, cfg.BinanceAPISecret, cfg.BinanceTestnet, log)
	default:
		execPort = execution.NewPaperPort(log)
	}

	longProb, shortProb := cfg.OracleLongProb, cfg.OracleShortProb
	if longProb == 0 && shortProb == 0 {
		longProb, shortProb = 0.5, 0.5
	}
	orc := oracle.NewStaticOracle(types.Prediction{LongProb: longProb, ShortProb: shortProb})

	registry := engine.NewRegistry(cfg.Symbol, execPort, tradeLog, log)
	for _, dir := range cfg.ModelDirs {
		params, err := engine.LoadParameters(dir)
		if err != nil {
			return err
		}
		if _, err := registry.Add(params); err != nil {
			return err
		}
	}

	window := market.NewBarWindow(cfg.BufferSize)
	eng := engine.NewEngine(window, dataPort, orc, registry, log)
	if err := eng.Initialize(); err != nil {
		return err
	}

	server := api.NewServer(cfg.Listen, eng, log)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)

	go func() {
		errCh <- server.Start()
	}()

	go func() {
		errCh <- eng.Run(runCtx, optional.Some[engine.OnTick](server.Broadcast))
	}()

	select {
	case <-runCtx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			log.Error("component failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
