package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dcernahoschi/mojitoswap-pool/lib/config"
	"github.com/dcernahoschi/mojitoswap-pool/lib/executor"
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/dcernahoschi/mojitoswap-pool/lib/journal"
	"github.com/dcernahoschi/mojitoswap-pool/lib/metrics"
	"github.com/dcernahoschi/mojitoswap-pool/lib/tickmath"
	ent "github.com/dcernahoschi/mojitoswap-pool/lib/transaction"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "mojito",
		Short:        "Concentrated liquidity pool replay and tick tools",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay [scenario]",
		Short: "Replay a scenario file against a fresh pool",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReplay,
	}
	replayCmd.Flags().String("scenario", "", "scenario file (YAML or JSON)")
	replayCmd.Flags().String("journal", "", "SQLite journal path")
	replayCmd.Flags().String("metrics-out", "", "write metrics in text format to this file")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	replayCmd.Flags().String("log-file", "", "log to a rotated file instead of stderr")
	root.AddCommand(replayCmd)

	tickCmd := &cobra.Command{
		Use:   "tick <tick | sqrt price>",
		Short: "Convert between ticks and sqrt prices",
		Args:  cobra.ExactArgs(1),
		RunE:  runTick,
	}
	tickCmd.Flags().Bool("price", false, "treat the argument as a sqrt price")
	root.AddCommand(tickCmd)

	return root
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Scenario = args[0]
	}
	if cfg.Scenario == "" {
		return fmt.Errorf("scenario file is required")
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sc, err := ent.Load(cfg.Scenario)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	opts := []executor.Option{executor.WithLogger(logger), executor.WithMetrics(metrics.New(reg))}
	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return err
		}
		defer j.Close()
		opts = append(opts, executor.WithJournal(j))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := executor.CreateExecution(sc, opts...)
	if err != nil {
		return err
	}
	runErr := e.Run(ctx)

	if cfg.MetricsOut != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsOut, reg); err != nil {
			logger.Error("write metrics", zap.Error(err))
		}
	}
	if err := e.Save().WriteJSON(cmd.OutOrStdout()); err != nil {
		return err
	}
	return runErr
}

func runTick(cmd *cobra.Command, args []string) error {
	asPrice, _ := cmd.Flags().GetBool("price")
	out := cmd.OutOrStdout()
	if asPrice {
		p, err := fixed.Parse(args[0])
		if err != nil {
			return err
		}
		tick, err := tickmath.TickAtSqrtPrice(p)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, tick)
		return err
	}
	tick, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("parse tick: %w", err)
	}
	p, err := tickmath.SqrtPriceAtTick(tick)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, p)
	return err
}

func newLogger(level, file string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if file == "" {
		return cfg.Build()
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	})
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), w, cfg.Level)
	return zap.New(core), nil
}
