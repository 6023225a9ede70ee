package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/motioncore/sensorsync/cmd/options"
	"github.com/motioncore/sensorsync/internal/alert"
	"github.com/motioncore/sensorsync/internal/collector"
	"github.com/motioncore/sensorsync/internal/config"
	"github.com/motioncore/sensorsync/internal/server"
	"github.com/motioncore/sensorsync/internal/source"
	"github.com/motioncore/sensorsync/internal/storage"
	"github.com/motioncore/sensorsync/internal/types"
	"github.com/motioncore/sensorsync/pkg/logger"
	"github.com/motioncore/sensorsync/pkg/version"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.Global.Error("program encountered a critical error", "error", r)
			os.Exit(1)
		}
	}()

	opts, err := options.Parse()
	if err != nil {
		fmt.Printf("Error parsing options: %v\n", err)
		os.Exit(1)
	}
	if opts.ShowVersion {
		fmt.Printf("sensorsync %s\n", version.Version)
		return
	}
	if err := opts.Validate(); err != nil {
		fmt.Printf("Invalid options: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		logger.Global.Error("load configuration failed",
			"path", opts.ConfigPath,
			"error", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	fmt.Print(version.PrintLogo())
	logger.Global.Info("sensorsync started", "version", version.Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Simulated sensor service: one synthetic source per configured
	// rate. Real deployments swap in a platform-backed source.Service.
	if !cfg.Simulator.Enabled {
		logger.Global.Error("no sensor service configured: enable the simulator")
		os.Exit(1)
	}
	rates := make(map[types.SensorType]float64, len(cfg.Simulator.RatesHz))
	for name, hz := range cfg.Simulator.RatesHz {
		rates[types.SensorType(name)] = hz
	}
	for _, t := range cfg.Collector.Tracked() {
		if _, ok := rates[t]; !ok {
			logger.Global.Error("tracked sensor has no simulator rate", "sensor", string(t))
			os.Exit(1)
		}
	}
	svc := source.NewSimService(rates)
	defer svc.Close()

	// Emission fan-out: the collector listener forwards each
	// synchronized measurement to storage and to the HTTP ring without
	// blocking the delivery goroutine.
	var emissions chan types.SyncedMeasurement
	var storageManager *storage.Manager
	if cfg.Storage.Enabled {
		storageCfg, err := cfg.Storage.ToStorageConfig()
		if err != nil {
			logger.Global.Error("invalid storage configuration", "error", err)
			os.Exit(1)
		}
		storageManager, err = storage.NewManager(storageCfg, cfg.Kafka)
		if err != nil {
			logger.Global.Error("failed to create storage manager", "error", err)
			os.Exit(1)
		}
		defer storageManager.Stop()

		emissions = make(chan types.SyncedMeasurement, 1000)
		storageManager.StartProcessing(emissions)
	} else {
		logger.Global.Info("storage disabled")
	}

	alerts := alert.NewManager()
	alerts.Register(alert.NewLogAlerter())
	defer alerts.Close()

	c, err := collector.New(svc, collector.Options{
		Primary:         types.SensorType(cfg.Collector.Primary),
		Secondaries:     secondaries(cfg),
		WindowNanos:     cfg.Collector.WindowNanos,
		SamplingPeriod:  time.Duration(cfg.Collector.SamplingPeriodMicros) * time.Microsecond,
		Interpolate:     cfg.Collector.Interpolation,
		PlatformVersion: cfg.Collector.PlatformVersion,
	})
	if err != nil {
		logger.Global.Error("failed to create collector", "error", err)
		os.Exit(1)
	}

	var httpServer *server.Server
	if cfg.HttpServer.Enabled {
		httpServer = server.NewServer(cfg, c)
		if err := httpServer.Start(ctx); err != nil {
			logger.Global.Error("failed to start HTTP server", "error", err)
			os.Exit(1)
		}
		defer httpServer.Stop(context.Background())
	}

	c.SetListener(func(sm types.SyncedMeasurement) {
		if httpServer != nil {
			httpServer.Record(sm)
		}
		if emissions == nil {
			return
		}
		select {
		case emissions <- sm:
		default:
			logger.Global.Warn("emission channel full, dropping measurement",
				"timestamp", sm.Timestamp)
		}
	})
	for _, t := range c.Tracked() {
		c.SetAccuracyListener(t, func(t types.SensorType, a types.Accuracy) {
			if a <= types.AccuracyLow {
				if err := alerts.Send(ctx, alert.AccuracyDegraded(t, a)); err != nil {
					logger.Global.Error("failed to send alert", "error", err)
				}
			}
		})
	}

	if !c.Start() {
		if err := alerts.Send(ctx, alert.StartFailed(types.SensorType(cfg.Collector.Primary))); err != nil {
			logger.Global.Error("failed to send alert", "error", err)
		}
		logger.Global.Error("collector failed to start")
		os.Exit(1)
	}
	defer c.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Global.Info("received signal, preparing exit", "signal", sig.String())

	cancel()

	// Quiesce delivery before stopping the collector so no event can
	// race the state reset.
	svc.Close()

	logger.Global.Info("exiting",
		"processed", c.ProcessedCount(),
		"most_recent_timestamp", c.MostRecentTimestamp())
}

func secondaries(cfg *config.Config) []types.SensorType {
	out := make([]types.SensorType, 0, len(cfg.Collector.Secondaries))
	for _, s := range cfg.Collector.Secondaries {
		out = append(out, types.SensorType(s))
	}
	return out
}
