// Package bootstrap handles application initialization and wiring.
package bootstrap

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/api"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/cache"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/ffmpeg"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/handlers"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/logger"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/media"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/monitor"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/preview"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/probe"
)

const previewsPublicPrefix = "/previews"

// Start boots the media-monitor service and blocks until shutdown.
func Start(version string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	log, err := CreateLogger(cfg, version)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting media-monitor service",
		logger.Bool("debug", cfg.Debug),
		logger.Int("port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher := SetupEventPublisher(cfg, log)

	store, err := cache.NewStore(cfg.Media.PreviewsDir, previewsPublicPrefix)
	if err != nil {
		return fmt.Errorf("create preview store: %w", err)
	}

	runner := ffmpeg.NewExecRunner(ffmpeg.Config{
		FFmpegPath:      cfg.Media.FFmpegPath,
		FFprobePath:     cfg.Media.FFprobePath,
		ProbeTimeout:    cfg.Media.ProbeTimeout,
		GenerateTimeout: cfg.Media.GenerateTimeout,
	}, log)

	prober := probe.New(runner, probe.Options{
		RequestTimeout:    cfg.Media.RequestTimeout,
		MaxContentBytes:   cfg.Media.MaxContentBytes,
		TextPreviewLength: cfg.Media.TextPreviewLength,
	}, log)

	governor := preview.NewGovernor(cfg.Media.MaxPreviewRetries)
	generator := preview.NewGenerator(store, runner, governor, prober, publisher, preview.Options{
		Width:  cfg.Media.PreviewWidth,
		Height: cfg.Media.PreviewHeight,
	}, log)

	svc := media.NewService(prober, generator, log)

	sinks := []monitor.Sink{monitor.NewLogSink(log)}
	if publisher != nil {
		sinks = append(sinks, publisher)
	}
	mon := monitor.New(svc, monitor.Config{CheckInterval: cfg.Monitor.CheckInterval}, log, sinks...)

	if cfg.Monitor.SourcesFile != "" {
		if err := syncSourcesFromFile(mon, cfg.Monitor.SourcesFile, log); err != nil {
			log.Warn("Initial sources load failed", logger.Error(err))
		}
		watcherDone, err := WatchSources(ctx, mon, cfg.Monitor.SourcesFile, log)
		if err != nil {
			log.Warn("Sources file watcher unavailable", logger.Error(err))
		} else {
			defer func() { <-watcherDone }()
		}
	}

	if cfg.Monitor.Enabled {
		mon.Start(ctx)
		defer mon.Stop()
	}

	mediaHandler := handlers.NewMediaHandler(svc, mon, log)
	errsHandler := handlers.NewErrorsHandler(publisher, log)
	router := api.NewRouter(mediaHandler, errsHandler, api.Config{
		CORSOrigins: cfg.Server.CORSOrigins,
		PreviewsDir: cfg.Media.PreviewsDir,
	}, log)

	return RunServer(ctx, cfg, router, log)
}
