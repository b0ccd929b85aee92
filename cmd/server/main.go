package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"

	"github.com/labelscan/allergen-scanner/internal/adapters/matcher"
	"github.com/labelscan/allergen-scanner/internal/adapters/metrics"
	"github.com/labelscan/allergen-scanner/internal/adapters/ocr"
	"github.com/labelscan/allergen-scanner/internal/adapters/web"
	"github.com/labelscan/allergen-scanner/internal/config"
	"github.com/labelscan/allergen-scanner/internal/pkg/httpserver"
	"github.com/labelscan/allergen-scanner/internal/usecase"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err = cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	// Adapters (infrastructure)
	ocrClient, err := ocr.NewSpaceClient(cfg.OCR.APIKey, logger,
		ocr.WithURL(cfg.OCR.URL),
		ocr.WithTimeout(time.Duration(cfg.OCR.TimeoutSeconds)*time.Second),
	)
	if err != nil {
		log.Fatalf("ocr client: %v", err)
	}
	sink := metrics.NewPrometheus()

	// Application service (use cases)
	scanSvc := usecase.NewScanService(ocrClient, matcher.New(), sink, logger, cfg.OCR.MaxConcurrent)

	// HTTP surfaces
	srv := httpserver.New(cfg.Addr, fiber.Config{ErrorHandler: web.ErrorHandler})
	web.Register(srv.App, scanSvc, logger)

	metricsSrv := httpserver.New(cfg.MetricsAddr, fiber.Config{DisableStartupMessage: true})
	metricsSrv.App.Get("/metrics", adaptor.HTTPHandler(sink.Handler()))

	go func() {
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := metricsSrv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("metrics serve error")
		}
	}()
	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("allergen scanner listening")
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("serve error")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	logger.Info().Msg("shutting down")
	srv.Stop()
	metricsSrv.Stop()
}

func newLogger(cfg config.LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, err
	}

	var w io.Writer = os.Stdout
	if cfg.File != "" {
		rl, rerr := rotatelogs.New(
			cfg.File+".%Y%m%d",
			rotatelogs.WithLinkName(cfg.File),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithMaxAge(7*24*time.Hour),
		)
		if rerr != nil {
			return zerolog.Logger{}, rerr
		}
		w = zerolog.MultiLevelWriter(os.Stdout, rl)
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
