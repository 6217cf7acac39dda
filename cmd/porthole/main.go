package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/mdevran/porthole/internal/adapters/builder"
	"github.com/mdevran/porthole/internal/adapters/docker"
	apihttp "github.com/mdevran/porthole/internal/adapters/http"
	"github.com/mdevran/porthole/internal/config"
	"github.com/mdevran/porthole/internal/core/actions"
	"github.com/mdevran/porthole/internal/core/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("loading configuration")
	}
	log := newLogger(cfg)

	runtime, err := docker.NewAdapter(docker.Options{
		Host:           cfg.DockerHost,
		RequestTimeout: cfg.RequestTimeout,
		StopTimeout:    cfg.StopTimeout,
		PullTimeout:    cfg.PullTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("initializing docker adapter")
	}

	// The daemon may still be coming up when we are; give it a bounded
	// window before failing. Actions themselves are never retried.
	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()
		return runtime.Ping(ctx)
	}
	if err := backoff.Retry(ping, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)); err != nil {
		log.WithError(err).Fatal("container runtime unreachable")
	}

	imageBuilder, err := builder.NewAdapter(log)
	if err != nil {
		log.WithError(err).Fatal("initializing image builder")
	}

	projector := registry.New(cfg.HostAddress, log)
	controller := actions.New(runtime, imageBuilder, log)
	handler := apihttp.NewServiceHandler(runtime, projector, controller, log)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(cors.New())
	handler.Register(app)
	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":         cfg.ListenAddr,
			"host_address": cfg.HostAddress,
		}).Info("server starting")
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	if err := multierr.Append(app.ShutdownWithTimeout(10*time.Second), runtime.Close()); err != nil {
		log.WithError(err).Error("shutdown finished with errors")
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
