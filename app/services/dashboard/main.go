package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/walletdash/app/services/dashboard/handlers"
	"github.com/ardanlabs/walletdash/app/services/dashboard/handlers/v1/eventgrp"
	"github.com/ardanlabs/walletdash/business/core/ledger"
	"github.com/ardanlabs/walletdash/business/core/session"
	"github.com/ardanlabs/walletdash/foundation/events"
	"github.com/ardanlabs/walletdash/foundation/logger"
	"github.com/ardanlabs/walletdash/foundation/query"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("DASHBOARD")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			APIHost         string        `conf:"default:0.0.0.0:3000"`
			DebugHost       string        `conf:"default:0.0.0.0:4000"`
			CORSOrigin      string        `conf:"default:*"`
		}
		Wallet struct {
			BaseURL         string        `conf:"default:http://localhost:8080/api/v0"`
			RefreshInterval time.Duration `conf:"default:30s"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "wallet dashboard",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "DASHBOARD"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Wallet API Support

	// The client logs every call it makes to the wallet API.
	trace := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...), "traceid", "00000000-0000-0000-0000-000000000000")
	}

	api, err := walletapi.New(cfg.Wallet.BaseURL, walletapi.WithLogger(trace))
	if err != nil {
		return fmt.Errorf("constructing wallet api client: %w", err)
	}

	// =========================================================================
	// Session Support

	// Notifications and navigations are sent to any websocket client that
	// is connected into the system through the events package.
	evts := events.New()
	bridge := eventgrp.NewBridge(evts)

	cache := query.NewCache()

	ctrl := session.New(session.Config{
		Log:       log,
		API:       api,
		Cache:     cache,
		Notifier:  bridge,
		Navigator: bridge,
	})

	ldg := ledger.New(ledger.Config{
		Log:      log,
		API:      api,
		Cache:    cache,
		Notifier: bridge,
	})

	ctrl.Subscribe(ldg.SessionChanged)
	ctrl.Subscribe(func(ctx context.Context, ch session.Change) {
		evts.Send(events.Event{Type: events.TypeSession, Data: ch.View})
	})

	cache.Subscribe(func(key query.Key) {
		evts.Send(events.Event{Type: events.TypeCache, Data: key.String()})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ctrl.Watch(ctx, cfg.Wallet.RefreshInterval)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log, api)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Dashboard Service

	log.Infow("startup", "status", "initializing V1 dashboard API support")

	dashboardMux, err := handlers.DashboardMux(handlers.MuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		CORSOrigin: cfg.Web.CORSOrigin,
		Session:    ctrl,
		Ledger:     ldg,
		Router:     bridge,
		Evts:       evts,
	})
	if err != nil {
		return fmt.Errorf("constructing dashboard mux: %w", err)
	}

	dashboard := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      dashboardMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "dashboard api router started", "host", dashboard.Addr)
		serverErrors <- dashboard.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Stop refreshing the identity.
		cancel()

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := dashboard.Shutdown(ctx); err != nil {
			dashboard.Close()
			return fmt.Errorf("could not stop dashboard service gracefully: %w", err)
		}
	}

	return nil
}
