package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/bafcc/camp-admin/internal/config"
	"github.com/bafcc/camp-admin/internal/logging"
	"github.com/bafcc/camp-admin/internal/metrics"
	"github.com/bafcc/camp-admin/server"
	"github.com/bafcc/camp-admin/session"
	"github.com/bafcc/camp-admin/sessionstate"
	"github.com/bafcc/camp-admin/tokens"
	"github.com/common-nighthawk/go-figure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(c.GetLogLevel(), c.IsDev())
	displayAppname(c.GetAppName())

	if c.GetMetricsEnabled() {
		metrics.Register(prometheus.DefaultRegisterer)
	}

	store := tokens.NewFileStore(filepath.Join(c.GetDataFolder(), c.GetTokenFile()))
	// The guard forces the navigation: the next guarded request finds no
	// session and redirects to login.
	manager, err := session.New(c, store, sessionstate.NewHolder(), session.WithSessionExpired(func(err error) {
		log.Warn().Err(err).Msg("Session expired, login required")
	}))
	if err != nil {
		return fmt.Errorf("session.New: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go manager.Initialize(ctx)

	handler, err := server.New(c, manager)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(httpServer) }()

	select {
	case err := <-errs:
		returnError = err
	case <-ctx.Done():
		returnError = shutdown(httpServer)
	}
	manager.Wait()
	return returnError
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
