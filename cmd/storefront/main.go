package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/partsbay/storefront/authflow"
	"github.com/partsbay/storefront/authsession"
	"github.com/partsbay/storefront/backendapi"
	"github.com/partsbay/storefront/httpclient"
	"github.com/partsbay/storefront/internal/config"
	"github.com/partsbay/storefront/server"
	"github.com/partsbay/storefront/session"
	"github.com/partsbay/storefront/storage"
)

func main() {
	_ = godotenv.Load() // .env is optional

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	configureLogging(c)
	displayAppname(c.GetAppName())

	kv, err := newStorageBackend(c)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	store := session.NewKVStore(kv)
	pending := authflow.NewStore(kv)
	backend := backendapi.NewClient(c.GetBackendURL(), backendapi.WithTimeout(c.GetExchangeTimeout()))

	sessions, err := authsession.New(c, store, pending, backend, authsession.WithLogger(log.Logger))
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}
	if err := sessions.Resume(); err != nil {
		return fmt.Errorf("session resume: %w", err)
	}

	api := httpclient.New(sessions, httpclient.WithLogger(log.Logger))

	srv, err := server.New(c, sessions, api)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func newStorageBackend(c config.Config) (storage.KV, error) {
	if path := c.GetStoreFile(); path != "" {
		return storage.NewFile(path, c.GetStoreKey())
	}
	return storage.NewMemory(), nil
}

func configureLogging(c config.Config) {
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
