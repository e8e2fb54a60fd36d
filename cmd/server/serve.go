package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"card-czar/internal/cards"
	"card-czar/internal/config"
	"card-czar/internal/db"
	"card-czar/internal/server"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogging(level string, pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

func serve(ctx context.Context, f *flags) error {
	if err := config.LoadDotEnv(f.envFile); err != nil {
		log.Warn().Err(err).Str("path", f.envFile).Msg("failed to load .env")
	}
	cfg := config.Load()
	level := cfg.LogLevel
	if f.logLevel != "" {
		level = f.logLevel
	}
	setupLogging(level, f.pretty)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	supplier, mirrors, cleanup, err := buildBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	app := server.New(server.Options{
		Config:   cfg,
		Supplier: supplier,
		Mirrors:  mirrors,
	})
	defer app.Shutdown()

	srv := &http.Server{
		Addr:              net.JoinHostPort(f.bind, strconv.Itoa(f.port)),
		Handler:           app.Handler(),
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("card-czar server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildBackends picks the card supplier and the optional broadcast mirrors.
// Postgres supplies cards when DATABASE_URL is set, otherwise a YAML pack.
func buildBackends(ctx context.Context, cfg config.Config) (cards.Supplier, []server.Mirror, func(), error) {
	var (
		supplier cards.Supplier
		mirrors  []server.Mirror
		closers  []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	conn, err := db.Open(cfg)
	switch {
	case err == nil:
		if err := db.Migrate(conn); err != nil {
			return nil, nil, cleanup, err
		}
		supplier = db.NewCardStore(conn)
		recorder := server.NewEventRecorder(db.NewEventLog(conn), 1024)
		go recorder.Run(ctx)
		mirrors = append(mirrors, recorder)
		if sqlDB, err := conn.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}
		log.Info().Msg("using postgres card store")
	case errors.Is(err, db.ErrNoDatabaseURL):
		pack := cards.DefaultPack()
		if cfg.CardPackPath != "" {
			if pack, err = cards.ReadPack(cfg.CardPackPath); err != nil {
				return nil, nil, cleanup, err
			}
		}
		supplier = cards.NewPackSupplier(pack, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
		log.Info().Str("pack", pack.Name).Int("questions", len(pack.Questions)).Int("answers", len(pack.Answers)).Msg("using card pack")
	default:
		return nil, nil, cleanup, err
	}

	if cfg.NATSURL != "" {
		nc, err := server.ConnectNATS(cfg.NATSURL)
		if err != nil {
			return nil, nil, cleanup, err
		}
		closers = append(closers, nc.Close)
		mirrors = append(mirrors, server.NewNATSMirror(nc, cfg.NATSSubjectPrefix))
		log.Info().Str("url", cfg.NATSURL).Str("prefix", cfg.NATSSubjectPrefix).Msg("mirroring rooms to NATS")
	}
	return supplier, mirrors, cleanup, nil
}
