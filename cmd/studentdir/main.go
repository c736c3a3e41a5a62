// Command studentdir serves the student directory over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"studentdir/internal/api"
	"studentdir/internal/config"
	"studentdir/internal/directory"
	"studentdir/internal/logging"
	"studentdir/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	if err := run(env); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(env map[string]string) error {
	flags := flag.NewFlagSet("studentdir", flag.ContinueOnError)

	configPath := flags.StringP("config", "c", "", "path to config file")
	dataFile := flags.String("data-file", "", "path to the students data file (overrides config)")
	backupDir := flags.String("backup-dir", "", "path to the backup directory (overrides config)")
	port := flags.Int("port", 0, "listen port (overrides config)")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")

	parseErr := flags.Parse(os.Args[1:])
	if parseErr != nil {
		if errors.Is(parseErr, flag.ErrHelp) {
			return nil
		}

		return parseErr
	}

	cfg, cfgErr := config.Load(config.LoadInput{
		ConfigPath: *configPath,
		Env:        env,
	})
	if cfgErr != nil {
		return cfgErr
	}

	// Flags win over config file and environment.
	if *dataFile != "" {
		cfg.DataFile = *dataFile
	}

	if *backupDir != "" {
		cfg.BackupDir = *backupDir
	}

	if *port != 0 {
		cfg.Port = *port
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	log := logging.New(os.Stderr, level)

	st := store.New(cfg.DataFile, cfg.BackupDir, log)

	dir := directory.NewService(directory.Config{
		Store:    st,
		Log:      log,
		Bounds:   cfg.Bounds(),
		MaxLimit: cfg.MaxLimit,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.NewServer(dir, log, cfg.DefaultLimit, cfg.CORSOrigins).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)

	go func() {
		log.Info("server listening", "addr", server.Addr, "data_file", cfg.DataFile)
		errCh <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return server.Shutdown(ctx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	}
}
