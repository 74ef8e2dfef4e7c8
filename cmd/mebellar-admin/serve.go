package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mebellar/internal/http/handlers"
	"mebellar/internal/schemafile"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and admin pages",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func seed(ctx context.Context, e *env) error {
	f, err := os.Open(e.cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("seed file: %w", err)
	}
	defer f.Close()
	doc, err := schemafile.Parse(f)
	if err != nil {
		return err
	}
	_, err = schemafile.Apply(ctx, e.deps.Store, doc, e.log)
	return err
}

func runServe(cmd *cobra.Command, _ []string) error {
	e, err := setup(true)
	if err != nil {
		return err
	}
	defer e.Close()
	e.log.Info("app.start", e.cfg.LogFields()...)

	if e.cfg.SeedFile != "" {
		if err := seed(cmd.Context(), e); err != nil {
			return err
		}
	}

	app := handlers.NewApp(e.deps)
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.Listen(":" + e.cfg.Port)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		e.log.Info("app.stop", zap.String("signal", sig.String()))
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			e.log.Error("app.stop.fail", zap.Error(err))
		}
	}
	return nil
}
