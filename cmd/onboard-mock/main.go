package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-onboard/internal/config"
	"github.com/goliatone/go-onboard/internal/mockapi"
	"github.com/goliatone/go-onboard/pkg/formdef"
	"github.com/goliatone/go-onboard/pkg/notify"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading the environment")
	addr := flag.String("addr", "", "listen address (overrides "+config.EnvMockAddr+")")
	formsDir := flag.String("forms", "", "directory of form definitions (overrides "+config.EnvFormsDir+"; bundled seed forms when empty)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "onboard-mock: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.MockAddr = *addr
	}
	if *formsDir != "" {
		cfg.FormsDir = *formsDir
	}
	logger := cfg.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("onboard-mock: stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	builderOpts := []notify.Option{}
	if cfg.ReviewURL != "" {
		builderOpts = append(builderOpts, notify.WithReviewURL(cfg.ReviewURL))
	}
	if cfg.TemplatesDir != "" {
		builderOpts = append(builderOpts, notify.WithTemplateDir(cfg.TemplatesDir))
	}
	builder, err := notify.NewBuilder(builderOpts...)
	if err != nil {
		return err
	}

	opts := []mockapi.Option{
		mockapi.WithLogger(logger),
		mockapi.WithSecret(cfg.MockSecret),
		mockapi.WithBuilder(builder),
	}
	if cfg.FormsDir != "" {
		store, err := formdef.LoadFS(os.DirFS(cfg.FormsDir))
		if err != nil {
			return err
		}
		if store.Empty() {
			return fmt.Errorf("no form definitions found in %s", cfg.FormsDir)
		}
		opts = append(opts, mockapi.WithForms(store.Forms()...))
	}

	handler, err := mockapi.New(opts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.MockAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("onboard-mock: listening",
			slog.String("addr", cfg.MockAddr),
			slog.Int("forms", len(handler.Forms())),
			slog.String("admin", mockapi.AdminAccount.Email),
			slog.String("client", mockapi.ClientAccount.Email))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("onboard-mock: shutting down")
	return srv.Shutdown(shutdownCtx)
}
