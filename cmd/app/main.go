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

	"fooddelivery/cmd"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "fooddelivery",
		Short: "Event-driven food delivery: orders, payments, tracking and notifications",
	}
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func serveCmd() *cobra.Command {
	var components string

	command := &cobra.Command{
		Use:   "serve",
		Short: "Run the configured components, their HTTP routes and background jobs",
		RunE: func(c *cobra.Command, _ []string) error {
			if components != "" {
				if err := os.Setenv("COMPONENTS", components); err != nil {
					return err
				}
			}

			configs, err := cmd.LoadConfig()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return serve(c.Context(), configs)
		},
	}

	command.Flags().StringVarP(&components, "components", "c", "", "comma separated components to run (overrides COMPONENTS)")
	return command
}

func serve(parent context.Context, configs cmd.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(configs.LogLevel)

	app, err := cmd.NewCompositionRoot(ctx, configs, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to release resources", "error", err)
		}
	}()

	server, err := app.HTTPServer()
	if err != nil {
		return err
	}
	consumerList, err := app.Consumers()
	if err != nil {
		return err
	}

	jobManager := app.Jobs()
	if err := jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	e := echo.New()
	e.HideBanner = true
	server.Register(e)

	g, ctx := errgroup.WithContext(ctx)

	for _, consumer := range consumerList {
		g.Go(func() error {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("consumer %s: %w", consumer.Name(), err)
			}
			return nil
		})
	}

	g.Go(func() error {
		address := fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)
		logger.Info("starting http server", "address", address, "components", configs.Components)
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received, commencing graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
