// Command server runs the per-user expense collection API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/damon-houk/my-expenses/internal/application/service"
	"github.com/damon-houk/my-expenses/internal/config"
	"github.com/damon-houk/my-expenses/internal/infrastructure/db"
	"github.com/damon-houk/my-expenses/internal/infrastructure/handler"
	"github.com/damon-houk/my-expenses/internal/infrastructure/httpserver"
	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := cfg.Logger().WithField("service", "expense-server")
	logger.SetDefaultLogger(log)

	if err := run(cfg, log); err != nil {
		log.Error("Server exited with error", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	log.Info("Starting expense collection server", logger.Fields{
		"addr":    cfg.Server.Addr,
		"backend": cfg.Storage.Backend,
	})

	repo, closeRepo, err := db.OpenRepository(cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to open expense repository: %w", err)
	}
	defer func() {
		if err := closeRepo(); err != nil {
			log.Error("Error closing expense repository", logger.Fields{"error": err.Error()})
		}
	}()

	expenseService := service.NewExpenseService(repo, log)
	expenseHandler := handler.NewExpenseHandler(expenseService, log)
	router := handler.NewRouter(expenseHandler, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpserver.New(cfg.Server.Addr, router)
	return httpserver.Run(ctx, srv, cfg.Server.ShutdownTimeout, log)
}
