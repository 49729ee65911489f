// Command myexpenses serves the expense page, backed by the collection API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/damon-houk/my-expenses/internal/config"
	"github.com/damon-houk/my-expenses/internal/infrastructure/api"
	"github.com/damon-houk/my-expenses/internal/infrastructure/httpserver"
	"github.com/damon-houk/my-expenses/internal/infrastructure/logger"
	"github.com/damon-houk/my-expenses/internal/infrastructure/web"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := cfg.Logger().WithField("service", "expense-page")
	logger.SetDefaultLogger(log)

	log.Info("Starting expense page", logger.Fields{
		"addr":            cfg.Web.Addr,
		"api_base_url":    cfg.Web.APIBaseURL,
		"request_timeout": cfg.Web.RequestTimeout.String(),
		"session_ttl":     cfg.Web.SessionTTL.String(),
	})

	client := api.NewExpenseAPIClient(cfg.Web.APIBaseURL, &http.Client{Timeout: cfg.Web.RequestTimeout}, log)

	pageHandler, err := web.NewPageHandler(client, cfg.Web.SessionTTL, log)
	if err != nil {
		log.Fatal("Failed to build page handler", logger.Fields{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpserver.New(cfg.Web.Addr, web.NewRouter(pageHandler, log))
	if err := httpserver.Run(ctx, srv, cfg.Web.ShutdownTimeout, log); err != nil {
		log.Error("Server exited with error", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
}
