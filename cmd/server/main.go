package main

import (
	"context"
	"errors"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	eventskafka "github.com/rakapratama/projectledger-backend/internal/adapter/events/kafka"
	httpadapter "github.com/rakapratama/projectledger-backend/internal/adapter/http"
	"github.com/rakapratama/projectledger-backend/internal/adapter/repository/postgres"
	"github.com/rakapratama/projectledger-backend/internal/config"
	"github.com/rakapratama/projectledger-backend/internal/usecase/budget"
	"github.com/rakapratama/projectledger-backend/internal/usecase/ledger"
	"github.com/rakapratama/projectledger-backend/internal/usecase/seeder"
	"github.com/rakapratama/projectledger-backend/internal/usecase/summary"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel)

	// Give Postgres a moment to come up when started together (Docker)
	time.Sleep(2 * time.Second)

	db, err := postgres.NewDB(cfg.DBConnStr)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	// Repositories (Postgres)
	store := postgres.NewStore(db)
	accountRepo := postgres.NewAccountRepository(db)
	walletRepo := postgres.NewCompanyWalletRepository(db)
	projectRepo := postgres.NewProjectRepository(db)
	lineItemRepo := postgres.NewLineItemRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)

	// Event publisher (optional, enabled when brokers are configured)
	var events ledger.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher := eventskafka.NewPublisher(cfg.KafkaBrokers, log)
		defer publisher.Close()
		events = publisher
		log.WithField("brokers", cfg.KafkaBrokers).Info("event publishing enabled")
	}

	// Services (Use Cases)
	ledgerService := ledger.NewService(store, events)
	budgetService := budget.NewService(store, accountRepo, projectRepo)
	summaryService := summary.NewService(accountRepo, projectRepo, lineItemRepo, ledgerRepo)

	// Seed the standard accounts and the company wallet
	ctx := context.Background()
	if err := seeder.NewSeeder(accountRepo, walletRepo).Seed(ctx); err != nil {
		log.WithError(err).Fatal("failed to seed system accounts")
	}
	log.Info("system accounts seeded")

	// HTTP server
	apiServer := httpadapter.NewServer(
		ledgerService, budgetService, summaryService,
		accountRepo, walletRepo, projectRepo, lineItemRepo, ledgerRepo, log,
	)
	server := &nethttp.Server{
		Addr:    cfg.HTTPAddr,
		Handler: apiServer.Router(cfg.APIToken),
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	waitForShutdown(server, log)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully drains the
// server before exiting.
func waitForShutdown(server *nethttp.Server, log *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)

	log.Info("http server stopped")
}
