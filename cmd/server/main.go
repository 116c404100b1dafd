package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/agrocampo/campo-backend/internal/config"
	"github.com/agrocampo/campo-backend/internal/repository/mongodb"
	"github.com/agrocampo/campo-backend/internal/scheduler"
	"github.com/agrocampo/campo-backend/internal/server/handlers"
	"github.com/agrocampo/campo-backend/internal/server/router"
	commandsvc "github.com/agrocampo/campo-backend/internal/service/commands"
	loadsvc "github.com/agrocampo/campo-backend/internal/service/load"
	recatsvc "github.com/agrocampo/campo-backend/internal/service/recategorization"
	whatsappsvc "github.com/agrocampo/campo-backend/internal/service/whatsapp"
	whatsappclient "github.com/agrocampo/campo-backend/pkg/clients/whatsapp"
	"github.com/agrocampo/campo-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	repo, err := mongodb.NewRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	location := cfg.Location()

	loadSvc := loadsvc.NewService(repo, location, cfg.Load.Epsilon, baseLogger.Named("svc.load"))
	recatSvc := recatsvc.NewService(repo, baseLogger.Named("svc.recategorization"))
	dispatcher := commandsvc.NewService(repo, loadSvc, baseLogger.Named("svc.commands"))

	whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
	messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, dispatcher, baseLogger.Named("svc.whatsapp"))

	webhookHandler := handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
	loadHandler := handlers.NewLoadHandler(loadSvc, repo, location, baseLogger.Named("handlers.load"))
	recatHandler := handlers.NewRecategorizationHandler(recatSvc, repo, location, baseLogger.Named("handlers.recategorization"))
	farmHandler := handlers.NewFarmHandler(repo, baseLogger.Named("handlers.farms"))

	engine := router.New(webhookHandler, loadHandler, recatHandler, farmHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, loadSvc, recatSvc, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
