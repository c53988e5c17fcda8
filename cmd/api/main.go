package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tiffinbox/internal/config"
	"tiffinbox/internal/db"
	"tiffinbox/internal/httpserver"
	"tiffinbox/internal/logger"
	"tiffinbox/internal/notify"
	customerrepo "tiffinbox/internal/repository/customer"
	menurepo "tiffinbox/internal/repository/menu"
	orderrepo "tiffinbox/internal/repository/order"
	approvalsvc "tiffinbox/internal/service/approval"
	cartsvc "tiffinbox/internal/service/cart"
	ordersvc "tiffinbox/internal/service/order"
	plansvc "tiffinbox/internal/service/plan"
	"tiffinbox/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("production")
		fallback.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Env)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to db")
	}
	defer dbpool.Close()

	receipts, err := storage.New(ctx, storage.Options{
		Bucket:    cfg.ReceiptBucket,
		Region:    cfg.ReceiptS3Region,
		Endpoint:  cfg.ReceiptS3Endpoint,
		AccessKey: cfg.ReceiptS3AccessKey,
		SecretKey: cfg.ReceiptS3SecretKey,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init receipt storage")
	}

	menuRepo := menurepo.NewPostgres(dbpool, log)
	customerRepo := customerrepo.NewPostgres(dbpool, log)
	orderRepo := orderrepo.NewPostgres(dbpool, log)

	planService := plansvc.New(customerRepo, orderRepo, receipts, log, plansvc.Options{
		RevokeOnRenewal: cfg.RenewalRevokesPlan,
	})
	cartService := cartsvc.New(planService, menuRepo)
	orderService := ordersvc.New(orderRepo, customerRepo, menuRepo, cartService, log)
	approvalService := approvalsvc.New(planService, orderService, customerRepo, orderRepo, receipts, log)

	listener := notify.NewListener(dbpool, log)
	listenCtx, stopListener := context.WithCancel(ctx)
	defer stopListener()
	go func() {
		if err := listener.Run(listenCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("notify listener stopped")
		}
	}()

	srv, err := httpserver.New(cfg.HTTPAddr, log, dbpool, httpserver.Deps{
		MenuSvc:     menuRepo,
		CartSvc:     cartService,
		PlanSvc:     planService,
		OrderSvc:    orderService,
		ApprovalSvc: approvalService,
		Events:      listener,
	}, cfg.CORSOrigins)
	if err != nil {
		log.Fatal().Err(err).Msg("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		log.Info().Msg("server stopped")
	}
}
