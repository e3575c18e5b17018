package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Brandonkhumalo/ShopSync/internal/config"
	"github.com/Brandonkhumalo/ShopSync/internal/db"
	"github.com/Brandonkhumalo/ShopSync/internal/handler"
	"github.com/Brandonkhumalo/ShopSync/internal/repository"
	"github.com/Brandonkhumalo/ShopSync/internal/server"
	"github.com/Brandonkhumalo/ShopSync/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	if err := repository.InitSchema(ctx, pg); err != nil {
		logger.Error("failed to init schema", "err", err)
		os.Exit(1)
	}
	if err := repository.SeedAdmin(ctx, pg, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("failed to seed admin user", "err", err)
		os.Exit(1)
	}

	// repositories
	shopRepo := repository.ShopRepository{DB: pg}
	itemRepo := repository.ItemRepository{DB: pg}
	saleRepo := repository.SaleRepository{DB: pg}
	debtRepo := repository.DebtRepository{DB: pg}
	syncRepo := repository.SyncRepository{DB: pg}
	licenseRepo := repository.LicenseRepository{DB: pg}
	adminRepo := repository.AdminRepository{DB: pg}

	// services
	syncSvc := service.SyncService{Store: syncRepo, Logger: logger}
	licenseSvc := service.LicenseService{Store: licenseRepo, Logger: logger}
	adminSvc := service.AdminService{Config: cfg, Store: adminRepo, Logger: logger}

	// handlers
	healthHandler := handler.HealthHandler{DB: pg}
	shopHandler := handler.ShopHandler{Repo: shopRepo}
	itemHandler := handler.ItemHandler{Repo: itemRepo}
	saleHandler := handler.SaleHandler{Repo: saleRepo}
	debtHandler := handler.DebtHandler{Repo: debtRepo}
	syncHandler := handler.SyncHandler{Service: syncSvc}
	licenseHandler := handler.LicenseHandler{Service: licenseSvc}
	adminHandler := handler.AdminHandler{Service: adminSvc}

	router := server.NewRouter(cfg, logger, licenseSvc,
		healthHandler, shopHandler, itemHandler, saleHandler, debtHandler,
		syncHandler, licenseHandler, adminHandler)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
