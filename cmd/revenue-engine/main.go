package main

import (
	"fmt"
	"os"

	"github.com/nurpe/revenue-engine/internal/auth"
	"github.com/nurpe/revenue-engine/internal/config"
	"github.com/nurpe/revenue-engine/internal/db"
	"github.com/nurpe/revenue-engine/internal/excel"
	httphandler "github.com/nurpe/revenue-engine/internal/http"
	"github.com/nurpe/revenue-engine/internal/http/middleware"
	"github.com/nurpe/revenue-engine/internal/logger"
	"github.com/nurpe/revenue-engine/internal/pdf"
	"github.com/nurpe/revenue-engine/internal/repository"
	"github.com/nurpe/revenue-engine/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	contractRepo := repository.NewContractRepository(database)
	scheduleRepo := repository.NewScheduleRepository(database)
	ruleRepo := repository.NewRuleRepository(database)
	commissionRepo := repository.NewCommissionRepository(database)

	scheduleService := service.NewScheduleService(contractRepo, scheduleRepo, cfg, log)
	ruleService := service.NewRuleService(ruleRepo, log)
	commissionService := service.NewCommissionService(
		commissionRepo, scheduleRepo, contractRepo, ruleService, scheduleService, cfg, log,
	)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(
		scheduleService, commissionService, ruleService,
		excel.NewGenerator(), pdf.NewGenerator(), log,
	)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting revenue engine")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
