package main

import (
	"errors"
	"os"

	"github.com/LJTian/CompetitorTracker/internal/api"
	"github.com/LJTian/CompetitorTracker/internal/config"
	"github.com/LJTian/CompetitorTracker/internal/storage"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// 只读的报告浏览服务：列出已生成的日报并按日期返回 Markdown
func main() {
	cfg, err := config.Load("")
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		log.Fatal("load config failed", "err", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "api"})
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	store := storage.NewStore(cfg.OutputDir)

	r := gin.Default()
	api.NewServer(store).RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	logger.Info("starting api server", "addr", addr, "reports", cfg.OutputDir)
	if err := r.Run(addr); err != nil {
		logger.Fatal("server exit", "err", err)
	}
}
