/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hrdesk/hri-gin/internal/api"
	"github.com/hrdesk/hri-gin/internal/config"
	"github.com/hrdesk/hri-gin/internal/database"
	"github.com/hrdesk/hri-gin/internal/metrics"
	"github.com/hrdesk/hri-gin/internal/notify"
	"github.com/hrdesk/hri-gin/internal/repository"
	"github.com/hrdesk/hri-gin/internal/service"
	"github.com/hrdesk/hri-gin/internal/workflow"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the HRI Gin API server.
The server will listen on the configured host and port,
and provide REST API interfaces for HR request management.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 初始化日志
		logger, err := api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		// 3. 连接数据库
		db, err := database.ConnectWithRetry(cfg.Database, 5, 2*time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}()

		// 4. 初始化工作流引擎
		dir := repository.NewDirectoryRepository(db)
		forms := repository.NewFormTypeRepository(db)
		calendar := workflow.NewFixedZoneCalendar(cfg.Calendar.Timezone)
		engine := workflow.NewEngine(db, dir, forms, calendar, logger)

		// 5. 初始化 WebSocket Hub 并接入引擎
		hub := notify.NewHub()
		go hub.Run()
		engine.SetNotifier(notify.NewStatusNotifier(hub))

		// 6. 初始化服务
		auditLogSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
		requestSvc := service.NewRequestService(engine, auditLogSvc)

		// 7. 启动指标收集器
		collector := metrics.NewCollector(db, 30*time.Second)
		collector.Start()
		defer collector.Stop()

		// 8. 设置路由
		router := api.SetupRoutes(db, cfg, requestSvc, hub)
		router.NoRoute(func(c *gin.Context) {
			api.Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
		})

		// 9. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		// 启动服务器（在 goroutine 中）
		go func() {
			logger.WithField("addr", addr).Info("server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Fatal("failed to start server")
			}
		}()

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down server")

		// 优雅关闭
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Fatal("server forced to shutdown")
		}

		logger.Info("server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// 服务器配置标志
	serverCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
	serverCmd.Flags().String("host", "0.0.0.0", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
}

// LoadConfig 加载配置
func LoadConfig(configPath string) (*config.Config, error) {
	return config.Load(configPath)
}
