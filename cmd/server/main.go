// LunBan 门店周排班引擎服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lunban/lunban/internal/config"
	"github.com/lunban/lunban/internal/constraints"
	"github.com/lunban/lunban/internal/database"
	"github.com/lunban/lunban/internal/handler"
	"github.com/lunban/lunban/internal/metrics"
	"github.com/lunban/lunban/internal/middleware"
	"github.com/lunban/lunban/internal/repository"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/scheduler"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// .env 不存在时静默跳过
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	fmt.Printf("LunBan 周排班引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("数据库初始化失败")
	}
	defer db.Close()

	m := metrics.New()

	scheduleRepo := repository.NewScheduleRepository(db)
	talentRepo := repository.NewTalentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	engineCfg := scheduler.DefaultConfig()
	engineCfg.MinRest = cfg.Scheduler.MinRest
	engineCfg.MaxConsecutiveDays = cfg.Scheduler.MaxConsecutiveDays
	engineCfg.HistoryDays = cfg.Scheduler.HistoryDays
	engineCfg.CountHistoryInWeeklyHours = cfg.Scheduler.CountHistoryInWeeklyHours

	scheduleHandler := handler.NewScheduleHandler(engineCfg, scheduleRepo, talentRepo, catalogRepo, m)
	statsHandler := handler.NewStatsHandler(scheduleRepo, talentRepo, catalogRepo)

	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.Health(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded","service":"lunban","database":"down"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"lunban"}`))
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "LunBan 周排班引擎 API v1",
			"endpoints": {
				"schedule": {
					"generate": "POST /api/v1/schedule/generate",
					"commit": "POST /api/v1/schedule/commit",
					"validate": "POST /api/v1/schedule/validate",
					"status": "GET /api/v1/schedule/status?week_anchor=YYYY-MM-DD",
					"list": "GET /api/v1/schedules",
					"detail": "GET /api/v1/schedules/{id}",
					"update_status": "PATCH /api/v1/schedules/{id}/status",
					"delete": "DELETE /api/v1/schedules/{id}"
				},
				"constraints": {
					"library": "GET /api/v1/constraints/library"
				},
				"stats": {
					"week": "GET /api/v1/stats/week?week_anchor=YYYY-MM-DD"
				}
			}
		}`))
	})

	mux.HandleFunc("/api/v1/schedule/generate", scheduleHandler.Generate)
	mux.HandleFunc("/api/v1/schedule/commit", scheduleHandler.Commit)
	mux.HandleFunc("/api/v1/schedule/validate", scheduleHandler.Validate)
	mux.HandleFunc("/api/v1/schedule/status", scheduleHandler.Status)
	mux.HandleFunc("/api/v1/schedules", scheduleHandler.List)
	mux.HandleFunc("/api/v1/schedules/", scheduleHandler.Detail)

	mux.HandleFunc("/api/v1/constraints/library", constraints.Handler)

	mux.HandleFunc("/api/v1/stats/week", statsHandler.WeekStats)

	// ========================================
	// 监控端点
	// ========================================

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, m.Handler())
	}

	// 中间件执行顺序：requestID -> recovery -> rateLimit -> cors -> logging -> handler
	limiter := middleware.NewRateLimiter(100)
	root := middleware.RequestID(
		middleware.Recovery(
			middleware.RateLimit(limiter)(
				middleware.CORS(
					middleware.Logging(m)(mux)))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}
