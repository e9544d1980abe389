package main

import (
	"flag"
	"log"
	"os"
	"time"

	"k8s.io/klog/v2"

	"github.com/jalonsogo/figma-conveyor/config"
	"github.com/jalonsogo/figma-conveyor/internal/eventbus"
	"github.com/jalonsogo/figma-conveyor/internal/handler"
	"github.com/jalonsogo/figma-conveyor/internal/pkg/database"
	"github.com/jalonsogo/figma-conveyor/internal/repository"
	"github.com/jalonsogo/figma-conveyor/internal/router"
	"github.com/jalonsogo/figma-conveyor/internal/service"
	"github.com/jalonsogo/figma-conveyor/internal/service/orchestrator"
	"github.com/jalonsogo/figma-conveyor/internal/subscriber"
)

func main() {
	// 初始化 klog
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg := config.GetConfig()

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// 初始化数据库
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化 Repository
	docRepo := repository.NewDocumentRepository(db)
	runRepo := repository.NewRunRepository(db)

	// 初始化运行调度器，默认单 worker，保证同一时刻只有一个生成在修改文档
	if err := orchestrator.InitGlobalOrchestrator(cfg.Generation.Workers); err != nil {
		log.Fatalf("Failed to initialize orchestrator: %v", err)
	}
	defer orchestrator.ShutdownGlobalOrchestrator()
	orch := orchestrator.GetGlobalOrchestrator()

	// 运行事件
	runBus := eventbus.NewRunEventBus()
	subscriber.NewRunEventSubscriber(runRepo).Register(runBus)

	// 初始化 Service
	docService := service.NewDocumentService(docRepo)
	sessionService := service.NewSessionService(cfg, docService, runRepo, orch, runBus)

	// 初始化 Handler
	docHandler := handler.NewDocumentHandler(docService)
	sessionHandler := handler.NewSessionHandler(sessionService)

	cleanupStuckRuns(runRepo, cfg.Generation.Timeout)

	// 设置路由
	r := router.Setup(cfg, docHandler, sessionHandler, orch)

	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// cleanupStuckRuns 清理上次退出时未结束的运行
func cleanupStuckRuns(runRepo repository.RunRepository, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	affected, err := runRepo.CleanupStuckRuns(timeout)
	if err != nil {
		klog.V(6).Infof("清理卡住运行失败: %v", err)
		return
	}
	if affected > 0 {
		klog.V(6).Infof("启动时清理了 %d 个卡住的运行", affected)
	}
}
