package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/tenderwizard/backend/config"
	"github.com/tenderwizard/backend/internal/handler"
	"github.com/tenderwizard/backend/internal/pkg/database"
	"github.com/tenderwizard/backend/internal/repository"
	"github.com/tenderwizard/backend/internal/router"
	"github.com/tenderwizard/backend/internal/service"
)

func main() {
	// 初始化 klog
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg := config.GetConfig()

	// sqlite 数据文件所在目录需要先存在
	if cfg.Database.Type != "mysql" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	// 初始化数据库
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化 Repository
	templateRepo := repository.NewTemplateRepository(db)
	mappingRepo := repository.NewMappingRepository(db)
	configRepo := repository.NewAPIConfigRepository(db)
	tableRepo := repository.NewDataTableRepository(db)

	// 初始化 Service
	templateService := service.NewTemplateService(templateRepo, mappingRepo)
	mappingService := service.NewMappingService(mappingRepo, templateRepo)
	tableService := service.NewDataTableService(tableRepo)
	configService := service.NewAPIConfigService(configRepo)
	wizardService := service.NewWizardService(tableRepo, mappingRepo, templateRepo, configRepo, cfg)

	// 初始化 Handler
	dataHandler := handler.NewDataHandler(tableService)
	templateHandler := handler.NewTemplateHandler(templateService)
	mappingHandler := handler.NewMappingHandler(mappingService)
	wizardHandler := handler.NewWizardHandler(wizardService)
	configHandler := handler.NewAPIConfigHandler(configService)

	// 设置路由
	r := router.Setup(cfg, dataHandler, templateHandler, mappingHandler, wizardHandler, configHandler)

	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
