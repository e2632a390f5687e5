// internal/app/app.go
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Corphon/StoryFlowMCP/internal/config"
	"github.com/Corphon/StoryFlowMCP/internal/di"
	"github.com/Corphon/StoryFlowMCP/internal/services"
	"github.com/Corphon/StoryFlowMCP/internal/storage"
	"github.com/Corphon/StoryFlowMCP/internal/utils"
)

// App 应用实例，持有配置和停止信号
type App struct {
	config   *config.AppConfig
	stopChan chan os.Signal
}

var instance *App

// GetApp 返回全局应用实例（单例）
func GetApp() *App {
	if instance == nil {
		instance = &App{
			stopChan: make(chan os.Signal, 1),
		}
	}
	return instance
}

// Initialize 初始化应用：配置系统、日志、全部服务
func (app *App) Initialize(dataDir string) error {
	if err := config.InitConfig(dataDir); err != nil {
		return fmt.Errorf("初始化配置系统失败: %w", err)
	}
	app.config = config.GetCurrentConfig()

	if err := app.initLogger(); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}

	if err := InitServices(); err != nil {
		return fmt.Errorf("初始化服务失败: %w", err)
	}

	return nil
}

// initLogger 把日志落到配置的日志目录
func (app *App) initLogger() error {
	logDir := app.config.LogDir
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	if err := utils.InitLogger(filepath.Join(logDir, "storyflow.log")); err != nil {
		return err
	}
	if app.config.DebugMode {
		utils.GetLogger().SetLogLevel(utils.DEBUG)
	}
	return nil
}

// InitServices 按依赖顺序初始化并注册所有服务
func InitServices() error {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	// 脚本服务
	scriptService := services.NewScriptService(cfg.ScriptsDir)
	if err := scriptService.LoadAll(); err != nil {
		return fmt.Errorf("加载脚本失败: %w", err)
	}
	container.Register("script", scriptService)

	// 会话服务
	sessionService := services.NewSessionService()
	container.Register("session", sessionService)

	// 导出服务依赖会话和脚本服务
	exportStorage, err := storage.NewFileStorage(cfg.ExportsDir)
	if err != nil {
		return fmt.Errorf("创建导出存储失败: %w", err)
	}
	exportService := services.NewExportService(exportStorage, sessionService, scriptService)
	container.Register("export", exportService)

	return nil
}

// GetConfig 返回应用配置
func (app *App) GetConfig() *config.AppConfig {
	return app.config
}

// GetDIContainer 返回全局依赖注入容器
func GetDIContainer() *di.Container {
	return di.GetContainer()
}

// IsDebugMode 检查是否处于调试模式
func IsDebugMode() bool {
	if instance == nil || instance.config == nil {
		return false
	}
	return instance.config.DebugMode
}
