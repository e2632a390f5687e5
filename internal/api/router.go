// internal/api/router.go
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/StoryFlowMCP/internal/config"
	"github.com/Corphon/StoryFlowMCP/internal/di"
	"github.com/Corphon/StoryFlowMCP/internal/services"
)

// SetupRouter 配置HTTP路由
func SetupRouter() (*gin.Engine, error) {
	// 获取配置
	cfg := config.GetCurrentConfig()

	// 获取依赖注入容器
	container := di.GetContainer()

	// 只从容器获取服务，不再创建新实例
	scriptService, ok := container.Get("script").(*services.ScriptService)
	if !ok {
		return nil, fmt.Errorf("脚本服务未正确初始化")
	}

	sessionService, ok := container.Get("session").(*services.SessionService)
	if !ok {
		return nil, fmt.Errorf("会话服务未正确初始化")
	}

	exportService, ok := container.Get("export").(*services.ExportService)
	if !ok {
		return nil, fmt.Errorf("导出服务未正确初始化")
	}

	handler := NewHandler(scriptService, sessionService, exportService)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	r := gin.Default()

	// 启用CORS
	r.Use(corsMiddleware())

	// 静态文件服务（播放页面）
	r.Static("/static", cfg.StaticDir)
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/static/index.html")
	})

	// WebSocket 播放入口
	r.GET("/ws/play/:id", handler.PlayWebSocket)

	// ===============================
	// API路由组
	// ===============================
	api := r.Group("/api")
	api.Use(DefaultRateLimit())
	{
		// ===============================
		// 脚本相关路由
		// ===============================
		scriptsGroup := api.Group("/scripts")
		{
			scriptsGroup.GET("", handler.GetScripts)
			scriptsGroup.POST("", ImportRateLimit(), handler.ImportScript)
			scriptsGroup.GET("/:id", handler.GetScript)
		}

		// ===============================
		// 会话相关路由
		// ===============================
		sessionsGroup := api.Group("/sessions")
		{
			sessionsGroup.GET("", handler.GetSessions)
			sessionsGroup.POST("", handler.CreateSession)
			sessionsGroup.GET("/:id", handler.GetSession)
			sessionsGroup.GET("/:id/transcript", handler.GetTranscript)
			sessionsGroup.GET("/:id/export", handler.ExportSession)
		}

		// ===============================
		// 设置相关路由
		// ===============================
		settingsGroup := api.Group("/settings")
		{
			settingsGroup.GET("", handler.GetSettings)
			settingsGroup.POST("", handler.SaveSettings)
		}

		// ===============================
		// 统计与管理
		// ===============================
		api.GET("/stats", handler.GetStats)
		api.POST("/play/cleanup", handler.ClosePlayConnections)
	}

	return r, nil
}

// corsMiddleware 实现跨域资源共享
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
