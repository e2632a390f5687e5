// internal/api/handlers.go
package api

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/StoryFlowMCP/internal/config"
	apperrors "github.com/Corphon/StoryFlowMCP/internal/errors"
	"github.com/Corphon/StoryFlowMCP/internal/services"
	"github.com/Corphon/StoryFlowMCP/internal/utils"
)

// Handler 处理API请求
type Handler struct {
	ScriptService  *services.ScriptService  // 脚本服务
	SessionService *services.SessionService // 会话服务
	ExportService  *services.ExportService  // 导出服务
	Response       *ResponseHelper          // 响应助手
}

// NewHandler 创建API处理器
func NewHandler(
	scriptService *services.ScriptService,
	sessionService *services.SessionService,
	exportService *services.ExportService,
) *Handler {
	return &Handler{
		ScriptService:  scriptService,
		SessionService: sessionService,
		ExportService:  exportService,
		Response:       NewResponseHelper(),
	}
}

// APIResponse 标准API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"` // 用于调试和追踪
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// CreateSessionRequest 创建播放会话的请求结构
type CreateSessionRequest struct {
	ScriptID string `json:"script_id"` // 要播放的脚本ID
}

// UpdateEngineSettingsRequest 引擎设置更新的请求结构
type UpdateEngineSettingsRequest struct {
	MaxSceneVisits      int  `json:"max_scene_visits"`
	NarratorAsCharacter bool `json:"narrator_as_character"`
}

// ScriptSummary 脚本列表项
type ScriptSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Characters int    `json:"characters"`
	Scenes     int    `json:"scenes"`
}

// ------------------------------------------------
// 脚本相关处理器
// ------------------------------------------------

// GetScripts 返回全部已加载脚本的摘要
func (h *Handler) GetScripts(c *gin.Context) {
	scripts := h.ScriptService.ListScripts()

	summaries := make([]ScriptSummary, 0, len(scripts))
	for _, script := range scripts {
		summaries = append(summaries, ScriptSummary{
			ID:         script.ID,
			Title:      script.Title,
			Characters: len(script.Characters),
			Scenes:     len(script.Scenes),
		})
	}

	h.Response.Success(c, summaries)
}

// GetScript 返回单个脚本的完整内容
func (h *Handler) GetScript(c *gin.Context) {
	id := c.Param("id")

	script, err := h.ScriptService.GetScript(id)
	if err != nil {
		h.Response.NotFound(c, "脚本", id)
		return
	}

	h.Response.Success(c, script)
}

// ImportScript 导入一份YAML脚本（请求体为原始YAML文本）
func (h *Handler) ImportScript(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.Response.BadRequest(c, "读取请求体失败", err.Error())
		return
	}
	if len(data) == 0 {
		h.Response.BadRequest(c, "请求体为空")
		return
	}

	script, err := h.ScriptService.ImportScript(data)
	if err != nil {
		if apperrors.IsValidationError(err) {
			h.Response.Error(c, 400, ErrorScriptInvalid, err.Error())
			return
		}
		h.Response.InternalError(c, "导入脚本失败", err.Error())
		return
	}

	h.Response.Created(c, script, "脚本导入成功")
}

// ------------------------------------------------
// 会话相关处理器
// ------------------------------------------------

// GetSessions 返回全部播放会话摘要
func (h *Handler) GetSessions(c *gin.Context) {
	h.Response.Success(c, h.SessionService.ListSessions())
}

// CreateSession 为指定脚本创建一个播放会话
//
// 会话创建后处于 created 状态，通过 /ws/play/:session_id 接入后开始播放。
func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}
	if req.ScriptID == "" {
		h.Response.BadRequest(c, "script_id 不能为空")
		return
	}

	if _, err := h.ScriptService.GetScript(req.ScriptID); err != nil {
		h.Response.NotFound(c, "脚本", req.ScriptID)
		return
	}

	session := h.SessionService.CreateSession(req.ScriptID)
	h.Response.Created(c, session.Summary(), "会话创建成功")
}

// GetSession 返回单个会话的摘要
func (h *Handler) GetSession(c *gin.Context) {
	session, ok := h.SessionService.GetSession(c.Param("id"))
	if !ok {
		h.Response.NotFound(c, "会话", c.Param("id"))
		return
	}

	h.Response.Success(c, session.Summary())
}

// GetTranscript 返回会话的播放抄本
func (h *Handler) GetTranscript(c *gin.Context) {
	session, ok := h.SessionService.GetSession(c.Param("id"))
	if !ok {
		h.Response.NotFound(c, "会话", c.Param("id"))
		return
	}

	h.Response.Success(c, session.Transcript())
}

// ExportSession 导出会话抄本，格式由 format 查询参数指定
func (h *Handler) ExportSession(c *gin.Context) {
	sessionID := c.Param("id")
	format := c.DefaultQuery("format", "json")

	result, err := h.ExportService.ExportTranscript(sessionID, format)
	if err != nil {
		switch {
		case apperrors.IsNotFoundError(err):
			h.Response.NotFound(c, "会话", sessionID)
		case apperrors.IsValidationError(err):
			h.Response.Error(c, 400, ErrorExportFormatInvalid, err.Error())
		default:
			h.Response.Error(c, 500, ErrorExportFailed, "导出失败", err.Error())
		}
		return
	}

	h.Response.ExportResponse(c, result, format)
}

// ------------------------------------------------
// 设置与统计
// ------------------------------------------------

// GetSettings 返回当前引擎设置
func (h *Handler) GetSettings(c *gin.Context) {
	cfg := config.GetCurrentConfig()
	h.Response.Success(c, gin.H{
		"max_scene_visits":      cfg.MaxSceneVisits,
		"narrator_as_character": cfg.NarratorAsCharacter,
		"debug_mode":            cfg.DebugMode,
	})
}

// SaveSettings 更新引擎设置并持久化
func (h *Handler) SaveSettings(c *gin.Context) {
	var req UpdateEngineSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}
	if req.MaxSceneVisits < 0 {
		h.Response.BadRequest(c, "max_scene_visits 不能为负数")
		return
	}

	if err := config.UpdateEngineConfig(req.MaxSceneVisits, req.NarratorAsCharacter); err != nil {
		h.Response.InternalError(c, "保存设置失败", err.Error())
		return
	}

	h.Response.Success(c, nil, "设置已保存")
}

// GetStats 返回引擎运行指标
func (h *Handler) GetStats(c *gin.Context) {
	h.Response.Success(c, gin.H{
		"metrics":   utils.GetMetricsCollector().Snapshot(),
		"play":      playManager.Status(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
