// internal/api/websocket_handlers.go
package api

import (
	stderrors "errors"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/StoryFlowMCP/internal/config"
	apperrors "github.com/Corphon/StoryFlowMCP/internal/errors"
	"github.com/Corphon/StoryFlowMCP/internal/flow"
	"github.com/Corphon/StoryFlowMCP/internal/models"
	"github.com/Corphon/StoryFlowMCP/internal/services"
	"github.com/Corphon/StoryFlowMCP/internal/utils"
)

// PlayWebSocket 通过 WebSocket 播放一个会话
//
// 连接建立后服务端立即从 start 场景开始推送播放帧；
// 菜单帧要求客户端回一个 choice 帧才会继续。
// 连接断开时播放终止，会话状态和抄本保留，可供事后导出。
func (h *Handler) PlayWebSocket(c *gin.Context) {
	sessionID := c.Param("id")

	session, ok := h.SessionService.GetSession(sessionID)
	if !ok {
		h.Response.NotFound(c, "会话", sessionID)
		return
	}
	if session.Status() != services.SessionCreated {
		h.Response.Error(c, 409, ErrorSessionBusy,
			"会话已播放过，请创建新会话", session.Status())
		return
	}

	script, err := h.ScriptService.GetScript(session.ScriptID)
	if err != nil {
		h.Response.NotFound(c, "脚本", session.ScriptID)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket 升级失败 (会话: %s): %v", sessionID, err)
		return
	}

	client := newPlayClient(conn, sessionID)
	if err := playManager.Add(client); err != nil {
		client.SendFrame(models.PlayFrame{
			Type:    models.FrameError,
			Code:    ErrorSessionBusy,
			Message: err.Error(),
		})
		conn.Close()
		return
	}
	defer playManager.Remove(client)

	renderer := newWSRenderer(client, session, config.GetCurrentConfig().NarratorAsCharacter)

	go client.writePump()
	go client.readPump(renderer)

	h.runPlay(c, client, session, script, renderer)
}

// runPlay 构造故事实例并在当前 goroutine 上跑完整个播放
func (h *Handler) runPlay(c *gin.Context, client *playClient, session *services.Session,
	script *models.Script, renderer *wsRenderer) {

	cfg := config.GetCurrentConfig()
	metrics := utils.GetMetricsCollector()

	opts := h.ScriptService.BuildOptions(script, flow.Options{
		Renderer:  renderer,
		MaxVisits: cfg.MaxSceneVisits,
		OnSceneChange: func(from, to string) {
			metrics.Counter(utils.MetricScenesVisited).Inc()
			session.Append(models.TranscriptEntry{
				Type:      models.EntrySceneChange,
				FromScene: from,
				ToScene:   to,
			})
			client.SendFrame(models.PlayFrame{
				Type:      models.FrameScene,
				FromScene: from,
				ToScene:   to,
			})
		},
		OnFinish: func() {
			session.Append(models.TranscriptEntry{Type: models.EntryFinished})
			client.SendFrame(models.PlayFrame{Type: models.FrameFinished})
		},
		OnError: func(err error) error {
			metrics.Counter(utils.MetricErrorsHooked).Inc()
			code, message := describePlayError(err)
			session.Append(models.TranscriptEntry{
				Type:         models.EntryError,
				ErrorCode:    code,
				ErrorMessage: message,
			})
			client.SendFrame(models.PlayFrame{
				Type:    models.FrameError,
				Code:    code,
				Message: message,
			})
			return err
		},
	})

	story, err := flow.New(opts)
	if err != nil {
		log.Printf("构造故事失败 (会话: %s): %v", session.ID, err)
		client.SendFrame(models.PlayFrame{
			Type:    models.FrameError,
			Code:    ErrorPlayFailed,
			Message: err.Error(),
		})
		h.SessionService.FinishSession(session, services.SessionErrored)
		client.Close()
		return
	}

	session.SetStory(story)
	session.SetStatus(services.SessionPlaying)

	playErr := story.Start(c.Request.Context())
	if playErr != nil {
		log.Printf("播放出错 (会话: %s): %v", session.ID, playErr)
		h.SessionService.FinishSession(session, services.SessionErrored)
	} else {
		h.SessionService.FinishSession(session, services.SessionFinished)
	}

	// 给写泵一点时间把尾帧刷出去再关闭
	time.Sleep(100 * time.Millisecond)
	client.Close()
}

// describePlayError 把引擎错误翻译成播放帧的错误代码和文案
func describePlayError(err error) (code, message string) {
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code, appErr.Message
	}
	return ErrorPlayFailed, err.Error()
}

// ClosePlayConnections 关闭全部活跃播放连接（管理用）
func (h *Handler) ClosePlayConnections(c *gin.Context) {
	playManager.Shutdown()
	h.Response.Success(c, nil, "播放连接已全部关闭")
}
