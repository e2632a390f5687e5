// internal/services/export_service.go
package services

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/Corphon/StoryFlowMCP/internal/errors"
	"github.com/Corphon/StoryFlowMCP/internal/models"
	"github.com/Corphon/StoryFlowMCP/internal/storage"
)

// ExportService 把播放抄本导出为可分享的文档
type ExportService struct {
	Storage  *storage.FileStorage
	Sessions *SessionService
	Scripts  *ScriptService
}

// NewExportService 创建导出服务
func NewExportService(fileStorage *storage.FileStorage, sessions *SessionService, scripts *ScriptService) *ExportService {
	return &ExportService{
		Storage:  fileStorage,
		Sessions: sessions,
		Scripts:  scripts,
	}
}

// ExportTranscript 导出指定会话的抄本
//
// 支持 json 和 markdown 两种格式；导出文件落盘到存储目录，
// 内容同时随结果返回。
func (s *ExportService) ExportTranscript(sessionID, format string) (*models.ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "markdown" {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("不支持的导出格式: %s，支持的格式: [json markdown]", format), nil)
	}

	session, ok := s.Sessions.GetSession(sessionID)
	if !ok {
		return nil, apperrors.NewNotFoundError(
			fmt.Sprintf("会话不存在: %s", sessionID), nil)
	}

	entries := session.Transcript()
	if len(entries) == 0 {
		return nil, apperrors.NewValidationError("会话抄本为空，没有可导出的内容", nil)
	}

	title := session.ScriptID
	if script, err := s.Scripts.GetScript(session.ScriptID); err == nil && script.Title != "" {
		title = script.Title
	}

	var content string
	var ext string
	var err error
	switch format {
	case "json":
		content, err = s.formatJSON(session, title, entries)
		ext = ".json"
	case "markdown":
		content = s.formatMarkdown(session, title, entries)
		ext = ".md"
	}
	if err != nil {
		return nil, fmt.Errorf("生成导出内容失败: %w", err)
	}

	now := time.Now()
	fileName := fmt.Sprintf("%s_%s%s", sessionID, now.Format("20060102_150405"), ext)

	result := &models.ExportResult{
		SessionID: sessionID,
		ScriptID:  session.ScriptID,
		Format:    format,
		FileName:  fileName,
		Content:   content,
		CreatedAt: now,
	}

	if s.Storage != nil {
		if err := s.Storage.SaveTextFile("", fileName, []byte(content)); err != nil {
			return nil, fmt.Errorf("保存导出文件失败: %w", err)
		}
		result.FilePath = filepath.Join(s.Storage.BaseDir, fileName)
	}

	return result, nil
}

// exportDocument JSON 导出的文档结构
type exportDocument struct {
	SessionID  string                   `json:"session_id"`
	ScriptID   string                   `json:"script_id"`
	Title      string                   `json:"title"`
	Status     string                   `json:"status"`
	ExportedAt time.Time                `json:"exported_at"`
	Transcript []models.TranscriptEntry `json:"transcript"`
}

func (s *ExportService) formatJSON(session *Session, title string, entries []models.TranscriptEntry) (string, error) {
	doc := exportDocument{
		SessionID:  session.ID,
		ScriptID:   session.ScriptID,
		Title:      title,
		Status:     session.Status(),
		ExportedAt: time.Now(),
		Transcript: entries,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *ExportService) formatMarkdown(session *Session, title string, entries []models.TranscriptEntry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- 会话: %s\n", session.ID)
	fmt.Fprintf(&b, "- 脚本: %s\n", session.ScriptID)
	fmt.Fprintf(&b, "- 状态: %s\n", session.Status())
	fmt.Fprintf(&b, "- 导出时间: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	b.WriteString("---\n\n")

	for _, entry := range entries {
		switch entry.Type {
		case models.EntryMessage:
			if entry.Narrator {
				fmt.Fprintf(&b, "*%s*\n\n", entry.Text)
			} else {
				fmt.Fprintf(&b, "**%s**: %s\n\n", entry.CharacterName, entry.Text)
			}
		case models.EntryMenu:
			b.WriteString("> 选择:\n")
			for _, option := range entry.Options {
				fmt.Fprintf(&b, "> - %s\n", option)
			}
			b.WriteString("\n")
		case models.EntryChoice:
			fmt.Fprintf(&b, "> ✦ 选择了 **%s**\n\n", entry.Choice)
		case models.EntrySceneChange:
			fmt.Fprintf(&b, "—— %s → %s ——\n\n", entry.FromScene, entry.ToScene)
		case models.EntryFinished:
			b.WriteString("*(完)*\n")
		case models.EntryError:
			fmt.Fprintf(&b, "> ⚠ %s: %s\n\n", entry.ErrorCode, entry.ErrorMessage)
		}
	}

	return b.String()
}
