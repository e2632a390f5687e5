// internal/services/export_service_test.go
package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/StoryFlowMCP/internal/errors"
	"github.com/Corphon/StoryFlowMCP/internal/models"
	"github.com/Corphon/StoryFlowMCP/internal/storage"
)

func newTestExportService(t *testing.T) (*ExportService, *SessionService) {
	t.Helper()

	fileStorage, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	sessions := NewSessionService()
	scripts := NewScriptService(t.TempDir())
	return NewExportService(fileStorage, sessions, scripts), sessions
}

func seedSession(sessions *SessionService) *Session {
	session := sessions.CreateSession("lighthouse")
	session.Append(models.TranscriptEntry{Type: models.EntryMessage, Narrator: true, Text: "海雾漫过礁石。"})
	session.Append(models.TranscriptEntry{Type: models.EntryMessage, CharacterID: "keeper", CharacterName: "Old Keeper", Text: "今晚风不对劲。"})
	session.Append(models.TranscriptEntry{Type: models.EntryMenu, Options: []string{"询问灯塔", "离开"}})
	session.Append(models.TranscriptEntry{Type: models.EntryChoice, Choice: "询问灯塔"})
	session.Append(models.TranscriptEntry{Type: models.EntrySceneChange, FromScene: "start", ToScene: "tower"})
	session.Append(models.TranscriptEntry{Type: models.EntryFinished})
	sessions.FinishSession(session, SessionFinished)
	return session
}

func TestExportTranscript_JSON(t *testing.T) {
	svc, sessions := newTestExportService(t)
	session := seedSession(sessions)

	result, err := svc.ExportTranscript(session.ID, "json")
	require.NoError(t, err)

	assert.Equal(t, "json", result.Format)
	assert.Contains(t, result.FileName, session.ID)
	assert.Contains(t, result.FileName, ".json")

	var doc struct {
		SessionID  string                   `json:"session_id"`
		ScriptID   string                   `json:"script_id"`
		Status     string                   `json:"status"`
		Transcript []models.TranscriptEntry `json:"transcript"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Content), &doc))
	assert.Equal(t, session.ID, doc.SessionID)
	assert.Equal(t, "lighthouse", doc.ScriptID)
	assert.Equal(t, SessionFinished, doc.Status)
	assert.Len(t, doc.Transcript, 6)
}

func TestExportTranscript_Markdown(t *testing.T) {
	svc, sessions := newTestExportService(t)
	session := seedSession(sessions)

	result, err := svc.ExportTranscript(session.ID, "markdown")
	require.NoError(t, err)

	assert.Contains(t, result.Content, "*海雾漫过礁石。*")
	assert.Contains(t, result.Content, "**Old Keeper**: 今晚风不对劲。")
	assert.Contains(t, result.Content, "> - 询问灯塔")
	assert.Contains(t, result.Content, "选择了 **询问灯塔**")
	assert.Contains(t, result.Content, "—— start → tower ——")
	assert.Contains(t, result.Content, "*(完)*")
}

func TestExportTranscript_WritesFile(t *testing.T) {
	svc, sessions := newTestExportService(t)
	session := seedSession(sessions)

	result, err := svc.ExportTranscript(session.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "json", result.Format, "缺省导出为 json")

	data, readErr := os.ReadFile(result.FilePath)
	require.NoError(t, readErr)
	assert.Equal(t, result.Content, string(data))
	assert.Equal(t, filepath.Join(svc.Storage.BaseDir, result.FileName), result.FilePath)
}

func TestExportTranscript_Errors(t *testing.T) {
	svc, sessions := newTestExportService(t)

	_, err := svc.ExportTranscript("missing", "json")
	assert.True(t, apperrors.IsNotFoundError(err))

	session := seedSession(sessions)
	_, err = svc.ExportTranscript(session.ID, "pdf")
	assert.True(t, apperrors.IsValidationError(err))

	empty := sessions.CreateSession("lighthouse")
	_, err = svc.ExportTranscript(empty.ID, "json")
	assert.True(t, apperrors.IsValidationError(err))
}
