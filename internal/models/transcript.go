// internal/models/transcript.go
package models

import "time"

// TranscriptEntryType 表示抄本条目的类型
type TranscriptEntryType string

const (
	// EntryMessage 一行归属于某个角色的对话
	EntryMessage TranscriptEntryType = "MESSAGE"
	// EntryMenu 一次菜单呈现
	EntryMenu TranscriptEntryType = "MENU"
	// EntryChoice 玩家做出的选择
	EntryChoice TranscriptEntryType = "CHOICE"
	// EntrySceneChange 一次场景切换
	EntrySceneChange TranscriptEntryType = "SCENE_CHANGE"
	// EntryFinished 故事沉降
	EntryFinished TranscriptEntryType = "FINISHED"
	// EntryError 经错误钩子记录的失败
	EntryError TranscriptEntryType = "ERROR"
)

// TranscriptEntry 播放抄本中的一个条目
type TranscriptEntry struct {
	Seq           int                 `json:"seq"`
	Type          TranscriptEntryType `json:"type"`
	Timestamp     time.Time           `json:"timestamp"`
	CharacterID   string              `json:"character_id,omitempty"`
	CharacterName string              `json:"character_name,omitempty"`
	Narrator      bool                `json:"narrator,omitempty"`
	Text          string              `json:"text,omitempty"`
	Options       []string            `json:"options,omitempty"`
	Choice        string              `json:"choice,omitempty"`
	FromScene     string              `json:"from_scene,omitempty"`
	ToScene       string              `json:"to_scene,omitempty"`
	ErrorCode     string              `json:"error_code,omitempty"`
	ErrorMessage  string              `json:"error_message,omitempty"`
}

// SessionSummary 会话选择列表用的摘要
type SessionSummary struct {
	ID         string    `json:"id"`
	ScriptID   string    `json:"script_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	Visits     int64     `json:"visits"`
	EntryCount int       `json:"entry_count"`
}
