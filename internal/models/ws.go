// internal/models/ws.go
package models

import "time"

// WebSocket 播放帧类型
const (
	FrameMessage  = "message"
	FrameMenu     = "menu"
	FrameScene    = "scene_change"
	FrameFinished = "finished"
	FrameError    = "error"
	FrameChoice   = "choice" // 客户端 -> 服务端
)

// PlayFrame 服务端推给播放客户端的一帧
type PlayFrame struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// message 帧
	CharacterID   string            `json:"character_id,omitempty"`
	CharacterName string            `json:"character_name,omitempty"`
	Narrator      bool              `json:"narrator,omitempty"`
	Italic        bool              `json:"italic,omitempty"`
	Classes       map[string]string `json:"classes,omitempty"`
	Text          string            `json:"text,omitempty"`

	// menu 帧
	MenuID  string   `json:"menu_id,omitempty"`
	Options []string `json:"options,omitempty"`

	// scene_change 帧
	FromScene string `json:"from_scene,omitempty"`
	ToScene   string `json:"to_scene,omitempty"`

	// error 帧
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ChoiceFrame 播放客户端发回的选择
type ChoiceFrame struct {
	Type   string `json:"type"`
	MenuID string `json:"menu_id"`
	Label  string `json:"label"`
}
