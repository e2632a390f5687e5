// internal/models/export.go
package models

import "time"

// ExportResult 表示一次抄本导出的结果
type ExportResult struct {
	SessionID string    `json:"session_id"`
	ScriptID  string    `json:"script_id"`
	Format    string    `json:"format"` // json, markdown
	FileName  string    `json:"file_name"`
	FilePath  string    `json:"file_path"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
