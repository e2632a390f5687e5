// internal/api/error_codes.go
package api

// API错误代码常量
const (
	// 通用错误
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorConflict      = "CONFLICT"

	// 脚本相关错误
	ErrorScriptNotFound = "SCRIPT_NOT_FOUND"
	ErrorScriptInvalid  = "SCRIPT_INVALID"

	// 会话相关错误
	ErrorSessionNotFound = "SESSION_NOT_FOUND"
	ErrorSessionBusy     = "SESSION_BUSY"
	ErrorSessionFinished = "SESSION_FINISHED"

	// 播放相关错误
	ErrorPlayFailed    = "PLAY_FAILED"
	ErrorUpgradeFailed = "WS_UPGRADE_FAILED"
	ErrorMenuDismissed = "MENU_DISMISSED"
	ErrorChoiceUnknown = "CHOICE_UNKNOWN"

	// 导出相关错误
	ErrorExportFailed        = "EXPORT_FAILED"
	ErrorExportFormatInvalid = "EXPORT_FORMAT_INVALID"
	ErrorExportDataEmpty     = "EXPORT_DATA_EMPTY"
)
