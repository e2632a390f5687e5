// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType 定义错误类型
type ErrorType string

const (
	// 通用错误类型
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeError      ErrorType = "processing_error"
	ErrorTypeConflict   ErrorType = "conflict"

	// 叙事流引擎错误类型
	ErrorTypeMissingScene       ErrorType = "missing_scene"
	ErrorTypeInvalidSceneResult ErrorType = "invalid_scene_result"
	ErrorTypeInvalidMenuResult  ErrorType = "invalid_menu_result"
	ErrorTypeInvalidRenderer    ErrorType = "invalid_renderer"
	ErrorTypeChainLimit         ErrorType = "chain_limit"
)

// AppError 应用程序错误结构
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string // 用户友好的错误代码
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 实现错误链接
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError 创建新的 AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewValidationError 创建验证错误
func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

// NewNotFoundError 创建未找到错误
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewProcessingError 创建处理错误
func NewProcessingError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeError, message, originalError)
}

// NewConflictError 创建冲突错误
func NewConflictError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeConflict, message, originalError)
}

// NewMissingSceneError 创建场景未注册错误
func NewMissingSceneError(sceneID string) *AppError {
	return NewAppError(ErrorTypeMissingScene,
		fmt.Sprintf("场景未注册: %s", sceneID), nil)
}

// NewInvalidSceneResultError 创建场景返回值非法错误
func NewInvalidSceneResultError(sceneID string, result interface{}) *AppError {
	return NewAppError(ErrorTypeInvalidSceneResult,
		fmt.Sprintf("场景 %s 返回了非法结果: %v (%T)", sceneID, result, result), nil)
}

// NewInvalidMenuResultError 创建菜单解析结果非法错误
func NewInvalidMenuResultError(result interface{}) *AppError {
	return NewAppError(ErrorTypeInvalidMenuResult,
		fmt.Sprintf("菜单解析出非法结果: %v (%T)", result, result), nil)
}

// NewInvalidRendererError 创建渲染器选择非法错误
func NewInvalidRendererError(renderer interface{}) *AppError {
	return NewAppError(ErrorTypeInvalidRenderer,
		fmt.Sprintf("无法识别的渲染器: %T", renderer), nil)
}

// NewChainLimitError 创建场景链超限错误
func NewChainLimitError(sceneID string, visits int) *AppError {
	return NewAppError(ErrorTypeChainLimit,
		fmt.Sprintf("场景链超过访问上限 (%d)，终止于: %s", visits, sceneID), nil)
}

// typeOf 提取错误的 ErrorType，非 AppError 返回空
func typeOf(err error) ErrorType {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type
	}
	return ""
}

// IsValidationError 检查是否为验证错误
func IsValidationError(err error) bool {
	return typeOf(err) == ErrorTypeValidation
}

// IsNotFoundError 检查是否为未找到错误
func IsNotFoundError(err error) bool {
	return typeOf(err) == ErrorTypeNotFound
}

// IsMissingSceneError 检查是否为场景未注册错误
func IsMissingSceneError(err error) bool {
	return typeOf(err) == ErrorTypeMissingScene
}

// IsInvalidSceneResultError 检查是否为场景返回值非法错误
func IsInvalidSceneResultError(err error) bool {
	return typeOf(err) == ErrorTypeInvalidSceneResult
}

// IsInvalidMenuResultError 检查是否为菜单结果非法错误
func IsInvalidMenuResultError(err error) bool {
	return typeOf(err) == ErrorTypeInvalidMenuResult
}

// IsInvalidRendererError 检查是否为渲染器选择非法错误
func IsInvalidRendererError(err error) bool {
	return typeOf(err) == ErrorTypeInvalidRenderer
}

// IsChainLimitError 检查是否为场景链超限错误
func IsChainLimitError(err error) bool {
	return typeOf(err) == ErrorTypeChainLimit
}

// generateErrorCode 根据错误类型生成错误代码
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeError:
		return "PROCESSING_ERROR"
	case ErrorTypeConflict:
		return "CONFLICT"
	case ErrorTypeMissingScene:
		return "MISSING_SCENE"
	case ErrorTypeInvalidSceneResult:
		return "INVALID_SCENE_RESULT"
	case ErrorTypeInvalidMenuResult:
		return "INVALID_MENU_RESULT"
	case ErrorTypeInvalidRenderer:
		return "INVALID_RENDERER_SELECTION"
	case ErrorTypeChainLimit:
		return "CHAIN_LIMIT_EXCEEDED"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError 包装现有错误
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		// 如果已经是 AppError，只更新消息
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	// 否则创建新的 AppError
	return NewAppError(errType, message, err)
}
