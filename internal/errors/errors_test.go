// internal/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	bare := NewValidationError("字段缺失", nil)
	assert.Equal(t, "字段缺失", bare.Error())

	cause := stderrors.New("磁盘已满")
	wrapped := NewProcessingError("写入失败", cause)
	assert.Equal(t, "写入失败: 磁盘已满", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestEngineErrorConstructors(t *testing.T) {
	cases := []struct {
		err       *AppError
		errType   ErrorType
		code      string
		predicate func(error) bool
	}{
		{NewMissingSceneError("cave"), ErrorTypeMissingScene, "MISSING_SCENE", IsMissingSceneError},
		{NewInvalidSceneResultError("start", 42), ErrorTypeInvalidSceneResult, "INVALID_SCENE_RESULT", IsInvalidSceneResultError},
		{NewInvalidMenuResultError(3.14), ErrorTypeInvalidMenuResult, "INVALID_MENU_RESULT", IsInvalidMenuResultError},
		{NewInvalidRendererError("tty"), ErrorTypeInvalidRenderer, "INVALID_RENDERER_SELECTION", IsInvalidRendererError},
		{NewChainLimitError("loop", 100), ErrorTypeChainLimit, "CHAIN_LIMIT_EXCEEDED", IsChainLimitError},
	}

	for _, tc := range cases {
		t.Run(string(tc.errType), func(t *testing.T) {
			assert.Equal(t, tc.errType, tc.err.Type)
			assert.Equal(t, tc.code, tc.err.Code)
			assert.True(t, tc.predicate(tc.err))
			assert.False(t, tc.predicate(stderrors.New("别的错误")))
		})
	}
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	inner := NewMissingSceneError("cave")
	outer := fmt.Errorf("导航失败: %w", inner)

	assert.True(t, IsMissingSceneError(outer))
	assert.False(t, IsChainLimitError(outer))
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(nil, "无关紧要", ErrorTypeError))

	// 包装普通错误产生新的 AppError
	plain := stderrors.New("底层故障")
	wrapped := WrapError(plain, "操作失败", ErrorTypeError)
	var appErr *AppError
	require.True(t, stderrors.As(wrapped, &appErr))
	assert.Equal(t, ErrorTypeError, appErr.Type)
	assert.ErrorIs(t, wrapped, plain)

	// 包装 AppError 保留类型和代码
	missing := NewMissingSceneError("cave")
	rewrapped := WrapError(missing, "播放中断", "")
	require.True(t, stderrors.As(rewrapped, &appErr))
	assert.Equal(t, ErrorTypeMissingScene, appErr.Type)
	assert.Equal(t, "MISSING_SCENE", appErr.Code)
	assert.Contains(t, appErr.Message, "播放中断")
}
