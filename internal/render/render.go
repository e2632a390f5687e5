// internal/render/render.go
package render

import (
	"context"

	"github.com/Corphon/StoryFlowMCP/internal/errors"
)

// Character 渲染器看到的发言实体
type Character interface {
	ID() string
	DisplayName() string
}

// StoryInfo 渲染器挂接时获得的故事信息回引
// 渲染器只能用它来区分旁白和普通角色，不能反向修改注册表
type StoryInfo interface {
	NarratorID() string
}

// Choice 菜单中一个玩家可见的选项标签
type Choice struct {
	Label string `json:"label"`
}

// Renderer 渲染器契约：引擎只通过这两个操作对外呈现
//
// OnMessage 的返回值引擎不做任何解释，原样交还给 Say 的调用方。
// OnMenu 阻塞直到玩家做出选择，返回被选中选项的标签；
// 返回空字符串表示菜单被放弃，流程就地停驻。
type Renderer interface {
	// Attach 将渲染器绑定到一个故事实例，只允许绑定一次
	Attach(info StoryInfo)

	OnMessage(ctx context.Context, character Character, text string) (interface{}, error)
	OnMenu(ctx context.Context, choices []Choice) (string, error)
}

// Nop 为可选操作提供显式空实现，渲染器可内嵌它来省略不关心的操作
type Nop struct {
	info StoryInfo
}

// Attach 记录故事回引
func (n *Nop) Attach(info StoryInfo) {
	if n.info == nil {
		n.info = info
	}
}

// Story 返回挂接的故事信息，未挂接时为 nil
func (n *Nop) Story() StoryInfo {
	return n.info
}

// OnMessage 空实现：不产生任何值
func (n *Nop) OnMessage(ctx context.Context, character Character, text string) (interface{}, error) {
	return nil, nil
}

// OnMenu 空实现：视为菜单被放弃
func (n *Nop) OnMenu(ctx context.Context, choices []Choice) (string, error) {
	return "", nil
}

// Resolve 解析构造期的渲染器配置
//
// 接受三种形式：现成的 Renderer 实例、默认渲染器的 Options 配置、
// 或 nil（使用默认配置的控制台渲染器）。其余一律视为非法选择。
func Resolve(renderer interface{}) (Renderer, error) {
	switch r := renderer.(type) {
	case nil:
		return NewConsole(Options{}), nil
	case Renderer:
		return r, nil
	case Options:
		return NewConsole(r), nil
	case *Options:
		return NewConsole(*r), nil
	default:
		return nil, errors.NewInvalidRendererError(renderer)
	}
}
