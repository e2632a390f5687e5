// internal/flow/character.go
package flow

import "context"

// UnknownName 未命名角色的占位显示名
const UnknownName = "unknown"

// Character 表示故事中一个发言实体，含可变显示名和开放数据映射
//
// 角色持有所属故事的回引，仅用于到达当前渲染器，从不反向修改注册表。
// 标识一经注册不再变化；重复注册同一标识会整体替换角色对象。
type Character struct {
	id    string
	name  string
	data  map[string]interface{}
	story *Story
}

// ID 返回角色标识
func (c *Character) ID() string {
	return c.id
}

// DisplayName 返回角色显示名
func (c *Character) DisplayName() string {
	return c.name
}

// SetName 修改角色显示名
func (c *Character) SetName(name string) {
	c.name = name
}

// Data 返回角色的数据映射，调用方可直接读写
func (c *Character) Data() map[string]interface{} {
	return c.data
}

// Say 以该角色的名义呈现一行对话
// 返回值由渲染器决定，引擎不做解释
func (c *Character) Say(ctx context.Context, text string) (interface{}, error) {
	return c.story.renderer.OnMessage(ctx, c, text)
}

// Speaker 角色的轻量发言句柄，场景代码无需持有 Character 即可发言
//
// Say 的署名固定在句柄创建时的角色对象上；
// DisplayName 和 Data 则每次查询当前注册表，反映最新的注册条目。
type Speaker struct {
	story *Story
	id    string
	ch    *Character
}

// ID 返回句柄绑定的角色标识
func (sp Speaker) ID() string {
	return sp.id
}

// DisplayName 返回当前注册条目的显示名
func (sp Speaker) DisplayName() string {
	if c, ok := sp.story.GetCharacter(sp.id); ok {
		return c.DisplayName()
	}
	return sp.ch.DisplayName()
}

// Data 返回当前注册条目的数据映射
func (sp Speaker) Data() map[string]interface{} {
	if c, ok := sp.story.GetCharacter(sp.id); ok {
		return c.Data()
	}
	return sp.ch.Data()
}

// Say 以句柄创建时的角色身份发言
func (sp Speaker) Say(ctx context.Context, text string) (interface{}, error) {
	return sp.ch.Say(ctx, text)
}
