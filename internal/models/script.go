// internal/models/script.go
package models

// Script 一份数据驱动的故事脚本：角色名册加场景清单
// 脚本是数据不是语言，图结构的有效性留给运行时检查
type Script struct {
	ID       string         `yaml:"id" json:"id"`
	Title    string         `yaml:"title" json:"title"`
	Narrator ScriptNarrator `yaml:"narrator" json:"narrator"`

	Characters []ScriptCharacter `yaml:"characters" json:"characters"`
	Scenes     []ScriptScene     `yaml:"scenes" json:"scenes"`
}

// ScriptNarrator 旁白身份覆盖
type ScriptNarrator struct {
	Name string `yaml:"name" json:"name"`
}

// ScriptCharacter 脚本中的一个角色条目
type ScriptCharacter struct {
	ID   string                 `yaml:"id" json:"id"`
	Name string                 `yaml:"name" json:"name"`
	Data map[string]interface{} `yaml:"data" json:"data,omitempty"`
}

// ScriptScene 脚本中的一个场景：先说台词，然后跳转或呈现选择
//
// Next 与 Choices 互斥；都缺省时场景就地停驻。
// AlwaysCount 指定一个共享数据袋键，作为菜单保留项在每次解析时加一。
type ScriptScene struct {
	ID          string         `yaml:"id" json:"id"`
	Lines       []ScriptLine   `yaml:"lines" json:"lines"`
	Next        string         `yaml:"next" json:"next,omitempty"`
	Choices     []ScriptChoice `yaml:"choices" json:"choices,omitempty"`
	AlwaysCount string         `yaml:"always_count" json:"always_count,omitempty"`
}

// ScriptLine 一行台词，Speaker 为空或 "narrator" 时归属旁白
type ScriptLine struct {
	Speaker string `yaml:"speaker" json:"speaker"`
	Text    string `yaml:"text" json:"text"`
}

// ScriptChoice 一个玩家可见的选择
type ScriptChoice struct {
	Label string `yaml:"label" json:"label"`
	Next  string `yaml:"next" json:"next"`
}
