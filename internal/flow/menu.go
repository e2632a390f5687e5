// internal/flow/menu.go
package flow

import "context"

// Option 菜单中一个玩家可见的选项
//
// Next 是跳转目标场景的字面ID；Do 是被选中后执行的逻辑，
// 其返回值作为导航目标被解释。两者都设置时 Do 优先。
type Option struct {
	Label string
	Next  string
	Do    func(ctx context.Context) (interface{}, error)
}

// Menu 菜单描述符：一组玩家可见选项加一个可选的保留项
//
// Always 是保留项，玩家不可见；无论选中哪个选项，它都会
// 在选中结果被解释之前执行恰好一次，语义类似 finally。
type Menu struct {
	Options []Option
	Always  func(ctx context.Context) error
}

// Find 按标签查找可见选项
func (m *Menu) Find(label string) (*Option, bool) {
	for i := range m.Options {
		if m.Options[i].Label == label {
			return &m.Options[i], true
		}
	}
	return nil, false
}
