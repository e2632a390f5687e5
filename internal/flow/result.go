// internal/flow/result.go
package flow

// Result 表示场景逻辑的返回值，显式标记变体：
// nil 表示流程就地停驻，Goto 表示跳转场景，Show 表示呈现菜单
type Result interface {
	isResult()
}

type gotoResult struct {
	sceneID string
}

func (gotoResult) isResult() {}

type menuResult struct {
	menu *Menu
}

func (menuResult) isResult() {}

// Goto 构造跳转到指定场景的结果
func Goto(sceneID string) Result {
	return gotoResult{sceneID: sceneID}
}

// Show 构造呈现菜单的结果
func Show(menu *Menu) Result {
	return menuResult{menu: menu}
}
