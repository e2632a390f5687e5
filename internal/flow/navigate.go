// internal/flow/navigate.go
package flow

import (
	"context"

	"github.com/Corphon/StoryFlowMCP/internal/errors"
	"github.com/Corphon/StoryFlowMCP/internal/render"
)

// Start 从固定的起始场景启动故事
//
// 最外层导航完全沉降后（包括其间所有递归的菜单解析和跳转），
// 恰好触发一次 OnFinish 钩子。
func (s *Story) Start(ctx context.Context) error {
	if err := s.Navigate(ctx, StartSceneID); err != nil {
		return err
	}

	s.setStatus(StatusFinished)
	s.finishOnce.Do(func() {
		if s.onFinish != nil {
			s.onFinish()
		}
	})

	return nil
}

// Navigate 执行指定场景并解释其返回值，驱动故事直到停驻或致命错误
//
// 场景链（Goto 接 Goto）用迭代循环而非递归消化，调用栈不随链长增长；
// OnSceneChange 钩子保证在下一个场景的逻辑开始执行之前触发。
func (s *Story) Navigate(ctx context.Context, sceneID string) error {
	s.setStatus(StatusRunning)

	current := sceneID
	chain := 0
	for {
		logic, ok := s.GetScene(current)
		if !ok {
			// 未注册场景只触发一次错误钩子，不做任何后续导航
			if err := s.offer(errors.NewMissingSceneError(current)); err != nil {
				return s.fail(err)
			}
			return nil
		}

		s.visits.Add(1)

		result, err := logic(ctx, &State{story: s})
		if err != nil {
			if herr := s.offer(err); herr != nil {
				return s.fail(herr)
			}
			return nil
		}

		switch r := result.(type) {
		case nil:
			// 场景就地停驻，控制权交还调用方
			return nil

		case gotoResult:
			if r.sceneID == "" {
				if herr := s.offer(errors.NewInvalidSceneResultError(current, r.sceneID)); herr != nil {
					return s.fail(herr)
				}
				return nil
			}

			chain++
			if s.maxVisits > 0 && chain > s.maxVisits {
				if herr := s.offer(errors.NewChainLimitError(r.sceneID, s.maxVisits)); herr != nil {
					return s.fail(herr)
				}
				return nil
			}

			if s.onSceneChange != nil {
				s.onSceneChange(current, r.sceneID)
			}
			current = r.sceneID

		case menuResult:
			if r.menu == nil {
				if herr := s.offer(errors.NewInvalidSceneResultError(current, r.menu)); herr != nil {
					return s.fail(herr)
				}
				return nil
			}
			// 后续导航全部由菜单解析负责
			return s.resolveMenu(ctx, r.menu)

		default:
			// 外部类型借内嵌混入的 Result 实现
			if herr := s.offer(errors.NewInvalidSceneResultError(current, result)); herr != nil {
				return s.fail(herr)
			}
			return nil
		}
	}
}

// resolveMenu 解析一个菜单描述符
//
// 保留项在选中结果被解释之前无条件执行恰好一次，
// 即使渲染器出错或玩家放弃菜单也不例外。
func (s *Story) resolveMenu(ctx context.Context, menu *Menu) error {
	choices := make([]render.Choice, 0, len(menu.Options))
	for _, opt := range menu.Options {
		choices = append(choices, render.Choice{Label: opt.Label})
	}

	label, rendererErr := s.renderer.OnMenu(ctx, choices)

	// 先执行选中的动作，得到待解释的值
	var value interface{}
	var actionErr error
	matched := false
	if rendererErr == nil && label != "" {
		if opt, ok := menu.Find(label); ok {
			matched = true
			if opt.Do != nil {
				value, actionErr = opt.Do(ctx)
			} else if opt.Next != "" {
				value = opt.Next
			}
		}
	}

	// 保留项：finally 语义
	if menu.Always != nil {
		if err := menu.Always(ctx); err != nil {
			if herr := s.offer(err); herr != nil {
				return s.fail(herr)
			}
		}
	}

	if rendererErr != nil {
		if herr := s.offer(errors.WrapError(rendererErr, "菜单呈现失败", errors.ErrorTypeError)); herr != nil {
			return s.fail(herr)
		}
		return nil
	}

	if label == "" {
		// 菜单被放弃，与场景返回 nil 对称：流程就地停驻
		return nil
	}

	if !matched {
		if herr := s.offer(errors.NewInvalidMenuResultError(label)); herr != nil {
			return s.fail(herr)
		}
		return nil
	}

	if actionErr != nil {
		if herr := s.offer(actionErr); herr != nil {
			return s.fail(herr)
		}
		return nil
	}

	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return s.Navigate(ctx, v)
	default:
		if herr := s.offer(errors.NewInvalidMenuResultError(value)); herr != nil {
			return s.fail(herr)
		}
		return nil
	}
}

// offer 把错误交给故事的错误钩子
// 返回 nil 表示钩子吞掉了错误，原操作按无操作处理
func (s *Story) offer(err error) error {
	if err == nil {
		return nil
	}
	return s.onError(err)
}

// fail 升级后的错误让故事进入 Errored 终态
func (s *Story) fail(err error) error {
	if err != nil {
		s.setStatus(StatusErrored)
	}
	return err
}
