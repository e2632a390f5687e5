// internal/flow/navigate_test.go
package flow_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StoryFlowMCP/internal/errors"
	"github.com/Corphon/StoryFlowMCP/internal/flow"
)

// hookRecorder 记录三个生命周期钩子的触发顺序
type hookRecorder struct {
	events   []string
	finishes int
	errs     []error
	swallow  bool
}

func (h *hookRecorder) options(renderer interface{}) flow.Options {
	return flow.Options{
		Renderer: renderer,
		OnSceneChange: func(from, to string) {
			h.events = append(h.events, fmt.Sprintf("change:%s->%s", from, to))
		},
		OnFinish: func() {
			h.finishes++
			h.events = append(h.events, "finished")
		},
		OnError: func(err error) error {
			h.errs = append(h.errs, err)
			if h.swallow {
				return nil
			}
			return err
		},
	}
}

func TestStart_SceneAtRest(t *testing.T) {
	hooks := &hookRecorder{}
	story, err := flow.New(hooks.options(&scriptedRenderer{}))
	require.NoError(t, err)

	story.RegisterScene("start", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		return nil, nil
	})

	require.NoError(t, story.Start(context.Background()))

	assert.Equal(t, []string{"finished"}, hooks.events, "停驻的起始场景不应触发场景切换")
	assert.Equal(t, 1, hooks.finishes, "完成钩子应该恰好触发一次")
	assert.Equal(t, flow.StatusFinished, story.Status())
}

func TestStart_TwoSceneChain(t *testing.T) {
	hooks := &hookRecorder{}
	story, err := flow.New(hooks.options(&scriptedRenderer{}))
	require.NoError(t, err)

	story.RegisterScene("start", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		return flow.Goto("middle"), nil
	})
	story.RegisterScene("middle", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		return nil, nil
	})

	require.NoError(t, story.Start(context.Background()))

	assert.Equal(t, []string{"change:start->middle", "finished"}, hooks.events)
	assert.Equal(t, 1, hooks.finishes)
}

func TestNavigate_ChainFiresHooksInOrder(t *testing.T) {
	// A→B→C→停驻：场景切换恰好两次，切换钩子先于下一个场景执行
	hooks := &hookRecorder{}
	story, err := flow.New(hooks.options(&scriptedRenderer{}))
	require.NoError(t, err)

	scene := func(id string, result flow.Result) flow.SceneLogic {
		return func(ctx context.Context, st *flow.State) (flow.Result, error) {
			hooks.events = append(hooks.events, "scene:"+id)
			return result, nil
		}
	}
	story.RegisterScene("start", scene("start", flow.Goto("b")))
	story.RegisterScene("b", scene("b", flow.Goto("c")))
	story.RegisterScene("c", scene("c", nil))

	require.NoError(t, story.Start(context.Background()))

	assert.Equal(t, []string{
		"scene:start",
		"change:start->b",
		"scene:b",
		"change:b->c",
		"scene:c",
		"finished",
	}, hooks.events)
	assert.EqualValues(t, 3, story.Visits())
}

func TestNavigate_MissingSceneEscalates(t *testing.T) {
	hooks := &hookRecorder{}
	story, err := flow.New(hooks.options(&scriptedRenderer{}))
	require.NoError(t, err)

	err = story.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsMissingSceneError(err))
	require.Len(t, hooks.errs, 1, "未注册场景应该恰好触发一次错误钩子")
	assert.Equal(t, 0, hooks.finishes, "升级的错误不应触发完成钩子")
	assert.Equal(t, flow.StatusErrored, story.Status())
}

func TestNavigate_MissingSceneSwallowed(t *testing.T) {
	hooks := &hookRecorder{swallow: true}
	story, err := flow.New(hooks.options(&scriptedRenderer{}))
	require.NoError(t, err)

	story.RegisterScene("start", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		return flow.Goto("nowhere"), nil
	})

	require.NoError(t, story.Start(context.Background()))

	require.Len(t, hooks.errs, 1)
	assert.True(t, errors.IsMissingSceneError(hooks.errs[0]))
	assert.Equal(t, 1, hooks.finishes, "被吞掉的错误按无操作处理，故事照常沉降")
}

func TestNavigate_InvalidSceneResult(t *testing.T) {
	hooks := &hookRecorder{swallow: true}
	story, err := flow.New(hooks.options(&scriptedRenderer{}))
	require.NoError(t, err)

	story.RegisterScene("start", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		return flow.Goto(""), nil
	})

	require.NoError(t, story.Start(context.Background()))
	require.Len(t, hooks.errs, 1)
	assert.True(t, errors.IsInvalidSceneResultError(hooks.errs[0]))
}

func TestNavigate_NilMenuIsInvalid(t *testing.T) {
	hooks := &hookRecorder{swallow: true}
	story, err := flow.New(hooks.options(&scriptedRenderer{}))
	require.NoError(t, err)

	story.RegisterScene("start", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		return flow.Show(nil), nil
	})

	require.NoError(t, story.Start(context.Background()))
	require.Len(t, hooks.errs, 1)
	assert.True(t, errors.IsInvalidSceneResultError(hooks.errs[0]))
}

func TestNavigate_SceneLogicErrorGoesThroughHook(t *testing.T) {
	hooks := &hookRecorder{}
	story, err := flow.New(hooks.options(&scriptedRenderer{}))
	require.NoError(t, err)

	boom := fmt.Errorf("场景内部失败")
	story.RegisterScene("start", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		return nil, boom
	})

	err = story.Start(context.Background())
	require.Error(t, err)
	require.Len(t, hooks.errs, 1)
	assert.Equal(t, boom, hooks.errs[0])
}

func TestNavigate_ChainLimit(t *testing.T) {
	hooks := &hookRecorder{}
	opts := hooks.options(&scriptedRenderer{})
	opts.MaxVisits = 3
	story, err := flow.New(opts)
	require.NoError(t, err)

	story.RegisterScene("start", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		return flow.Goto("start"), nil
	})

	err = story.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsChainLimitError(err))
}

func TestResolveMenu_AlwaysRunsBeforeInterpretation(t *testing.T) {
	// {start: 菜单{A: ()=>"end", 保留项: 计数+1}, end: 停驻}
	// 自动选 "A" 之后：计数==1，切换进 end，完成恰好一次
	hooks := &hookRecorder{}
	renderer := &scriptedRenderer{answers: []string{"A"}}
	story, err := flow.New(hooks.options(renderer))
	require.NoError(t, err)

	sideEffects := 0
	order := []string{}
	story.RegisterScene("start", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		return flow.Show(&flow.Menu{
			Options: []flow.Option{{
				Label: "A",
				Do: func(ctx context.Context) (interface{}, error) {
					order = append(order, "action")
					return "end", nil
				},
			}},
			Always: func(ctx context.Context) error {
				sideEffects++
				order = append(order, "always")
				return nil
			},
		}), nil
	})
	story.RegisterScene("end", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		order = append(order, "end-scene")
		return nil, nil
	})

	require.NoError(t, story.Start(context.Background()))

	assert.Equal(t, 1, sideEffects, "保留项每次解析恰好执行一次")
	assert.Equal(t, []string{"action", "always", "end-scene"}, order,
		"保留项必须在选中结果被解释（导航发生）之前执行")
	assert.Contains(t, hooks.events, "change:start->end")
	assert.Equal(t, 1, hooks.finishes)
}

func TestResolveMenu_LiteralNext(t *testing.T) {
	hooks := &hookRecorder{}
	renderer := &scriptedRenderer{answers: []string{"离开"}}
	story, err := flow.New(hooks.options(renderer))
	require.NoError(t, err)

	story.RegisterScene("start", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		return flow.Show(&flow.Menu{
			Options: []flow.Option{
				{Label: "留下", Next: "stay"},
				{Label: "离开", Next: "end"},
			},
		}), nil
	})
	reached := false
	story.RegisterScene("end", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		reached = true
		return nil, nil
	})

	require.NoError(t, story.Start(context.Background()))
	assert.True(t, reached, "字面 Next 应该直接作为导航目标")
	require.Len(t, renderer.menus, 1)
	assert.Len(t, renderer.menus[0], 2, "渲染器只应看到可见选项")
}

func TestResolveMenu_DismissComesToRest(t *testing.T) {
	hooks := &hookRecorder{}
	renderer := &scriptedRenderer{} // 无预设选择：菜单被放弃
	story, err := flow.New(hooks.options(renderer))
	require.NoError(t, err)

	alwaysRan := false
	story.RegisterScene("start", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		return flow.Show(&flow.Menu{
			Options: []flow.Option{{Label: "A", Next: "end"}},
			Always: func(ctx context.Context) error {
				alwaysRan = true
				return nil
			},
		}), nil
	})

	require.NoError(t, story.Start(context.Background()))
	assert.True(t, alwaysRan, "保留项无论是否做出选择都要执行")
	assert.Empty(t, hooks.errs)
	assert.Equal(t, 1, hooks.finishes)
}

func TestResolveMenu_NonStringValueIsInvalid(t *testing.T) {
	hooks := &hookRecorder{swallow: true}
	renderer := &scriptedRenderer{answers: []string{"A"}}
	story, err := flow.New(hooks.options(renderer))
	require.NoError(t, err)

	story.RegisterScene("start", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		return flow.Show(&flow.Menu{
			Options: []flow.Option{{
				Label: "A",
				Do: func(ctx context.Context) (interface{}, error) {
					return 42, nil
				},
			}},
		}), nil
	})

	require.NoError(t, story.Start(context.Background()))
	require.Len(t, hooks.errs, 1)
	assert.True(t, errors.IsInvalidMenuResultError(hooks.errs[0]))
}

func TestResolveMenu_UnknownLabelIsInvalid(t *testing.T) {
	hooks := &hookRecorder{swallow: true}
	renderer := &scriptedRenderer{answers: []string{"不存在的选项"}}
	story, err := flow.New(hooks.options(renderer))
	require.NoError(t, err)

	story.RegisterScene("start", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		return flow.Show(&flow.Menu{
			Options: []flow.Option{{Label: "A", Next: "end"}},
		}), nil
	})

	require.NoError(t, story.Start(context.Background()))
	require.Len(t, hooks.errs, 1)
	assert.True(t, errors.IsInvalidMenuResultError(hooks.errs[0]))
}

func TestSharedDataBag_VisibleAcrossScenes(t *testing.T) {
	hooks := &hookRecorder{}
	story, err := flow.New(hooks.options(&scriptedRenderer{}))
	require.NoError(t, err)

	story.RegisterScene("start", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		st.Set("visited", 1)
		return flow.Goto("next"), nil
	})
	var got interface{}
	story.RegisterScene("next", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		got, _ = st.Get("visited")
		return nil, nil
	})

	require.NoError(t, story.Start(context.Background()))
	assert.Equal(t, 1, got)
}

func TestStart_FinishFiresOnceAcrossRestarts(t *testing.T) {
	hooks := &hookRecorder{}
	story, err := flow.New(hooks.options(&scriptedRenderer{}))
	require.NoError(t, err)

	story.RegisterScene("start", func(ctx context.Context, st *flow.State) (flow.Result, error) {
		return nil, nil
	})

	require.NoError(t, story.Start(context.Background()))
	require.NoError(t, story.Start(context.Background()))
	assert.Equal(t, 1, hooks.finishes, "完成钩子在故事生命周期内只触发一次")
}
