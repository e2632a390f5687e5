// cmd/demo/main.go
//
// 终端播放演示：用控制台渲染器跑一个内置的小故事，
// 展示角色注册、共享数据、菜单动作和 Always 回调的用法。
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Corphon/StoryFlowMCP/internal/flow"
	"github.com/Corphon/StoryFlowMCP/internal/render"
)

func main() {
	story, err := flow.New(flow.Options{
		Renderer: render.Options{
			Container: os.Stdout,
			Input:     os.Stdin,
		},
		NarratorName: "说书人",
		Characters: map[string]flow.CharacterSeed{
			"keeper": {
				Name: "守塔人",
				Data: map[string]interface{}{"trust": 0},
			},
		},
		Scenes: map[string]flow.SceneLogic{
			"start":  startScene,
			"tower":  towerScene,
			"beach":  beachScene,
			"secret": secretScene,
			"end":    endScene,
		},
		OnSceneChange: func(from, to string) {
			fmt.Printf("  · %s → %s\n", from, to)
		},
		OnFinish: func() {
			fmt.Println("  · 播放结束")
		},
	})
	if err != nil {
		log.Fatalf("构造故事失败: %v", err)
	}

	if err := story.Start(context.Background()); err != nil {
		log.Fatalf("播放出错: %v", err)
	}

	fmt.Printf("共访问 %d 个场景\n", story.Visits())
}

func startScene(ctx context.Context, st *flow.State) (flow.Result, error) {
	if _, err := st.Narrator().Say(ctx, "海雾漫过礁石，灯塔已经三年没有亮过了。"); err != nil {
		return nil, err
	}

	keeper, _ := st.Speaker("keeper")
	if _, err := keeper.Say(ctx, "今晚风不对劲，你最好别上去。"); err != nil {
		return nil, err
	}

	return flow.Show(&flow.Menu{
		Options: []flow.Option{
			{Label: "上塔看看", Next: "tower"},
			{
				Label: "先去海滩",
				Do: func(ctx context.Context) (interface{}, error) {
					st.Set("visited_beach", true)
					return "beach", nil
				},
			},
		},
		Always: func(ctx context.Context) error {
			n, _ := st.Get("menus_seen")
			count, _ := n.(int)
			st.Set("menus_seen", count+1)
			return nil
		},
	}), nil
}

func towerScene(ctx context.Context, st *flow.State) (flow.Result, error) {
	keeper, _ := st.Speaker("keeper")

	// 去过海滩的玩家能拿到钥匙
	if visited, _ := st.Get("visited_beach"); visited == true {
		if _, err := keeper.Say(ctx, "你捡到的那把钥匙……跟我来。"); err != nil {
			return nil, err
		}
		return flow.Goto("secret"), nil
	}

	if _, err := keeper.Say(ctx, "灯室的门锁着，钥匙早丢了。"); err != nil {
		return nil, err
	}
	return flow.Goto("end"), nil
}

func beachScene(ctx context.Context, st *flow.State) (flow.Result, error) {
	if _, err := st.Narrator().Say(ctx, "退潮后的沙滩上，半埋着一把生锈的铜钥匙。"); err != nil {
		return nil, err
	}
	return flow.Goto("tower"), nil
}

func secretScene(ctx context.Context, st *flow.State) (flow.Result, error) {
	keeper, _ := st.Speaker("keeper")
	if trust, ok := keeper.Data()["trust"].(int); ok {
		st.Story().RegisterCharacter("keeper", "老灯塔守夜人", map[string]interface{}{"trust": trust + 1})
	}

	if _, err := st.Narrator().Say(ctx, "灯室的旧机械在钥匙转动后苏醒，光柱刺破海雾。"); err != nil {
		return nil, err
	}
	return flow.Goto("end"), nil
}

func endScene(ctx context.Context, st *flow.State) (flow.Result, error) {
	if _, err := st.Narrator().Say(ctx, "夜色合拢，故事到此为止。"); err != nil {
		return nil, err
	}
	return nil, nil
}
