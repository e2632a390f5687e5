// internal/render/console.go
package render

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// NarratorStyle 旁白的呈现选项
type NarratorStyle struct {
	// TreatAsCharacter 为 true 时旁白与普通角色同样带名字呈现
	TreatAsCharacter bool
	// Italicize 控制旁白是否斜体，nil 表示默认开启（仅影响呈现）
	Italicize *bool
}

// Options 默认控制台渲染器的配置
type Options struct {
	Container io.Writer // 呈现目标，默认 os.Stdout
	Input     io.Reader // 玩家输入来源，默认 os.Stdin
	Narrator  NarratorStyle
	// Classes 样式钩子，仅被 Web 播放端消费，控制台渲染器忽略
	Classes map[string]string
}

// Console 默认渲染器：把对话和菜单写到一个 io.Writer，从 io.Reader 读取选择
type Console struct {
	Nop

	out      io.Writer
	in       *bufio.Scanner
	narrator NarratorStyle
}

// NewConsole 创建控制台渲染器
func NewConsole(opts Options) *Console {
	out := opts.Container
	if out == nil {
		out = os.Stdout
	}
	in := opts.Input
	if in == nil {
		in = os.Stdin
	}

	return &Console{
		out:      out,
		in:       bufio.NewScanner(in),
		narrator: opts.Narrator,
	}
}

// italicize 旁白默认斜体
func (c *Console) italicize() bool {
	if c.narrator.Italicize == nil {
		return true
	}
	return *c.narrator.Italicize
}

// OnMessage 呈现一行归属于 character 的对话
func (c *Console) OnMessage(ctx context.Context, character Character, text string) (interface{}, error) {
	info := c.Story()
	isNarrator := info != nil && character.ID() == info.NarratorID()

	if isNarrator && !c.narrator.TreatAsCharacter {
		line := text
		if c.italicize() {
			line = "\x1b[3m" + text + "\x1b[0m"
		}
		_, err := fmt.Fprintln(c.out, line)
		return nil, err
	}

	_, err := fmt.Fprintf(c.out, "%s: %s\n", character.DisplayName(), text)
	return nil, err
}

// OnMenu 呈现编号菜单并阻塞读取玩家的选择
//
// 接受选项编号或完整标签；空行视为放弃菜单，输入耗尽同样视为放弃。
func (c *Console) OnMenu(ctx context.Context, choices []Choice) (string, error) {
	for i, choice := range choices {
		if _, err := fmt.Fprintf(c.out, "  [%d] %s\n", i+1, choice.Label); err != nil {
			return "", err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return "", err
			}
			return "", nil
		}

		input := strings.TrimSpace(c.in.Text())
		if input == "" {
			return "", nil
		}

		if n, err := strconv.Atoi(input); err == nil {
			if n >= 1 && n <= len(choices) {
				return choices[n-1].Label, nil
			}
			fmt.Fprintf(c.out, "无效的选项编号: %d\n", n)
			continue
		}

		for _, choice := range choices {
			if strings.EqualFold(choice.Label, input) {
				return choice.Label, nil
			}
		}
		fmt.Fprintf(c.out, "无法识别的选择: %s\n", input)
	}
}
