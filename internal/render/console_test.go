// internal/render/console_test.go
package render_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StoryFlowMCP/internal/errors"
	"github.com/Corphon/StoryFlowMCP/internal/render"
)

type fakeInfo struct{}

func (fakeInfo) NarratorID() string { return "narrator" }

type fakeCharacter struct {
	id   string
	name string
}

func (c fakeCharacter) ID() string          { return c.id }
func (c fakeCharacter) DisplayName() string { return c.name }

func TestConsole_CharacterMessageHasNamePrefix(t *testing.T) {
	out := &bytes.Buffer{}
	console := render.NewConsole(render.Options{Container: out})
	console.Attach(fakeInfo{})

	_, err := console.OnMessage(context.Background(), fakeCharacter{"npc", "Old Keeper"}, "晚上好")
	require.NoError(t, err)
	assert.Equal(t, "Old Keeper: 晚上好\n", out.String())
}

func TestConsole_NarratorItalicizedByDefault(t *testing.T) {
	out := &bytes.Buffer{}
	console := render.NewConsole(render.Options{Container: out})
	console.Attach(fakeInfo{})

	_, err := console.OnMessage(context.Background(), fakeCharacter{"narrator", "Narrator"}, "夜幕降临")
	require.NoError(t, err)
	assert.Equal(t, "\x1b[3m夜幕降临\x1b[0m\n", out.String(), "旁白默认斜体且不带名字")
}

func TestConsole_NarratorAsCharacter(t *testing.T) {
	out := &bytes.Buffer{}
	console := render.NewConsole(render.Options{
		Container: out,
		Narrator:  render.NarratorStyle{TreatAsCharacter: true},
	})
	console.Attach(fakeInfo{})

	_, err := console.OnMessage(context.Background(), fakeCharacter{"narrator", "Narrator"}, "夜幕降临")
	require.NoError(t, err)
	assert.Equal(t, "Narrator: 夜幕降临\n", out.String())
}

func TestConsole_NarratorItalicsDisabled(t *testing.T) {
	out := &bytes.Buffer{}
	italic := false
	console := render.NewConsole(render.Options{
		Container: out,
		Narrator:  render.NarratorStyle{Italicize: &italic},
	})
	console.Attach(fakeInfo{})

	_, err := console.OnMessage(context.Background(), fakeCharacter{"narrator", "Narrator"}, "夜幕降临")
	require.NoError(t, err)
	assert.Equal(t, "夜幕降临\n", out.String())
}

func TestConsole_MenuSelectionByNumber(t *testing.T) {
	out := &bytes.Buffer{}
	console := render.NewConsole(render.Options{
		Container: out,
		Input:     strings.NewReader("2\n"),
	})

	label, err := console.OnMenu(context.Background(), []render.Choice{
		{Label: "留下"}, {Label: "离开"},
	})
	require.NoError(t, err)
	assert.Equal(t, "离开", label)
	assert.Contains(t, out.String(), "[1] 留下")
	assert.Contains(t, out.String(), "[2] 离开")
}

func TestConsole_MenuSelectionByLabel(t *testing.T) {
	console := render.NewConsole(render.Options{
		Container: &bytes.Buffer{},
		Input:     strings.NewReader("离开\n"),
	})

	label, err := console.OnMenu(context.Background(), []render.Choice{
		{Label: "留下"}, {Label: "离开"},
	})
	require.NoError(t, err)
	assert.Equal(t, "离开", label)
}

func TestConsole_MenuRetriesOnInvalidNumber(t *testing.T) {
	console := render.NewConsole(render.Options{
		Container: &bytes.Buffer{},
		Input:     strings.NewReader("7\n1\n"),
	})

	label, err := console.OnMenu(context.Background(), []render.Choice{{Label: "留下"}})
	require.NoError(t, err)
	assert.Equal(t, "留下", label)
}

func TestConsole_MenuDismissOnEmptyLine(t *testing.T) {
	console := render.NewConsole(render.Options{
		Container: &bytes.Buffer{},
		Input:     strings.NewReader("\n"),
	})

	label, err := console.OnMenu(context.Background(), []render.Choice{{Label: "留下"}})
	require.NoError(t, err)
	assert.Equal(t, "", label, "空行表示放弃菜单")
}

func TestConsole_MenuDismissOnEOF(t *testing.T) {
	console := render.NewConsole(render.Options{
		Container: &bytes.Buffer{},
		Input:     strings.NewReader(""),
	})

	label, err := console.OnMenu(context.Background(), []render.Choice{{Label: "留下"}})
	require.NoError(t, err)
	assert.Equal(t, "", label)
}

func TestResolve_Dispatch(t *testing.T) {
	// nil 和配置对象都落到默认控制台渲染器
	r, err := render.Resolve(nil)
	require.NoError(t, err)
	assert.IsType(t, &render.Console{}, r)

	r, err = render.Resolve(render.Options{})
	require.NoError(t, err)
	assert.IsType(t, &render.Console{}, r)

	custom := render.NewConsole(render.Options{})
	r, err = render.Resolve(custom)
	require.NoError(t, err)
	assert.Same(t, custom, r)

	_, err = render.Resolve("not a renderer")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRendererError(err))
}
