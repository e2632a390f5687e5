// internal/flow/story.go

// Package flow 实现叙事流引擎的核心：场景注册表、角色注册表，
// 以及把场景返回值解释为后续导航的流程控制器。
//
// 一个 Story 就是一次独立运行的故事实例，自带注册表、共享数据袋
// 和渲染器绑定，不依赖任何进程级全局状态。
package flow

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Corphon/StoryFlowMCP/internal/render"
)

const (
	// StartSceneID 故事启动时锚定的固定起始场景标识
	StartSceneID = "start"
	// NarratorID 自动注册的旁白角色的公认标识
	NarratorID = "narrator"
	// DefaultNarratorName 旁白的默认显示名
	DefaultNarratorName = "Narrator"
)

// Status 故事的导航状态
type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusErrored  Status = "errored"
)

// SceneLogic 一个场景的逻辑单元
//
// 通过 State 读写共享数据袋和所有角色的发言句柄，
// 返回值决定接下来发生什么：nil 停驻、Goto 跳转、Show 呈现菜单。
type SceneLogic func(ctx context.Context, st *State) (Result, error)

// CharacterSeed 构造期批量注册角色的种子数据
type CharacterSeed struct {
	Name string
	Data map[string]interface{}
}

// Options 故事的构造期配置
type Options struct {
	// Renderer 渲染器实例或默认渲染器的 render.Options 配置，
	// nil 表示使用默认配置的控制台渲染器
	Renderer interface{}
	// NarratorName 覆盖自动注册旁白的显示名
	NarratorName string
	// Characters 构造期批量注册的角色
	Characters map[string]CharacterSeed
	// Scenes 构造期批量注册的场景
	Scenes map[string]SceneLogic

	// 三个生命周期钩子
	OnSceneChange func(from, to string)
	OnFinish      func()
	// OnError 返回 nil 表示吞掉错误（原操作按无操作处理），
	// 返回非 nil 表示升级。缺省钩子总是升级。
	OnError func(err error) error

	// MaxVisits 单次导航链的场景访问上限，0 表示不设限。
	// 无限的场景链是作者自己的责任，这里只提供可选的保险。
	MaxVisits int
}

// Story 一次运行中的故事实例（流程控制器）
type Story struct {
	mu         sync.RWMutex
	scenes     map[string]SceneLogic
	characters map[string]*Character
	speakers   map[string]Speaker
	data       map[string]interface{}

	renderer   render.Renderer
	narratorID string

	onSceneChange func(from, to string)
	onFinish      func()
	onError       func(err error) error

	maxVisits  int
	visits     atomic.Int64
	status     Status
	finishOnce sync.Once
}

// New 构造一个故事实例
//
// 渲染器在此被绑定且在故事生命周期内不再更换；
// 旁白在此被自动注册；非法的渲染器选择在此报错。
func New(opts Options) (*Story, error) {
	renderer, err := render.Resolve(opts.Renderer)
	if err != nil {
		return nil, err
	}

	s := &Story{
		scenes:        make(map[string]SceneLogic),
		characters:    make(map[string]*Character),
		speakers:      make(map[string]Speaker),
		data:          make(map[string]interface{}),
		renderer:      renderer,
		narratorID:    NarratorID,
		onSceneChange: opts.OnSceneChange,
		onFinish:      opts.OnFinish,
		onError:       opts.OnError,
		maxVisits:     opts.MaxVisits,
		status:        StatusIdle,
	}

	if s.onError == nil {
		// 缺省错误钩子：总是升级
		s.onError = func(err error) error { return err }
	}

	narratorName := opts.NarratorName
	if narratorName == "" {
		narratorName = DefaultNarratorName
	}
	s.RegisterCharacter(NarratorID, narratorName, nil)

	for id, seed := range opts.Characters {
		s.RegisterCharacter(id, seed.Name, seed.Data)
	}
	for id, logic := range opts.Scenes {
		s.RegisterScene(id, logic)
	}

	renderer.Attach(s)

	return s, nil
}

// NarratorID 返回旁白角色的标识，供渲染器区分旁白消息
func (s *Story) NarratorID() string {
	return s.narratorID
}

// Renderer 返回绑定的渲染器
func (s *Story) Renderer() render.Renderer {
	return s.renderer
}

// RegisterScene 注册或整体替换一个场景的逻辑
// 重复注册同一标识是合法的，静默覆盖
func (s *Story) RegisterScene(id string, logic SceneLogic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scenes[id] = logic
}

// GetScene 按标识查找场景逻辑
func (s *Story) GetScene(id string) (SceneLogic, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logic, ok := s.scenes[id]
	return logic, ok
}

// RegisterCharacter 注册或整体替换一个角色
//
// 空名字使用占位名；注册同时刷新该角色的发言句柄。
// 被替换的旧角色对象成为孤儿，不再能从注册表到达。
func (s *Story) RegisterCharacter(id, name string, data map[string]interface{}) *Character {
	if name == "" {
		name = UnknownName
	}
	if data == nil {
		data = make(map[string]interface{})
	}

	ch := &Character{
		id:    id,
		name:  name,
		data:  data,
		story: s,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.characters[id] = ch
	s.speakers[id] = Speaker{story: s, id: id, ch: ch}

	return ch
}

// GetCharacter 按标识查找角色
func (s *Story) GetCharacter(id string) (*Character, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.characters[id]
	return ch, ok
}

// Speaker 返回角色当前的发言句柄
func (s *Story) Speaker(id string) (Speaker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.speakers[id]
	return sp, ok
}

// Narrator 返回旁白的发言句柄
func (s *Story) Narrator() Speaker {
	sp, _ := s.Speaker(s.narratorID)
	return sp
}

// Get 读取共享数据袋中的值
func (s *Story) Get(key string) (interface{}, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Set 写入共享数据袋
func (s *Story) Set(key string, value interface{}) {
	s.data[key] = value
}

// Data 返回共享数据袋本身
//
// 数据袋不加锁：引擎是单线程协作模型，一个故事同一时刻只被
// 一个 goroutine 驱动。跨 goroutine 共享数据袋需要宿主自行同步。
func (s *Story) Data() map[string]interface{} {
	return s.data
}

// Status 返回当前导航状态
func (s *Story) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status
}

// Visits 返回累计的场景访问次数，诊断用
func (s *Story) Visits() int64 {
	return s.visits.Load()
}

func (s *Story) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
}

// State 场景逻辑的执行入口：共享数据袋和角色发言句柄的访问面
type State struct {
	story *Story
}

// Story 返回所属故事
func (st *State) Story() *Story {
	return st.story
}

// Get 读取共享数据袋
func (st *State) Get(key string) (interface{}, bool) {
	return st.story.Get(key)
}

// Set 写入共享数据袋
func (st *State) Set(key string, value interface{}) {
	st.story.Set(key, value)
}

// Data 返回共享数据袋
func (st *State) Data() map[string]interface{} {
	return st.story.Data()
}

// Speaker 返回角色的发言句柄
func (st *State) Speaker(id string) (Speaker, bool) {
	return st.story.Speaker(id)
}

// Narrator 返回旁白的发言句柄
func (st *State) Narrator() Speaker {
	return st.story.Narrator()
}

// 编译期确认 Story 满足渲染器的故事信息回引
var _ render.StoryInfo = (*Story)(nil)

// 编译期确认 Character 可被渲染器呈现
var _ render.Character = (*Character)(nil)
