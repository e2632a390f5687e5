// internal/services/script_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Corphon/StoryFlowMCP/internal/errors"
	"github.com/Corphon/StoryFlowMCP/internal/flow"
	"github.com/Corphon/StoryFlowMCP/internal/models"
	"github.com/Corphon/StoryFlowMCP/internal/storage"
)

var (
	ErrScriptNotFound = errors.New("script not found")
)

// ScriptService 管理数据驱动的故事脚本：
// 解析 YAML 脚本、持久化、把脚本场景编译成可注册的场景逻辑
type ScriptService struct {
	BasePath    string
	FileStorage *storage.FileStorage

	mu      sync.RWMutex
	scripts map[string]*models.Script
}

// NewScriptService 创建脚本服务
func NewScriptService(basePath string) *ScriptService {
	if basePath == "" {
		basePath = "data/scripts"
	}

	fileStorage, err := storage.NewFileStorage(basePath)
	if err != nil {
		log.Printf("警告: 创建脚本存储失败: %v", err)
		fileStorage = nil
	}

	return &ScriptService{
		BasePath:    basePath,
		FileStorage: fileStorage,
		scripts:     make(map[string]*models.Script),
	}
}

// ParseScript 解析并校验一份 YAML 脚本
//
// 只做形状校验（标识非空、场景标识不重复）；
// 场景图的连通性留给运行时，引擎不做超前验证。
func (s *ScriptService) ParseScript(data []byte) (*models.Script, error) {
	var script models.Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, apperrors.NewValidationError("脚本YAML解析失败", err)
	}

	if strings.TrimSpace(script.ID) == "" {
		return nil, apperrors.NewValidationError("脚本缺少 id", nil)
	}
	if len(script.Scenes) == 0 {
		return nil, apperrors.NewValidationError("脚本不含任何场景", nil)
	}

	seen := make(map[string]bool, len(script.Scenes))
	for _, scene := range script.Scenes {
		if strings.TrimSpace(scene.ID) == "" {
			return nil, apperrors.NewValidationError("脚本中存在缺少 id 的场景", nil)
		}
		if seen[scene.ID] {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("脚本中场景 id 重复: %s", scene.ID), nil)
		}
		seen[scene.ID] = true

		if scene.Next != "" && len(scene.Choices) > 0 {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("场景 %s 同时声明了 next 和 choices", scene.ID), nil)
		}
	}

	return &script, nil
}

// ImportScript 解析脚本、缓存并持久化原始 YAML
func (s *ScriptService) ImportScript(data []byte) (*models.Script, error) {
	script, err := s.ParseScript(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.scripts[script.ID] = script
	s.mu.Unlock()

	if s.FileStorage != nil {
		if err := s.FileStorage.SaveTextFile("", script.ID+".yaml", data); err != nil {
			return nil, fmt.Errorf("持久化脚本失败: %w", err)
		}
	}

	return script, nil
}

// LoadAll 从存储目录加载全部脚本到缓存
func (s *ScriptService) LoadAll() error {
	if s.FileStorage == nil {
		return nil
	}

	files, err := s.FileStorage.ListFiles("", ".yaml")
	if err != nil {
		return err
	}

	for _, name := range files {
		data, err := s.FileStorage.LoadTextFile("", name)
		if err != nil {
			log.Printf("警告: 读取脚本 %s 失败: %v", name, err)
			continue
		}
		script, err := s.ParseScript(data)
		if err != nil {
			log.Printf("警告: 脚本 %s 解析失败: %v", name, err)
			continue
		}

		s.mu.Lock()
		s.scripts[script.ID] = script
		s.mu.Unlock()
	}

	return nil
}

// GetScript 按标识查找脚本
func (s *ScriptService) GetScript(id string) (*models.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	script, ok := s.scripts[id]
	if !ok {
		return nil, ErrScriptNotFound
	}
	return script, nil
}

// ListScripts 返回全部已加载脚本
func (s *ScriptService) ListScripts() []*models.Script {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scripts := make([]*models.Script, 0, len(s.scripts))
	for _, script := range s.scripts {
		scripts = append(scripts, script)
	}
	return scripts
}

// BuildOptions 把脚本展开进故事的构造配置：
// 角色名册、旁白覆盖，以及把每个脚本场景编译成场景逻辑
func (s *ScriptService) BuildOptions(script *models.Script, base flow.Options) flow.Options {
	opts := base

	if script.Narrator.Name != "" {
		opts.NarratorName = script.Narrator.Name
	}

	if opts.Characters == nil {
		opts.Characters = make(map[string]flow.CharacterSeed, len(script.Characters))
	}
	for _, ch := range script.Characters {
		opts.Characters[ch.ID] = flow.CharacterSeed{
			Name: ch.Name,
			Data: ch.Data,
		}
	}

	if opts.Scenes == nil {
		opts.Scenes = make(map[string]flow.SceneLogic, len(script.Scenes))
	}
	for _, scene := range script.Scenes {
		opts.Scenes[scene.ID] = compileScene(scene)
	}

	return opts
}

// compileScene 把一个脚本场景编译成场景逻辑：
// 依次说完台词，然后呈现选择、跳转，或就地停驻
func compileScene(scene models.ScriptScene) flow.SceneLogic {
	return func(ctx context.Context, st *flow.State) (flow.Result, error) {
		for _, line := range scene.Lines {
			speaker, err := speakerFor(st, line.Speaker)
			if err != nil {
				return nil, err
			}
			if _, err := speaker.Say(ctx, line.Text); err != nil {
				return nil, err
			}
		}

		if len(scene.Choices) > 0 {
			menu := &flow.Menu{
				Options: make([]flow.Option, 0, len(scene.Choices)),
			}
			for _, choice := range scene.Choices {
				menu.Options = append(menu.Options, flow.Option{
					Label: choice.Label,
					Next:  choice.Next,
				})
			}
			if key := scene.AlwaysCount; key != "" {
				menu.Always = func(ctx context.Context) error {
					n, _ := intFrom(st, key)
					st.Set(key, n+1)
					return nil
				}
			}
			return flow.Show(menu), nil
		}

		if scene.Next != "" {
			return flow.Goto(scene.Next), nil
		}

		return nil, nil
	}
}

// speakerFor 解析台词的发言人，空值和 "narrator" 都归属旁白
func speakerFor(st *flow.State, id string) (flow.Speaker, error) {
	if id == "" || id == flow.NarratorID {
		return st.Narrator(), nil
	}

	speaker, ok := st.Speaker(id)
	if !ok {
		return flow.Speaker{}, apperrors.NewValidationError(
			fmt.Sprintf("脚本台词引用了未注册角色: %s", id), nil)
	}
	return speaker, nil
}

// intFrom 读取共享数据袋中的整数值，YAML 反序列化可能给出多种数值类型
func intFrom(st *flow.State, key string) (int, bool) {
	v, ok := st.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
