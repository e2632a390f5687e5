// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// 当前配置的单例实例
var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// AppConfig 包含应用程序的所有配置
type AppConfig struct {
	// 基础配置
	Port       string `json:"port"`
	DataDir    string `json:"data_dir"`
	ScriptsDir string `json:"scripts_dir"`
	ExportsDir string `json:"exports_dir"`
	StaticDir  string `json:"static_dir"`
	LogDir     string `json:"log_dir"`
	DebugMode  bool   `json:"debug_mode"`

	// 引擎相关配置
	// MaxSceneVisits 单次导航链的场景访问上限，0 表示不设限
	MaxSceneVisits int `json:"max_scene_visits"`
	// NarratorAsCharacter 控制 Web 播放端是否把旁白按普通角色呈现
	NarratorAsCharacter bool `json:"narrator_as_character"`
}

// Config 存储从环境变量加载的基础配置
type Config struct {
	Port           string
	DataDir        string
	ScriptsDir     string
	ExportsDir     string
	StaticDir      string
	LogDir         string
	DebugMode      bool
	MaxSceneVisits int
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		DataDir:        getEnvPath("DATA_DIR", "data"),
		ScriptsDir:     getEnvPath("SCRIPTS_DIR", "data/scripts"),
		ExportsDir:     getEnvPath("EXPORTS_DIR", "data/exports"),
		StaticDir:      getEnv("STATIC_DIR", "web/static"),
		LogDir:         getEnvPath("LOG_DIR", "logs"),
		DebugMode:      getEnvBool("DEBUG_MODE", true),
		MaxSceneVisits: getEnvInt("MAX_SCENE_VISITS", 0),
	}

	return config, nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath 获取环境变量表示的路径，如果不存在则返回默认值
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	// 确保目录存在
	if _, err := os.Stat(path); os.IsNotExist(err) {
		err = os.MkdirAll(path, 0755)
		if err != nil {
			fmt.Printf("警告: 创建目录失败 %s: %v\n", path, err)
		}
	}

	return path
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt 获取整数类型环境变量
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// InitConfig 初始化配置管理器
func InitConfig(dataDir string) error {
	configFile = filepath.Join(dataDir, "config.json")

	// 加载基础配置
	baseConfig, err := Load()
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	currentConfig = &AppConfig{
		Port:           baseConfig.Port,
		DataDir:        baseConfig.DataDir,
		ScriptsDir:     baseConfig.ScriptsDir,
		ExportsDir:     baseConfig.ExportsDir,
		StaticDir:      baseConfig.StaticDir,
		LogDir:         baseConfig.LogDir,
		DebugMode:      baseConfig.DebugMode,
		MaxSceneVisits: baseConfig.MaxSceneVisits,
	}

	// 尝试从文件加载已保存的配置
	if _, err := os.Stat(configFile); !os.IsNotExist(err) {
		data, err := os.ReadFile(configFile)
		if err == nil {
			var savedConfig AppConfig
			if json.Unmarshal(data, &savedConfig) == nil {
				// 合并配置：保留文件中的引擎设置，但使用最新的基础配置
				savedConfig.Port = baseConfig.Port
				savedConfig.DataDir = baseConfig.DataDir
				savedConfig.ScriptsDir = baseConfig.ScriptsDir
				savedConfig.ExportsDir = baseConfig.ExportsDir
				savedConfig.StaticDir = baseConfig.StaticDir
				savedConfig.LogDir = baseConfig.LogDir
				savedConfig.DebugMode = baseConfig.DebugMode

				currentConfig = &savedConfig
			}
		}
	}

	// 保存初始配置到文件
	return SaveConfig()
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		// 紧急情况，返回一个基本配置
		baseConfig, _ := Load()
		return &AppConfig{
			Port:           baseConfig.Port,
			DataDir:        baseConfig.DataDir,
			ScriptsDir:     baseConfig.ScriptsDir,
			ExportsDir:     baseConfig.ExportsDir,
			StaticDir:      baseConfig.StaticDir,
			LogDir:         baseConfig.LogDir,
			DebugMode:      baseConfig.DebugMode,
			MaxSceneVisits: baseConfig.MaxSceneVisits,
		}
	}

	// 返回配置的副本
	configCopy := *currentConfig
	return &configCopy
}

// UpdateEngineConfig 更新引擎相关配置
func UpdateEngineConfig(maxSceneVisits int, narratorAsCharacter bool) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("配置系统未初始化")
	}

	currentConfig.MaxSceneVisits = maxSceneVisits
	currentConfig.NarratorAsCharacter = narratorAsCharacter

	return saveConfigLocked()
}

// SaveConfig 保存当前配置到文件
func SaveConfig() error {
	return saveConfigLocked()
}

func saveConfigLocked() error {
	if currentConfig == nil {
		return fmt.Errorf("没有配置可保存")
	}

	// 确保目录存在
	dir := filepath.Dir(configFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}

	// 序列化并保存
	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	return os.WriteFile(configFile, data, 0644)
}
