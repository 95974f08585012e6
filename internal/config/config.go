// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
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
	Port         string `json:"port"`
	OpenAIAPIKey string `json:"openai_api_key,omitempty"`
	TrendsAPIKey string `json:"trends_api_key,omitempty"`
	DataDir      string `json:"data_dir"`
	UploadDir    string `json:"upload_dir"`
	WebDir       string `json:"web_dir"`
	LogDir       string `json:"log_dir"`
	DebugMode    bool   `json:"debug_mode"`

	// 热门话题抓取配置
	ScrapeTrends  bool   `json:"scrape_trends"`
	TrendsPageURL string `json:"trends_page_url"`

	// LLM相关配置
	LLMProvider string            `json:"llm_provider"`
	LLMConfig   map[string]string `json:"llm_config"`
}

// Config 存储从环境变量加载的应用配置
type Config struct {
	Port          string
	OpenAIAPIKey  string
	TrendsAPIKey  string
	DataDir       string
	UploadDir     string
	WebDir        string
	LogDir        string
	DebugMode     bool
	ScrapeTrends  bool
	TrendsPageURL string
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	godotenv.Load()

	config := &Config{
		Port:          getEnv("PORT", "8080"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		TrendsAPIKey:  getEnv("TRENDS_API_KEY", ""),
		DataDir:       getEnvPath("DATA_DIR", "data"),
		UploadDir:     getEnvPath("UPLOAD_DIR", "uploads"),
		WebDir:        getEnv("WEB_DIR", "web"),
		LogDir:        getEnvPath("LOG_DIR", "logs"),
		DebugMode:     getEnvBool("DEBUG_MODE", true),
		ScrapeTrends:  getEnvBool("SCRAPE_TRENDS", false),
		TrendsPageURL: getEnv("TRENDS_PAGE_URL", "https://www.tiktok.com/discover"),
	}

	if config.OpenAIAPIKey == "" {
		// 只记录警告，不返回错误；文案生成端点会返回配置错误
		log.Println("警告: 未设置OPENAI_API_KEY，文案生成功能不可用")
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
		if err := os.MkdirAll(path, 0755); err != nil {
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

// InitConfig 初始化配置管理器
func InitConfig(dataDir string) error {
	configFile = filepath.Join(dataDir, "config.json")

	baseConfig, err := Load()
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	currentConfig = &AppConfig{
		Port:          baseConfig.Port,
		OpenAIAPIKey:  baseConfig.OpenAIAPIKey,
		TrendsAPIKey:  baseConfig.TrendsAPIKey,
		DataDir:       baseConfig.DataDir,
		UploadDir:     baseConfig.UploadDir,
		WebDir:        baseConfig.WebDir,
		LogDir:        baseConfig.LogDir,
		DebugMode:     baseConfig.DebugMode,
		ScrapeTrends:  baseConfig.ScrapeTrends,
		TrendsPageURL: baseConfig.TrendsPageURL,
		LLMProvider:   getEnv("LLM_PROVIDER", "openai"),
		LLMConfig: map[string]string{
			"api_key":       baseConfig.OpenAIAPIKey,
			"default_model": "gpt-4o-mini",
		},
	}

	// 尝试从文件加载已保存的配置
	if _, err := os.Stat(configFile); !os.IsNotExist(err) {
		data, err := os.ReadFile(configFile)
		if err == nil {
			var savedConfig AppConfig
			if json.Unmarshal(data, &savedConfig) == nil {
				// 合并配置，保留文件中的LLM设置，但使用最新的基础配置
				savedConfig.Port = baseConfig.Port
				savedConfig.DataDir = baseConfig.DataDir
				savedConfig.UploadDir = baseConfig.UploadDir
				savedConfig.WebDir = baseConfig.WebDir
				savedConfig.LogDir = baseConfig.LogDir
				savedConfig.DebugMode = baseConfig.DebugMode
				savedConfig.ScrapeTrends = baseConfig.ScrapeTrends
				savedConfig.TrendsPageURL = baseConfig.TrendsPageURL
				savedConfig.TrendsAPIKey = baseConfig.TrendsAPIKey

				// 如果文件中没有API密钥，使用环境变量的密钥
				if savedConfig.LLMConfig != nil && savedConfig.LLMConfig["api_key"] == "" {
					savedConfig.LLMConfig["api_key"] = baseConfig.OpenAIAPIKey
				}

				currentConfig = &savedConfig
			}
		}
	}

	return saveConfigLocked()
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		// 紧急情况，返回一个基本配置
		baseConfig, _ := Load()
		return &AppConfig{
			Port:          baseConfig.Port,
			OpenAIAPIKey:  baseConfig.OpenAIAPIKey,
			DataDir:       baseConfig.DataDir,
			UploadDir:     baseConfig.UploadDir,
			WebDir:        baseConfig.WebDir,
			LogDir:        baseConfig.LogDir,
			DebugMode:     baseConfig.DebugMode,
			ScrapeTrends:  baseConfig.ScrapeTrends,
			TrendsPageURL: baseConfig.TrendsPageURL,
			LLMProvider:   "openai",
			LLMConfig: map[string]string{
				"api_key": baseConfig.OpenAIAPIKey,
			},
		}
	}

	configCopy := *currentConfig
	return &configCopy
}

// UpdateLLMConfig 更新LLM配置
func UpdateLLMConfig(provider string, config map[string]string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("配置系统未初始化")
	}

	currentConfig.LLMProvider = provider
	currentConfig.LLMConfig = config

	return saveConfigLocked()
}

// SaveConfig 保存当前配置到文件
func SaveConfig() error {
	configMutex.Lock()
	defer configMutex.Unlock()
	return saveConfigLocked()
}

func saveConfigLocked() error {
	if currentConfig == nil {
		return fmt.Errorf("没有配置可保存")
	}

	dir := filepath.Dir(configFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}

	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	return os.WriteFile(configFile, data, 0644)
}
