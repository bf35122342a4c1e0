package config

import (
	"encoding/json"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	CORS     CORSConfig     `yaml:"cors"`
	LLM      LLMConfig      `yaml:"llm"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

// LLMConfig 兜底的大模型配置，数据库中没有启用的 API 配置时使用
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

func loadConfig() *Config {
	config := &Config{
		Server: ServerConfig{
			Port: "8000",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/app.db",
		},
		CORS: CORSConfig{
			Origins: []string{"http://localhost", "http://localhost:5173"},
		},
		LLM: LLMConfig{
			BaseURL: "https://api.deepseek.com/v1",
			Model:   "deepseek-chat",
		},
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		yaml.Unmarshal(data, config)
	}

	// 环境变量优先级高于配置文件
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	// 允许的跨域来源，JSON 数组格式，例如 ["http://example.com"]
	if origins := os.Getenv("BACKEND_CORS_ORIGINS"); origins != "" {
		var extra []string
		if err := json.Unmarshal([]byte(origins), &extra); err != nil {
			klog.Warningf("无法解析 BACKEND_CORS_ORIGINS: %v", err)
		} else {
			config.CORS.Origins = append(config.CORS.Origins, extra...)
		}
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if model := os.Getenv("OPENAI_MODEL_NAME"); model != "" {
		config.LLM.Model = model
	}

	return config
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
