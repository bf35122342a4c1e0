package model

import (
	"time"
)

// APIConfig 大模型服务商配置
type APIConfig struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;uniqueIndex;not null"`
	Provider  string    `json:"provider" gorm:"size:50;index;not null"` // openai/deepseek/openrouter/moonshot/...
	BaseURL   string    `json:"base_url" gorm:"size:500;not null"`
	APIKey    string    `json:"api_key" gorm:"type:text;not null"`
	Model     string    `json:"model" gorm:"size:255;not null"`
	Active    bool      `json:"active" gorm:"default:false;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (APIConfig) TableName() string {
	return "api_configs"
}

// MaskAPIKey 脱敏 API Key（只显示前3位和后4位），密钥保存后不再回传明文
func (a *APIConfig) MaskAPIKey() string {
	if len(a.APIKey) <= 7 {
		return "***"
	}
	return a.APIKey[:3] + "***" + a.APIKey[len(a.APIKey)-4:]
}
