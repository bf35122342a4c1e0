package service

import (
	"context"
	"errors"

	"github.com/tenderwizard/backend/internal/model"
	"github.com/tenderwizard/backend/internal/pkg/llm"
	"github.com/tenderwizard/backend/internal/repository"
	"k8s.io/klog/v2"
)

// APIConfigRequest 新建或更新一条模型服务配置
type APIConfigRequest struct {
	Name     string `json:"name" binding:"required"`
	Provider string `json:"provider" binding:"required"`
	BaseURL  string `json:"base_url" binding:"required"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model" binding:"required"`
}

// APIConfigResponse 对外返回的配置，密钥已脱敏
type APIConfigResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	BaseURL  string `json:"base_url"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
	Active   bool   `json:"active"`
}

// TestConfigRequest 连通性测试，id 和内联配置二选一
type TestConfigRequest struct {
	ID       uint   `json:"id"`
	Provider string `json:"provider"`
	BaseURL  string `json:"base_url"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
}

// TestConfigResult 测试结果，给界面一个可展示的结论
type TestConfigResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type APIConfigService interface {
	Create(ctx context.Context, req *APIConfigRequest) (*APIConfigResponse, error)
	Update(ctx context.Context, id uint, req *APIConfigRequest) (*APIConfigResponse, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*APIConfigResponse, error)
	List(ctx context.Context) ([]APIConfigResponse, error)
	Activate(ctx context.Context, id uint) error
	// Test 发送一次最小补全请求验证配置可用
	Test(ctx context.Context, req *TestConfigRequest) *TestConfigResult
}

type apiConfigService struct {
	configs repository.APIConfigRepository
}

func NewAPIConfigService(configs repository.APIConfigRepository) APIConfigService {
	return &apiConfigService{configs: configs}
}

func (s *apiConfigService) Create(ctx context.Context, req *APIConfigRequest) (*APIConfigResponse, error) {
	cfg := &model.APIConfig{
		Name:     req.Name,
		Provider: req.Provider,
		BaseURL:  req.BaseURL,
		APIKey:   req.APIKey,
		Model:    req.Model,
	}
	if err := s.configs.Create(ctx, cfg); err != nil {
		return nil, err
	}
	return toConfigResponse(cfg), nil
}

func (s *apiConfigService) Update(ctx context.Context, id uint, req *APIConfigRequest) (*APIConfigResponse, error) {
	cfg, err := s.configs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg.Name = req.Name
	cfg.Provider = req.Provider
	cfg.BaseURL = req.BaseURL
	cfg.Model = req.Model
	// 留空表示沿用已保存的密钥，界面上拿到的是脱敏值
	if req.APIKey != "" {
		cfg.APIKey = req.APIKey
	}
	if err := s.configs.Update(ctx, cfg); err != nil {
		return nil, err
	}
	return toConfigResponse(cfg), nil
}

func (s *apiConfigService) Delete(ctx context.Context, id uint) error {
	return s.configs.Delete(ctx, id)
}

func (s *apiConfigService) Get(ctx context.Context, id uint) (*APIConfigResponse, error) {
	cfg, err := s.configs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toConfigResponse(cfg), nil
}

func (s *apiConfigService) List(ctx context.Context) ([]APIConfigResponse, error) {
	configs, err := s.configs.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]APIConfigResponse, 0, len(configs))
	for i := range configs {
		result = append(result, *toConfigResponse(&configs[i]))
	}
	return result, nil
}

func (s *apiConfigService) Activate(ctx context.Context, id uint) error {
	return s.configs.Activate(ctx, id)
}

func (s *apiConfigService) Test(ctx context.Context, req *TestConfigRequest) *TestConfigResult {
	cfg := llm.Config{
		Provider: req.Provider,
		BaseURL:  req.BaseURL,
		APIKey:   req.APIKey,
		Model:    req.Model,
	}
	if req.ID != 0 {
		stored, err := s.configs.Get(ctx, req.ID)
		if err != nil {
			return &TestConfigResult{OK: false, Message: "配置不存在"}
		}
		cfg = llm.Config{
			Provider: stored.Provider,
			BaseURL:  stored.BaseURL,
			APIKey:   stored.APIKey,
			Model:    stored.Model,
		}
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		return &TestConfigResult{OK: false, Message: err.Error()}
	}
	if err := client.Ping(ctx); err != nil {
		klog.V(6).Infof("API 配置测试失败: %v", err)
		switch {
		case errors.Is(err, llm.ErrAuth):
			return &TestConfigResult{OK: false, Message: "认证失败，请检查 API Key"}
		default:
			return &TestConfigResult{OK: false, Message: "连接失败: " + err.Error()}
		}
	}
	return &TestConfigResult{OK: true, Message: "连接成功"}
}

func toConfigResponse(cfg *model.APIConfig) *APIConfigResponse {
	return &APIConfigResponse{
		ID:       cfg.ID,
		Name:     cfg.Name,
		Provider: cfg.Provider,
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.MaskAPIKey(),
		Model:    cfg.Model,
		Active:   cfg.Active,
	}
}
