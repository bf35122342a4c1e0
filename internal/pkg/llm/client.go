package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"k8s.io/klog/v2"
)

// 错误分类：校验失败、鉴权失败、上游不可达、响应不可解析
// 本层不做任何重试，重试与否由调用方决定
var (
	ErrNoAPIKey          = errors.New("未配置 API Key，请先在系统设置中配置 AI 模型")
	ErrAuth              = errors.New("服务商鉴权失败，请检查 API Key")
	ErrUpstream          = errors.New("AI 服务请求失败")
	ErrMalformedResponse = errors.New("模型返回内容无法解析为结构化数据")
)

// Config 一次调用使用的服务商配置，来自数据库中启用的 APIConfig
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
}

// Client 大模型客户端，单次阻塞调用，超时由 HTTP 客户端兜底
type Client struct {
	baseURL string
	apiKey  string
	model   string
	headers map[string]string
	httpc   *http.Client
}

// NewClient 按配置创建客户端，Base URL 与请求头交给服务商适配器处理
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	p := ProviderFor(cfg.Provider)
	return &Client{
		baseURL: p.NormalizeBaseURL(cfg.BaseURL),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		headers: p.Headers(),
		httpc: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Chat 发送一次对话请求，返回首条回复文本
func (c *Client) Chat(ctx context.Context, messages []ChatMessage, jsonMode bool) (string, error) {
	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
	}
	if jsonMode {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	resp, err := c.sendRequest(ctx, reqBody)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: 响应中没有候选内容", ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping 用最小请求验证配置连通性
func (c *Client) Ping(ctx context.Context) error {
	reqBody := ChatRequest{
		Model:     c.model,
		Messages:  []ChatMessage{{Role: "user", Content: "ping"}},
		MaxTokens: 1,
	}
	_, err := c.sendRequest(ctx, reqBody)
	return err
}

// sendRequest 发送 HTTP 请求到服务商的 chat/completions 端点
func (c *Client) sendRequest(ctx context.Context, reqBody ChatRequest) (*ChatResponse, error) {
	url := c.baseURL + "/chat/completions"
	klog.V(6).Infof("发送 LLM 请求: url=%s, model=%s", url, reqBody.Model)

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取响应失败: %v", ErrUpstream, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: HTTP %d", ErrAuth, resp.StatusCode)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: HTTP %d: %v", ErrUpstream, resp.StatusCode, err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, chatResp.Error.Message)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode)
	}

	return &chatResp, nil
}
