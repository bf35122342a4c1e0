package llm

import (
	"strings"
)

// Provider 抹平各家服务商在 Base URL 与请求头上的差异
// 按 provider id 查表选择实现，调用链路上不再出现服务商分支
type Provider interface {
	Name() string
	// NormalizeBaseURL 归一化 Base URL，保证版本段不重复也不缺失
	NormalizeBaseURL(base string) string
	// Headers 返回该服务商额外要求的请求头
	Headers() map[string]string
}

// genericProvider OpenAI 兼容服务商的默认适配
type genericProvider struct {
	name string
}

func (p genericProvider) Name() string { return p.name }

func (p genericProvider) NormalizeBaseURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return base
	}
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

func (p genericProvider) Headers() map[string]string { return nil }

// openRouterProvider OpenRouter 要求 /api/v1 路径和来源标识头
type openRouterProvider struct{}

func (openRouterProvider) Name() string { return "openrouter" }

func (openRouterProvider) NormalizeBaseURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return base
	}
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	if strings.HasSuffix(base, "/api") {
		return base + "/v1"
	}
	if strings.Contains(base, "api/v1") {
		return base
	}
	return base + "/api/v1"
}

func (openRouterProvider) Headers() map[string]string {
	return map[string]string{
		"HTTP-Referer": "http://localhost:5173",
		"X-Title":      "TenderWizard",
	}
}

var providers = map[string]Provider{
	"openai":     genericProvider{name: "openai"},
	"deepseek":   genericProvider{name: "deepseek"},
	"moonshot":   genericProvider{name: "moonshot"},
	"dashscope":  genericProvider{name: "dashscope"},
	"openrouter": openRouterProvider{},
}

// ProviderFor 按 provider id 取适配器，未知 id 走默认适配
func ProviderFor(id string) Provider {
	if p, ok := providers[strings.ToLower(strings.TrimSpace(id))]; ok {
		return p
	}
	return genericProvider{name: "generic"}
}
