package llm

import (
	"testing"
)

func TestGenericProviderNormalizeBaseURL(t *testing.T) {
	p := ProviderFor("deepseek")
	cases := map[string]string{
		"https://api.deepseek.com":     "https://api.deepseek.com/v1",
		"https://api.deepseek.com/":    "https://api.deepseek.com/v1",
		"https://api.deepseek.com/v1":  "https://api.deepseek.com/v1",
		"https://api.deepseek.com/v1/": "https://api.deepseek.com/v1",
	}
	for in, want := range cases {
		if got := p.NormalizeBaseURL(in); got != want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenRouterNormalizeBaseURL(t *testing.T) {
	p := ProviderFor("openrouter")
	cases := map[string]string{
		"https://openrouter.ai":        "https://openrouter.ai/api/v1",
		"https://openrouter.ai/":       "https://openrouter.ai/api/v1",
		"https://openrouter.ai/api":    "https://openrouter.ai/api/v1",
		"https://openrouter.ai/api/v1": "https://openrouter.ai/api/v1",
	}
	for in, want := range cases {
		if got := p.NormalizeBaseURL(in); got != want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenRouterHeaders(t *testing.T) {
	h := ProviderFor("openrouter").Headers()
	if h["HTTP-Referer"] == "" || h["X-Title"] == "" {
		t.Errorf("openrouter must inject HTTP-Referer and X-Title headers, got %v", h)
	}
}

func TestProviderForUnknownFallsBack(t *testing.T) {
	p := ProviderFor("some-new-vendor")
	if p.Name() != "generic" {
		t.Errorf("unknown provider id should use generic adapter, got %s", p.Name())
	}
	if got := p.NormalizeBaseURL("https://example.com/api"); got != "https://example.com/api/v1" {
		t.Errorf("generic normalize failed: %s", got)
	}
}
