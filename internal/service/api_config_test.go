package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenderwizard/backend/internal/repository"
)

func newConfigService(t *testing.T) APIConfigService {
	t.Helper()
	return NewAPIConfigService(repository.NewAPIConfigRepository(newTestDB(t)))
}

func TestAPIConfigMasksKey(t *testing.T) {
	svc := newConfigService(t)

	created, err := svc.Create(context.Background(), &APIConfigRequest{
		Name:     "deepseek",
		Provider: "deepseek",
		BaseURL:  "https://api.deepseek.com",
		APIKey:   "sk-1234567890abcdef",
		Model:    "deepseek-chat",
	})
	require.NoError(t, err)
	assert.Equal(t, "sk-***cdef", created.APIKey)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "sk-***cdef", got.APIKey)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotContains(t, list[0].APIKey, "1234567890")
}

func TestAPIConfigUpdateKeepsKeyWhenBlank(t *testing.T) {
	svc := newConfigService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &APIConfigRequest{
		Name:     "moonshot",
		Provider: "moonshot",
		BaseURL:  "https://api.moonshot.cn",
		APIKey:   "sk-1234567890abcdef",
		Model:    "moonshot-v1-8k",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, &APIConfigRequest{
		Name:     "moonshot-v2",
		Provider: "moonshot",
		BaseURL:  "https://api.moonshot.cn",
		APIKey:   "",
		Model:    "moonshot-v1-32k",
	})
	require.NoError(t, err)
	assert.Equal(t, "moonshot-v2", updated.Name)
	// 密钥留空表示不修改
	assert.Equal(t, "sk-***cdef", updated.APIKey)
}

func TestAPIConfigActivateExclusive(t *testing.T) {
	svc := newConfigService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, &APIConfigRequest{Name: "a", Provider: "openai", BaseURL: "https://x", APIKey: "sk-1234567890", Model: "gpt-4o"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, &APIConfigRequest{Name: "b", Provider: "deepseek", BaseURL: "https://y", APIKey: "sk-0987654321", Model: "deepseek-chat"})
	require.NoError(t, err)

	require.NoError(t, svc.Activate(ctx, a.ID))
	require.NoError(t, svc.Activate(ctx, b.ID))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	activeCount := 0
	for _, c := range list {
		if c.Active {
			activeCount++
			assert.Equal(t, b.ID, c.ID)
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestAPIConfigTestSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"pong"}}]}`))
	}))
	defer server.Close()

	svc := newConfigService(t)
	result := svc.Test(context.Background(), &TestConfigRequest{
		Provider: "openai",
		BaseURL:  server.URL,
		APIKey:   "sk-test",
		Model:    "gpt-4o",
	})
	assert.True(t, result.OK)
}

func TestAPIConfigTestAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := newConfigService(t)
	result := svc.Test(context.Background(), &TestConfigRequest{
		Provider: "openai",
		BaseURL:  server.URL,
		APIKey:   "sk-bad",
		Model:    "gpt-4o",
	})
	assert.False(t, result.OK)
	assert.Contains(t, result.Message, "认证失败")
}

func TestAPIConfigTestMissingKey(t *testing.T) {
	svc := newConfigService(t)
	result := svc.Test(context.Background(), &TestConfigRequest{
		Provider: "openai",
		BaseURL:  "https://api.openai.com",
		Model:    "gpt-4o",
	})
	assert.False(t, result.OK)
}

func TestAPIConfigTestByStoredID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"pong"}}]}`))
	}))
	defer server.Close()

	svc := newConfigService(t)
	created, err := svc.Create(context.Background(), &APIConfigRequest{
		Name: "local", Provider: "openai", BaseURL: server.URL, APIKey: "sk-1234567890", Model: "gpt-4o",
	})
	require.NoError(t, err)

	result := svc.Test(context.Background(), &TestConfigRequest{ID: created.ID})
	assert.True(t, result.OK)
}
