// internal/services/llm_service.go
package services

import (
	"context"
	"crypto/md5"
	"fmt"
	"sync"
	"time"

	"github.com/Corphon/CreatorPulseMCP/internal/apperr"
	"github.com/Corphon/CreatorPulseMCP/internal/config"
	"github.com/Corphon/CreatorPulseMCP/internal/llm"
)

var providerDefaultModels = map[string]string{
	"openai":     "gpt-4o-mini",
	"openrouter": "google/gemma-3-27b-it:free",
}

// LLMService 提供统一的大语言模型调用接口
type LLMService struct {
	providerMutex sync.RWMutex
	provider      llm.Provider
	providerName  string
	cache         *llmCache
	isReady       bool
	readyState    string
}

type llmCache struct {
	entries    map[string]*llmCacheEntry
	mutex      sync.RWMutex
	expiration time.Duration
}

type llmCacheEntry struct {
	response  *llm.CompletionResponse
	createdAt time.Time
}

// NewLLMService 创建一个新的LLM服务
func NewLLMService() *LLMService {
	service := createBaseLLMService()

	cfg := config.GetCurrentConfig()
	if cfg == nil {
		service.readyState = "Failed to retrieve configuration"
		return service
	}

	if cfg.LLMProvider == "" || (cfg.LLMConfig != nil && cfg.LLMConfig["api_key"] == "") {
		service.readyState = "API key not configured"
		return service
	}

	provider, err := llm.GetProvider(cfg.LLMProvider, cfg.LLMConfig)
	if err != nil {
		// 返回未就绪服务而不是错误
		service.readyState = fmt.Sprintf("Initialization failed: %v", err)
		return service
	}

	service.provider = provider
	service.providerName = cfg.LLMProvider
	service.isReady = true
	service.readyState = "Ready"

	return service
}

// NewEmptyLLMService 创建一个空的LLM服务实例作为后备方案
func NewEmptyLLMService() *LLMService {
	service := createBaseLLMService()
	service.providerName = "empty"
	service.readyState = "Standby Service Mode – API key not configured"
	return service
}

func createBaseLLMService() *LLMService {
	return &LLMService{
		readyState: "Uninitialized",
		cache: &llmCache{
			entries:    make(map[string]*llmCacheEntry),
			expiration: 30 * time.Minute,
		},
	}
}

// IsReady 返回服务是否已就绪
func (s *LLMService) IsReady() bool {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.isReady
}

// GetReadyState 返回服务就绪状态描述
func (s *LLMService) GetReadyState() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.readyState
}

// GetProviderName 返回当前提供者名称
func (s *LLMService) GetProviderName() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.providerName
}

// UpdateProvider 切换LLM提供者
func (s *LLMService) UpdateProvider(providerName string, providerConfig map[string]string) error {
	provider, err := llm.GetProvider(providerName, providerConfig)
	if err != nil {
		return err
	}

	s.providerMutex.Lock()
	defer s.providerMutex.Unlock()

	s.provider = provider
	s.providerName = providerName
	s.isReady = true
	s.readyState = "Ready"

	return nil
}

// CompleteText 执行一次文本生成调用，带响应缓存
func (s *LLMService) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.providerMutex.RLock()
	provider := s.provider
	ready := s.isReady
	s.providerMutex.RUnlock()

	if !ready || provider == nil {
		return nil, apperr.NewConfig("OPENAI_API_KEY not configured")
	}

	cacheKey := s.generateCacheKey(req)
	if cached := s.checkCache(cacheKey); cached != nil {
		return cached, nil
	}

	resp, err := provider.CompleteText(ctx, req)
	if err != nil {
		return nil, apperr.NewUpstream("LLM completion failed", err)
	}

	s.addToCache(cacheKey, resp)
	return resp, nil
}

// DefaultModel 返回当前提供者的默认模型
func (s *LLMService) DefaultModel() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()

	if model, ok := providerDefaultModels[s.providerName]; ok {
		return model
	}
	return ""
}

func (s *LLMService) generateCacheKey(req llm.CompletionRequest) string {
	content := fmt.Sprintf("%s|%s|%s|%d", req.Prompt, req.SystemPrompt, req.Model, req.MaxTokens)
	return fmt.Sprintf("%x", md5.Sum([]byte(content)))
}

func (s *LLMService) checkCache(key string) *llm.CompletionResponse {
	s.cache.mutex.RLock()
	defer s.cache.mutex.RUnlock()

	entry, exists := s.cache.entries[key]
	if !exists {
		return nil
	}

	if time.Since(entry.createdAt) > s.cache.expiration {
		return nil
	}

	return entry.response
}

func (s *LLMService) addToCache(key string, response *llm.CompletionResponse) {
	s.cache.mutex.Lock()
	defer s.cache.mutex.Unlock()

	s.cache.entries[key] = &llmCacheEntry{
		response:  response,
		createdAt: time.Now(),
	}
}
