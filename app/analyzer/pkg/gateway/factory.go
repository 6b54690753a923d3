package gateway

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/config"
)

// ErrMissingAPIKey 未配置调用上游模型所需的密钥
var ErrMissingAPIKey = errors.New("AI gateway API key is not configured")

// NewChatModel 根据配置创建聊天模型
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (model.BaseChatModel, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	switch cfg.Provider {
	case "", "gateway":
		return NewClient(cfg), nil

	case "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultBaseURL
		}
		m := cfg.Model
		if m == "" {
			m = DefaultModel
		}
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: baseURL,
			APIKey:  cfg.APIKey,
			Model:   m,
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("LLM 初始化失败: %w", err)
		}
		return cm, nil

	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

var statusPattern = regexp.MustCompile(`status code: (\d{3})`)

// StatusCode 从上游错误中提取 HTTP 状态码
func StatusCode(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	if errors.Is(err, ErrNoChoices) {
		return 0, false
	}
	// eino-ext 的 openai 客户端只在错误文本中携带状态码
	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		if code, convErr := strconv.Atoi(m[1]); convErr == nil {
			return code, true
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "too many requests") {
		return 429, true
	}
	return 0, false
}
