package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/config"
)

const (
	// DefaultBaseURL AI 网关默认地址
	DefaultBaseURL = "https://ai.gateway.lovable.dev/v1"
	// DefaultModel 默认模型
	DefaultModel = "google/gemini-2.5-flash"

	defaultTimeout = 60 * time.Second
)

// ExtraRawPayload 回复消息 Extra 中保存上游原始响应体的键
const ExtraRawPayload = "raw_payload"

// ErrNoChoices 上游 2xx 响应中没有任何候选回复
var ErrNoChoices = errors.New("ai gateway returned no choices")

// StatusError 上游返回非 2xx 状态码
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai gateway error (status %d): %s", e.Code, e.Body)
}

// Client OpenAI 兼容的 chat completions 网关客户端
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// Ensure Client implements model.BaseChatModel
var _ model.BaseChatModel = (*Client)(nil)

// NewClient 创建一个新的网关客户端
func NewClient(cfg config.LLMConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	m := cfg.Model
	if m == "" {
		m = DefaultModel
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   m,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Generate implements model.BaseChatModel
func (c *Client) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{Model: &c.model}, opts...)

	req := chatRequest{
		Model:       c.model,
		Messages:    make([]chatMessage, 0, len(input)),
		Temperature: options.Temperature,
	}
	if options.Model != nil && *options.Model != "" {
		req.Model = *options.Model
	}
	for _, m := range input {
		req.Messages = append(req.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := resp.Choices[0]
	msg := schema.AssistantMessage(choice.Message.Content, nil)
	msg.ResponseMeta = &schema.ResponseMeta{FinishReason: choice.FinishReason}
	msg.Extra = map[string]any{ExtraRawPayload: string(body)}
	return msg, nil
}

// Stream implements model.BaseChatModel，网关不做增量输出，整条回复作为单个分片返回
func (c *Client) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := c.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (c *Client) do(ctx context.Context, req chatRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &StatusError{Code: res.StatusCode, Body: string(body)}
	}
	return body, nil
}
