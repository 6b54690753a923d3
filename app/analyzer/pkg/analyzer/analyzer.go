package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/config"
	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/gateway"
	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/logger"
)

// Temperature 上游调用固定使用的采样温度
const Temperature float32 = 0.7

const logTextLimit = 100

// SystemPrompt 描述输出结构与角色设定的固定指令
const SystemPrompt = `You are an empathetic AI mental wellness assistant for students. Analyze the student's input and provide:
1. A stress score from 0-100 (0 = no stress, 100 = extreme stress)
2. Main stress factors identified in their message
3. 2-3 personalized, actionable wellness tips

Be supportive, kind, and specific. Focus on practical advice that students can implement.

Return your response as JSON with this exact structure:
{
  "stressScore": number (0-100),
  "stressFactors": ["factor1", "factor2", ...],
  "wellnessTips": ["tip1", "tip2", "tip3"]
}`

var (
	// ErrInvalidInput 输入为空或只包含空白
	ErrInvalidInput = errors.New("Please enter how you are feeling today")
	// ErrConfiguration 未配置上游密钥
	ErrConfiguration = errors.New("AI gateway API key is not configured")
	// ErrRateLimited 上游限流
	ErrRateLimited = errors.New("Rate limit exceeded. Please try again in a moment.")
	// ErrServiceUnavailable 上游额度或付费问题
	ErrServiceUnavailable = errors.New("AI service unavailable. Please contact support.")
)

// UpstreamError 上游返回了其他非成功状态码
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("AI gateway error: %d", e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Analyzer 压力分析代理：校验输入、调用上游模型、解析并修复回复
type Analyzer struct {
	chatModel model.BaseChatModel
	limiter   *rate.Limiter
	log       *logrus.Logger
}

// New 创建分析器；chatModel 为 nil 表示未配置上游，请求会以 ErrConfiguration 失败
func New(chatModel model.BaseChatModel, limiter *rate.Limiter) *Analyzer {
	return &Analyzer{chatModel: chatModel, limiter: limiter}
}

// NewFromConfig 根据配置创建上游模型与限流器
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Analyzer, error) {
	cm, err := gateway.NewChatModel(ctx, cfg.LLM)
	if err != nil {
		if !errors.Is(err, gateway.ErrMissingAPIKey) {
			return nil, err
		}
		logger.Log.Warn("未配置 AI 网关密钥，分析请求将返回配置错误")
		cm = nil
	}
	return New(cm, NewLimiter(cfg.Concurrency)), nil
}

// NewLimiter RPM 为 0 时返回 nil，表示不限流
func NewLimiter(c config.ConcurrencyConfig) *rate.Limiter {
	if c.RPM <= 0 {
		return nil
	}
	burst := c.QPS
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(c.RPM)/60.0), burst)
}

// WithLogger 替换日志实例，未设置时使用 logger.Log
func (a *Analyzer) WithLogger(l *logrus.Logger) *Analyzer {
	a.log = l
	return a
}

func (a *Analyzer) logger() *logrus.Logger {
	if a.log != nil {
		return a.log
	}
	return logger.Log
}

// Analyze 对一段文本执行一次压力分析，每次调用最多产生一次上游请求
func (a *Analyzer) Analyze(ctx context.Context, text string) (*Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput
	}
	if a.chatModel == nil {
		return nil, ErrConfiguration
	}
	log := a.logger()

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	log.Infof("Calling AI gateway with text: %s", truncate(text, logTextLimit))

	messages := []*schema.Message{
		schema.SystemMessage(SystemPrompt),
		schema.UserMessage(text),
	}
	resp, err := a.chatModel.Generate(ctx, messages, model.WithTemperature(Temperature))
	if err != nil {
		return nil, a.classify(log, err)
	}

	log.Infof("AI response received: %s", rawPayload(resp))

	analysis := parseReply(log, resp.Content)
	return &analysis, nil
}

func (a *Analyzer) classify(log *logrus.Logger, err error) error {
	code, ok := gateway.StatusCode(err)
	if !ok {
		log.WithError(err).Error("AI gateway call failed")
		return fmt.Errorf("call AI gateway: %w", err)
	}

	log.WithError(err).Errorf("AI gateway error: %d", code)
	switch code {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w (%v)", ErrRateLimited, err)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w (%v)", ErrServiceUnavailable, err)
	default:
		return &UpstreamError{Status: code, Err: err}
	}
}

func rawPayload(msg *schema.Message) string {
	if raw, ok := msg.Extra[gateway.ExtraRawPayload].(string); ok {
		return raw
	}
	return msg.Content
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
