package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/config"
	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/gateway"
)

// mockChatModel 模拟上游聊天模型
type mockChatModel struct {
	reply string
	err   error

	calls       int
	messages    []*schema.Message
	temperature *float32
}

func (m *mockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.calls++
	m.messages = input
	m.temperature = model.GetCommonOptions(nil, opts...).Temperature
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *mockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func newTestAnalyzer(cm model.BaseChatModel) (*Analyzer, *logtest.Hook) {
	l, hook := logtest.NewNullLogger()
	return New(cm, nil).WithLogger(l), hook
}

func TestAnalyze_EmbeddedJSON(t *testing.T) {
	cm := &mockChatModel{reply: `Sure! {"stressScore": 72, "stressFactors": ["exams"], "wellnessTips": ["Plan study blocks", "Sleep 8 hours"]}`}
	a, _ := newTestAnalyzer(cm)

	got, err := a.Analyze(context.Background(), "I have three exams next week")
	require.NoError(t, err)

	assert.Equal(t, Result{
		StressScore:   72,
		StressFactors: []string{"exams"},
		WellnessTips:  []string{"Plan study blocks", "Sleep 8 hours"},
	}, got.Result)
	assert.Equal(t, SourceEmbedded, got.Source)
	assert.False(t, got.Repaired)

	require.Equal(t, 1, cm.calls)
	require.Len(t, cm.messages, 2)
	assert.Equal(t, schema.System, cm.messages[0].Role)
	assert.Equal(t, SystemPrompt, cm.messages[0].Content)
	assert.Equal(t, schema.User, cm.messages[1].Role)
	assert.Equal(t, "I have three exams next week", cm.messages[1].Content)
	require.NotNil(t, cm.temperature)
	assert.InDelta(t, 0.7, *cm.temperature, 1e-6)
}

func TestAnalyze_EmptyInputMakesNoCall(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		cm := &mockChatModel{reply: "{}"}
		a, _ := newTestAnalyzer(cm)

		_, err := a.Analyze(context.Background(), text)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, 0, cm.calls)
	}
}

func TestAnalyze_MissingModelIsConfigurationError(t *testing.T) {
	a, _ := newTestAnalyzer(nil)

	_, err := a.Analyze(context.Background(), "stressed")
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = a.Analyze(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidInput, "input is validated before configuration")
}

func TestAnalyze_ProseOnlyFallsBack(t *testing.T) {
	a, hook := newTestAnalyzer(&mockChatModel{reply: "I'm sorry you're feeling this way. Try to rest."})

	got, err := a.Analyze(context.Background(), "tired")
	require.NoError(t, err)
	assert.Equal(t, Fallback(), got.Result)
	assert.Equal(t, SourceFallback, got.Source)
	assert.Equal(t, 50, got.Result.StressScore)

	var parseErrors int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && strings.HasPrefix(e.Message, "Failed to parse AI response") {
			parseErrors++
		}
	}
	assert.Equal(t, 1, parseErrors)
}

func TestAnalyze_UpstreamStatusClasses(t *testing.T) {
	cases := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"rate limited", 429, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrRateLimited) }},
		{"quota", 402, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrServiceUnavailable) }},
		{"server error", 503, func(t *testing.T, err error) {
			var ue *UpstreamError
			require.True(t, errors.As(err, &ue))
			assert.Equal(t, 503, ue.Status)
			assert.Equal(t, "AI gateway error: 503", ue.Error())
		}},
		{"unauthorized", 401, func(t *testing.T, err error) {
			var ue *UpstreamError
			require.True(t, errors.As(err, &ue))
			assert.Equal(t, 401, ue.Status)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cm := &mockChatModel{err: &gateway.StatusError{Code: tc.status, Body: "nope"}}
			a, _ := newTestAnalyzer(cm)

			got, err := a.Analyze(context.Background(), "help")
			require.Error(t, err)
			assert.Nil(t, got, "no fallback result is synthesized for upstream failures")
			assert.Equal(t, 1, cm.calls)
			tc.check(t, err)
		})
	}
}

func TestAnalyze_TransportFailure(t *testing.T) {
	a, _ := newTestAnalyzer(&mockChatModel{err: errors.New("dial tcp: connection refused")})

	_, err := a.Analyze(context.Background(), "help")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
	var ue *UpstreamError
	assert.False(t, errors.As(err, &ue))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAnalyze_NoChoicesIsNotRateLimited(t *testing.T) {
	a, _ := newTestAnalyzer(&mockChatModel{err: gateway.ErrNoChoices})

	_, err := a.Analyze(context.Background(), "help")
	require.ErrorIs(t, err, gateway.ErrNoChoices)
	assert.NotErrorIs(t, err, ErrRateLimited)
	var ue *UpstreamError
	assert.False(t, errors.As(err, &ue))
}

func TestAnalyze_LogsTruncatedInput(t *testing.T) {
	a, hook := newTestAnalyzer(&mockChatModel{reply: `{"stressScore": 10, "stressFactors": [], "wellnessTips": []}`})

	long := strings.Repeat("a", 150)
	_, err := a.Analyze(context.Background(), long)
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.NotEmpty(t, entries)
	assert.Equal(t, "Calling AI gateway with text: "+strings.Repeat("a", 100), entries[0].Message)
}

func TestAnalyze_RespectsCancelledLimiterWait(t *testing.T) {
	cm := &mockChatModel{reply: "{}"}
	a := New(cm, NewLimiter(config.ConcurrencyConfig{RPM: 1, QPS: 1}))
	l, _ := logtest.NewNullLogger()
	a.WithLogger(l)

	// 第一次调用消耗唯一的令牌
	_, err := a.Analyze(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Analyze(ctx, "second")
	require.Error(t, err)
	assert.Equal(t, 1, cm.calls)
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(config.ConcurrencyConfig{}))

	l := NewLimiter(config.ConcurrencyConfig{RPM: 120})
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Burst())
	assert.InDelta(t, 2.0, float64(l.Limit()), 1e-9)
}

func TestNewFromConfig_WithoutKey(t *testing.T) {
	a, err := NewFromConfig(context.Background(), &config.Config{})
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrConfiguration)
}
