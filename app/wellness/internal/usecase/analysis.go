package usecase

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/analyzer"
)

// StressAnalyzer 压力分析接口，由 analyzer.Analyzer 实现
type StressAnalyzer interface {
	Analyze(ctx context.Context, text string) (*analyzer.Analysis, error)
}

// AnalysisObserver 记录每次分析的结果类别与耗时
type AnalysisObserver interface {
	ObserveAnalysis(outcome string, elapsed time.Duration)
}

// 分析结果类别
const (
	OutcomeOK                 = "ok"
	OutcomeRepaired           = "repaired"
	OutcomeFallback           = "fallback"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeConfigurationError = "configuration_error"
	OutcomeRateLimited        = "rate_limited"
	OutcomeServiceUnavailable = "service_unavailable"
	OutcomeUpstreamError      = "upstream_error"
	OutcomeError              = "error"
)

// AnalysisUseCase 压力分析业务逻辑
type AnalysisUseCase struct {
	analyzer StressAnalyzer
	observer AnalysisObserver
	log      *log.Helper
}

// NewAnalysisUseCase 创建压力分析业务逻辑实例
func NewAnalysisUseCase(a StressAnalyzer, observer AnalysisObserver, logger log.Logger) *AnalysisUseCase {
	return &AnalysisUseCase{analyzer: a, observer: observer, log: log.NewHelper(logger)}
}

// Analyze 执行一次分析，错误已转换为带 HTTP 状态码的 kratos 错误
func (uc *AnalysisUseCase) Analyze(ctx context.Context, text string) (*analyzer.Result, error) {
	start := time.Now()
	a, err := uc.analyzer.Analyze(ctx, text)
	if uc.observer != nil {
		uc.observer.ObserveAnalysis(Outcome(a, err), time.Since(start))
	}
	if err != nil {
		return nil, analysisError(err)
	}
	if a.Source == analyzer.SourceFallback {
		uc.log.WithContext(ctx).Warn("analysis fell back to the default result")
	}
	return &a.Result, nil
}

// Outcome 将分析结果归类，用于指标
func Outcome(a *analyzer.Analysis, err error) string {
	var ue *analyzer.UpstreamError
	switch {
	case err == nil && a.Source == analyzer.SourceFallback:
		return OutcomeFallback
	case err == nil && a.Repaired:
		return OutcomeRepaired
	case err == nil:
		return OutcomeOK
	case stderrors.Is(err, analyzer.ErrInvalidInput):
		return OutcomeInvalidInput
	case stderrors.Is(err, analyzer.ErrConfiguration):
		return OutcomeConfigurationError
	case stderrors.Is(err, analyzer.ErrRateLimited):
		return OutcomeRateLimited
	case stderrors.Is(err, analyzer.ErrServiceUnavailable):
		return OutcomeServiceUnavailable
	case stderrors.As(err, &ue):
		return OutcomeUpstreamError
	default:
		return OutcomeError
	}
}

func analysisError(err error) error {
	var ue *analyzer.UpstreamError
	switch {
	case stderrors.Is(err, analyzer.ErrInvalidInput):
		return errors.BadRequest("INVALID_INPUT", analyzer.ErrInvalidInput.Error())
	case stderrors.Is(err, analyzer.ErrConfiguration):
		return errors.InternalServer("CONFIGURATION_ERROR", analyzer.ErrConfiguration.Error()).WithCause(err)
	case stderrors.Is(err, analyzer.ErrRateLimited):
		return errors.New(http.StatusTooManyRequests, "RATE_LIMITED", analyzer.ErrRateLimited.Error()).WithCause(err)
	case stderrors.Is(err, analyzer.ErrServiceUnavailable):
		return errors.New(http.StatusPaymentRequired, "SERVICE_UNAVAILABLE", analyzer.ErrServiceUnavailable.Error()).WithCause(err)
	case stderrors.As(err, &ue):
		return errors.InternalServer("UPSTREAM_ERROR", ue.Error()).WithCause(err)
	default:
		return errors.InternalServer("ANALYSIS_FAILED", err.Error()).WithCause(err)
	}
}
