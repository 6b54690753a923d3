package server

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/analyzer"
	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/config"
	anLogger "github.com/iWorld-y/stress_detector/app/analyzer/pkg/logger"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/conf"
)

// NewAnalyzer 初始化压力分析器
func NewAnalyzer(c *conf.Analyzer, logger log.Logger) (*analyzer.Analyzer, error) {
	cfg := analyzerConfig(c)

	// 初始化日志
	if err := anLogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.NewHelper(logger).Errorf("Failed to init analyzer logger: %v", err)
		_ = anLogger.InitLogger("info", "") // 降级处理
	}

	a, err := analyzer.NewFromConfig(context.Background(), cfg)
	if err != nil {
		log.NewHelper(logger).Errorf("Failed to init analyzer: %v", err)
		return nil, err
	}
	return a, nil
}

// analyzerConfig 将 internal/conf.Analyzer 转换为 pkg/config.Config
func analyzerConfig(c *conf.Analyzer) *config.Config {
	cfg := &config.Config{}
	if c == nil {
		return cfg
	}
	if c.Llm != nil {
		cfg.LLM = config.LLMConfig{
			Provider: c.Llm.Provider,
			BaseURL:  c.Llm.BaseUrl,
			APIKey:   c.Llm.ApiKey,
			Model:    c.Llm.Model,
			Timeout:  int(c.Llm.Timeout),
		}
	}
	if c.Log != nil {
		cfg.Log = config.LogConfig{Level: c.Log.Level, File: c.Log.File}
	}
	if c.Concurrency != nil {
		cfg.Concurrency = config.ConcurrencyConfig{
			QPS: int(c.Concurrency.Qps),
			RPM: int(c.Concurrency.Rpm),
		}
	}
	return cfg
}
