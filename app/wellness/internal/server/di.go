package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/analyzer"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/auth"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/data"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/service"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/usecase"
)

// ProviderSet 是健康服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,
	NewRegistry,
	NewMetrics,
	NewAnalyzer,
	wire.Bind(new(usecase.StressAnalyzer), new(*analyzer.Analyzer)),
	wire.Bind(new(usecase.AnalysisObserver), new(*Metrics)),

	// Data providers
	data.NewData,
	data.NewEntryRepo,
	data.NewSettingsRepo,

	// Auth providers
	auth.NewVerifier,

	// UseCase providers
	usecase.NewAnalysisUseCase,
	usecase.NewEntryUseCase,
	usecase.NewSettingsUseCase,

	// Service providers
	service.NewWellnessService,
)
