package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/stress_detector/app/wellness/internal/auth"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/domain"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/usecase"
)

const (
	OperationAnalyzeStress = "/wellness.v1.Wellness/AnalyzeStress"
	OperationCreateEntry   = "/wellness.v1.Wellness/CreateEntry"
	OperationListEntries   = "/wellness.v1.Wellness/ListEntries"
	OperationEntryTrend    = "/wellness.v1.Wellness/EntryTrend"
	OperationExportEntries = "/wellness.v1.Wellness/ExportEntries"
	OperationDeleteEntries = "/wellness.v1.Wellness/DeleteEntries"
	OperationGetSettings   = "/wellness.v1.Wellness/GetSettings"
	OperationSaveSettings  = "/wellness.v1.Wellness/SaveSettings"
)

// RequiresAuth 除压力分析外的操作都需要登录
func RequiresAuth(ctx context.Context, operation string) bool {
	return operation != OperationAnalyzeStress
}

type AnalyzeRequest struct {
	Text string `json:"text"`
}

type EntryRequest struct {
	Text string `json:"text"`
}

type ListEntriesReply struct {
	Entries []domain.HistoryItem `json:"entries"`
}

type DeleteEntriesReply struct {
	Deleted int `json:"deleted"`
}

type WellnessService struct {
	analysis *usecase.AnalysisUseCase
	entries  *usecase.EntryUseCase
	settings *usecase.SettingsUseCase
	log      *log.Helper
}

func NewWellnessService(analysis *usecase.AnalysisUseCase, entries *usecase.EntryUseCase, settings *usecase.SettingsUseCase, logger log.Logger) *WellnessService {
	return &WellnessService{
		analysis: analysis,
		entries:  entries,
		settings: settings,
		log:      log.NewHelper(logger),
	}
}

// RegisterWellnessHTTPServer 注册全部 HTTP 路由
func RegisterWellnessHTTPServer(srv *http.Server, s *WellnessService) {
	r := srv.Route("/")
	r.POST("/v1/analyze-stress", s.analyzeStress)
	r.POST("/functions/v1/analyze-stress", s.analyzeStress)
	r.POST("/v1/entries", s.createEntry)
	r.GET("/v1/entries", s.listEntries)
	r.GET("/v1/entries/trend", s.entryTrend)
	r.GET("/v1/entries/export", s.exportEntries)
	r.DELETE("/v1/entries", s.deleteEntries)
	r.GET("/v1/settings", s.getSettings)
	r.PUT("/v1/settings", s.saveSettings)
}

func (s *WellnessService) analyzeStress(ctx http.Context) error {
	var in AnalyzeRequest
	if err := bind(ctx, &in); err != nil {
		return err
	}
	return serve(ctx, OperationAnalyzeStress, &in, func(ctx context.Context, req any) (any, error) {
		return s.analysis.Analyze(ctx, req.(*AnalyzeRequest).Text)
	})
}

// createEntry 先认证再解析请求体
func (s *WellnessService) createEntry(ctx http.Context) error {
	return serve(ctx, OperationCreateEntry, nil, withUser(func(c context.Context, userID string, _ any) (any, error) {
		var in EntryRequest
		if err := bind(ctx, &in); err != nil {
			return nil, err
		}
		return s.entries.Create(c, userID, in.Text)
	}))
}

func (s *WellnessService) listEntries(ctx http.Context) error {
	return serve(ctx, OperationListEntries, nil, withUser(func(ctx context.Context, userID string, _ any) (any, error) {
		entries, err := s.entries.History(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &ListEntriesReply{Entries: domain.NewHistory(entries)}, nil
	}))
}

func (s *WellnessService) entryTrend(ctx http.Context) error {
	return serve(ctx, OperationEntryTrend, nil, withUser(func(ctx context.Context, userID string, _ any) (any, error) {
		return s.entries.Trend(ctx, userID)
	}))
}

func (s *WellnessService) exportEntries(ctx http.Context) error {
	return serve(ctx, OperationExportEntries, nil, withUser(func(ctx context.Context, userID string, _ any) (any, error) {
		return s.entries.Export(ctx, userID)
	}))
}

func (s *WellnessService) deleteEntries(ctx http.Context) error {
	return serve(ctx, OperationDeleteEntries, nil, withUser(func(ctx context.Context, userID string, _ any) (any, error) {
		n, err := s.entries.DeleteAll(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &DeleteEntriesReply{Deleted: n}, nil
	}))
}

func (s *WellnessService) getSettings(ctx http.Context) error {
	return serve(ctx, OperationGetSettings, nil, withUser(func(ctx context.Context, userID string, _ any) (any, error) {
		return s.settings.Get(ctx, userID)
	}))
}

func (s *WellnessService) saveSettings(ctx http.Context) error {
	return serve(ctx, OperationSaveSettings, nil, withUser(func(c context.Context, userID string, _ any) (any, error) {
		var in domain.Settings
		if err := bind(ctx, &in); err != nil {
			return nil, err
		}
		return s.settings.Save(c, userID, &in)
	}))
}

// bind 请求体无法解析时按 500 处理
func bind(ctx http.Context, v any) error {
	if err := ctx.Bind(v); err != nil {
		return errors.InternalServer("INVALID_BODY", errors.FromError(err).Message).WithCause(err)
	}
	return nil
}

// serve 设置操作名后经服务端中间件链执行 h
func serve(ctx http.Context, operation string, in any, h middleware.Handler) error {
	http.SetOperation(ctx, operation)
	out, err := ctx.Middleware(h)(ctx, in)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func withUser(fn func(ctx context.Context, userID string, req any) (any, error)) middleware.Handler {
	return func(ctx context.Context, req any) (any, error) {
		userID, ok := auth.FromContext(ctx)
		if !ok {
			return nil, errors.Unauthorized("UNAUTHORIZED", "Missing authorization")
		}
		return fn(ctx, userID, req)
	}
}
