package usecase

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/iWorld-y/stress_detector/app/wellness/internal/domain"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/repo"
)

// EntryUseCase 压力记录业务逻辑
type EntryUseCase struct {
	repo     repo.EntryRepo
	analysis *AnalysisUseCase
	log      *log.Helper
	now      func() time.Time
}

// NewEntryUseCase 创建压力记录业务逻辑实例
func NewEntryUseCase(repo repo.EntryRepo, analysis *AnalysisUseCase, logger log.Logger) *EntryUseCase {
	return &EntryUseCase{
		repo:     repo,
		analysis: analysis,
		log:      log.NewHelper(logger),
		now:      time.Now,
	}
}

// Create 分析文本并保存为用户的一条记录；分析失败时不写入
func (uc *EntryUseCase) Create(ctx context.Context, userID, text string) (*domain.StressEntry, error) {
	res, err := uc.analysis.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}

	e := &domain.StressEntry{
		ID:            uuid.NewString(),
		UserID:        userID,
		Text:          text,
		StressScore:   res.StressScore,
		StressFactors: res.StressFactors,
		WellnessTips:  res.WellnessTips,
		CreatedAt:     uc.now().UTC(),
	}
	if err := uc.repo.SaveEntry(ctx, e); err != nil {
		uc.log.WithContext(ctx).Errorf("save entry for user %s: %v", userID, err)
		return nil, errors.InternalServer("SAVE_ENTRY_FAILED", "Failed to save your analysis").WithCause(err)
	}
	return e, nil
}

// History 最近的记录，按时间倒序，最多 domain.HistoryLimit 条
func (uc *EntryUseCase) History(ctx context.Context, userID string) ([]*domain.StressEntry, error) {
	return uc.repo.ListEntries(ctx, userID, domain.HistoryLimit)
}

// Trend 基于最近记录计算趋势
func (uc *EntryUseCase) Trend(ctx context.Context, userID string) (*domain.Trend, error) {
	entries, err := uc.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.NewTrend(entries), nil
}

// Export 导出用户全部记录
func (uc *EntryUseCase) Export(ctx context.Context, userID string) (*domain.Export, error) {
	entries, err := uc.repo.ListEntries(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.StressEntry{}
	}
	return &domain.Export{StressEntries: entries, ExportedAt: uc.now().UTC()}, nil
}

// DeleteAll 删除用户全部记录
func (uc *EntryUseCase) DeleteAll(ctx context.Context, userID string) (int, error) {
	n, err := uc.repo.DeleteEntries(ctx, userID)
	if err != nil {
		return 0, err
	}
	uc.log.WithContext(ctx).Infof("deleted %d entries for user %s", n, userID)
	return n, nil
}
