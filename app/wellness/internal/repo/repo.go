package repo

import (
	"context"

	"github.com/iWorld-y/stress_detector/app/wellness/internal/domain"
)

// EntryRepo 压力记录仓库接口
type EntryRepo interface {
	// SaveEntry 保存一条压力记录
	SaveEntry(ctx context.Context, e *domain.StressEntry) error
	// ListEntries 按创建时间倒序获取用户记录，limit <= 0 表示不限制
	ListEntries(ctx context.Context, userID string, limit int) ([]*domain.StressEntry, error)
	// DeleteEntries 删除用户的全部记录，返回删除条数
	DeleteEntries(ctx context.Context, userID string) (int, error)
}

// SettingsRepo 用户设置仓库接口
type SettingsRepo interface {
	// GetSettings 获取用户设置，不存在时返回 NotFound
	GetSettings(ctx context.Context, userID string) (*domain.Settings, error)
	// UpsertSettings 按用户插入或更新设置
	UpsertSettings(ctx context.Context, s *domain.Settings) error
}
