package usecase

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-playground/validator/v10"

	"github.com/iWorld-y/stress_detector/app/wellness/internal/domain"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/repo"
)

// SettingsUseCase 用户设置业务逻辑
type SettingsUseCase struct {
	repo     repo.SettingsRepo
	validate *validator.Validate
	log      *log.Helper
}

// NewSettingsUseCase 创建用户设置业务逻辑实例
func NewSettingsUseCase(repo repo.SettingsRepo, logger log.Logger) *SettingsUseCase {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &SettingsUseCase{repo: repo, validate: v, log: log.NewHelper(logger)}
}

// Get 获取用户设置，未保存过时返回默认值
func (uc *SettingsUseCase) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	s, err := uc.repo.GetSettings(ctx, userID)
	if errors.IsNotFound(err) {
		return domain.DefaultSettings(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Save 校验并保存用户设置
func (uc *SettingsUseCase) Save(ctx context.Context, userID string, s *domain.Settings) (*domain.Settings, error) {
	s.UserID = userID
	if s.ReminderTime != nil && *s.ReminderTime == "" {
		s.ReminderTime = nil
	}
	if err := uc.validate.Struct(s); err != nil {
		return nil, errors.BadRequest("INVALID_SETTINGS", settingsMessage(err))
	}

	s.UpdatedAt = time.Now().UTC()
	if err := uc.repo.UpsertSettings(ctx, s); err != nil {
		uc.log.WithContext(ctx).Errorf("upsert settings for user %s: %v", userID, err)
		return nil, errors.InternalServer("SAVE_SETTINGS_FAILED", "Failed to save settings. Please try again.").WithCause(err)
	}
	return s, nil
}

func settingsMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return "Invalid settings: " + strings.Join(fields, ", ")
}
