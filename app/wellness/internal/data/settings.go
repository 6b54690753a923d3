package data

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/stress_detector/app/wellness/internal/domain"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/repo"
)

func errSettingsNotFound() error {
	return errors.NotFound("SETTINGS_NOT_FOUND", "settings not found")
}

// NewSettingsRepo 有直连数据库时使用 Postgres，否则使用 Supabase
func NewSettingsRepo(data *Data, logger log.Logger) repo.SettingsRepo {
	helper := log.NewHelper(logger)
	if data.db != nil {
		return &settingsRepo{data: data, log: helper}
	}
	return &supabaseSettingsRepo{data: data, log: helper}
}

type settingsRepo struct {
	data *Data
	log  *log.Helper
}

func (r *settingsRepo) GetSettings(ctx context.Context, userID string) (*domain.Settings, error) {
	s := &domain.Settings{}
	var reminder sql.NullString
	err := r.data.db.QueryRowContext(ctx,
		`SELECT user_id, language, notifications_enabled, reminder_time, updated_at
		 FROM user_settings WHERE user_id = $1`, userID,
	).Scan(&s.UserID, &s.Language, &s.NotificationsEnabled, &reminder, &s.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errSettingsNotFound()
	}
	if err != nil {
		return nil, err
	}
	if reminder.Valid {
		s.ReminderTime = &reminder.String
	}
	return s, nil
}

func (r *settingsRepo) UpsertSettings(ctx context.Context, s *domain.Settings) error {
	var reminder sql.NullString
	if s.ReminderTime != nil {
		reminder = sql.NullString{String: *s.ReminderTime, Valid: true}
	}
	_, err := r.data.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, language, notifications_enabled, reminder_time, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
			language = EXCLUDED.language,
			notifications_enabled = EXCLUDED.notifications_enabled,
			reminder_time = EXCLUDED.reminder_time,
			updated_at = EXCLUDED.updated_at`,
		s.UserID, s.Language, s.NotificationsEnabled, reminder, s.UpdatedAt,
	)
	return err
}

type supabaseSettingsRepo struct {
	data *Data
	log  *log.Helper
}

func (r *supabaseSettingsRepo) GetSettings(ctx context.Context, userID string) (*domain.Settings, error) {
	var rows []*domain.Settings
	_, err := r.data.supabase.From(settingsTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errSettingsNotFound()
	}
	return rows[0], nil
}

func (r *supabaseSettingsRepo) UpsertSettings(ctx context.Context, s *domain.Settings) error {
	_, _, err := r.data.supabase.From(settingsTable).
		Upsert(s, "user_id", "minimal", "").
		Execute()
	return err
}
