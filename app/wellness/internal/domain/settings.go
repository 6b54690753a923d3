package domain

import "time"

// Settings 用户偏好设置
type Settings struct {
	UserID               string    `json:"user_id"`
	Language             string    `json:"language" validate:"required,oneof=en es fr de"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	ReminderTime         *string   `json:"reminder_time" validate:"omitempty,datetime=15:04"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DefaultSettings 用户尚未保存设置时的默认值
func DefaultSettings(userID string) *Settings {
	return &Settings{
		UserID:               userID,
		Language:             "en",
		NotificationsEnabled: true,
	}
}
