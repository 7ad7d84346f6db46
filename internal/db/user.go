package db

import "time"

// User 定义了用户模型
// PasswordHash 仅存储 bcrypt 哈希，从不保存明文
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	FirstName    string     `gorm:"size:100;not null" json:"first_name"`
	LastName     string     `gorm:"size:100" json:"last_name"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Gender       string     `gorm:"size:20" json:"gender"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// 重量单位
const (
	WeightUnitKilogram = "kg"
	WeightUnitPound    = "lb"
)

// DefaultRestTimeSeconds 为未配置偏好时的组间休息时长。
const DefaultRestTimeSeconds = 90

// UserPreferences 与 User 一一对应，保存训练相关的偏好设置。
type UserPreferences struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	RestTimeSeconds      int       `json:"rest_time_seconds"`
	WeightUnit           string    `gorm:"size:4;default:kg" json:"weight_unit"`
	ShowVideos           bool      `json:"show_videos"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	DarkTheme            bool      `json:"dark_theme"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName 指定自定义表名，避免自动复数化导致的歧义。
func (UserPreferences) TableName() string {
	return "user_preferences"
}

// DefaultPreferences 返回指定用户的默认偏好。
func DefaultPreferences(userID uint) UserPreferences {
	return UserPreferences{
		UserID:               userID,
		RestTimeSeconds:      DefaultRestTimeSeconds,
		WeightUnit:           WeightUnitKilogram,
		ShowVideos:           true,
		NotificationsEnabled: true,
	}
}
