package db

import "time"

// 动作难度
const (
	DifficultyBeginner     = "BEGINNER"
	DifficultyIntermediate = "INTERMEDIATE"
	DifficultyAdvanced     = "ADVANCED"
)

// MuscleGroup 是肌群参考数据
type MuscleGroup struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Exercise 定义了动作目录中的条目
// Instructions 使用 markdown 编写，展示时转换为经过清洗的 HTML
// Popularity 在动作被加入计划或训练时递增
type Exercise struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:200;not null;index" json:"name"`
	Description   string    `json:"description"`
	Instructions  string    `gorm:"type:text" json:"instructions"`
	MuscleGroupID uint      `gorm:"index;not null" json:"muscle_group_id"`
	Difficulty    string    `gorm:"size:20;index" json:"difficulty"`
	ImageURL      string    `json:"image_url"`
	VideoURL      string    `json:"video_url"`
	Popularity    int       `json:"popularity"`
	IsCustom      bool      `json:"is_custom"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
