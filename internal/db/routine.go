package db

import "time"

// Routine 是用户编写的训练计划模板
type Routine struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"index;not null" json:"user_id"`
	Name              string    `gorm:"size:200;not null" json:"name"`
	Description       string    `json:"description"`
	EstimatedDuration int       `gorm:"not null" json:"estimated_duration"`
	Difficulty        string    `gorm:"size:20;index" json:"difficulty"`
	TargetMuscles     string    `json:"target_muscles"`
	IsActive          bool      `json:"is_active"`
	TimesCompleted    int       `json:"times_completed"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// RoutineExercise 固定动作在计划中的顺序
// Order 不设唯一索引：重排期间允许短暂重复
type RoutineExercise struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RoutineID  uint      `gorm:"index;not null" json:"routine_id"`
	ExerciseID uint      `gorm:"index;not null" json:"exercise_id"`
	Order      int       `gorm:"column:sort_order;not null" json:"order"`
	Sets       int       `gorm:"not null" json:"sets"`
	Reps       string    `json:"reps"`
	Weight     *float64  `json:"weight,omitempty"`
	RestTime   int       `json:"rest_time"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
