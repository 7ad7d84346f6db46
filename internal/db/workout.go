package db

import "time"

// 训练状态
const (
	WorkoutNotStarted = "NOT_STARTED"
	WorkoutInProgress = "IN_PROGRESS"
	WorkoutPaused     = "PAUSED"
	WorkoutCompleted  = "COMPLETED"
	WorkoutCancelled  = "CANCELLED"
)

// 训练内动作状态
const (
	ExercisePending    = "PENDING"
	ExerciseInProgress = "IN_PROGRESS"
	ExerciseCompleted  = "COMPLETED"
	ExerciseSkipped    = "SKIPPED"
)

// Workout 记录一次实际执行的训练
// TotalDuration 单位为秒
type Workout struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"index;not null" json:"user_id"`
	RoutineID     *uint      `json:"routine_id,omitempty"`
	Name          string     `gorm:"size:200;not null" json:"name"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	TotalDuration int64      `json:"total_duration"`
	Status        string     `gorm:"size:20;index;not null" json:"status"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsActive 表示训练处于进行中或暂停状态。
func (w Workout) IsActive() bool {
	return w.Status == WorkoutInProgress || w.Status == WorkoutPaused
}

// IsTerminal 表示训练已结束，不再接受状态变更。
func (w Workout) IsTerminal() bool {
	return w.Status == WorkoutCompleted || w.Status == WorkoutCancelled
}

// WorkoutExercise 是训练中的一个动作实例
// WorkoutID + Order 采用唯一索引，保证同一训练内顺序不重复
type WorkoutExercise struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	WorkoutID     uint       `gorm:"index;uniqueIndex:idx_workout_exercise_order" json:"workout_id"`
	ExerciseID    uint       `gorm:"index;not null" json:"exercise_id"`
	Order         int        `gorm:"column:sort_order;uniqueIndex:idx_workout_exercise_order" json:"order"`
	PlannedSets   int        `json:"planned_sets"`
	CompletedSets int        `json:"completed_sets"`
	Status        string     `gorm:"size:20;not null" json:"status"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsDone 表示动作已完成或已跳过。
func (we WorkoutExercise) IsDone() bool {
	return we.Status == ExerciseCompleted || we.Status == ExerciseSkipped
}

// ExerciseSet 记录一组的实际表现
// Difficulty 为 0 表示未评分，否则取值 1-10
type ExerciseSet struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	WorkoutExerciseID uint      `gorm:"index;not null" json:"workout_exercise_id"`
	SetNumber         int       `gorm:"not null" json:"set_number"`
	Reps              int       `json:"reps"`
	Weight            *float64  `json:"weight,omitempty"`
	RestTime          *int      `json:"rest_time,omitempty"`
	IsCompleted       bool      `json:"is_completed"`
	Difficulty        int       `json:"difficulty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
