package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gymtrack/internal/db"
	"gorm.io/gorm"
)

var activeStatuses = []string{db.WorkoutInProgress, db.WorkoutPaused}

// WorkoutRepository 是 workouts 表的存储网关
type WorkoutRepository struct {
	db *gorm.DB
}

// Insert 写入训练
func (r *WorkoutRepository) Insert(ctx context.Context, workout *db.Workout) (uint, error) {
	if err := insertRecord(ctx, r.db, "insert workout", workout); err != nil {
		return 0, err
	}
	return workout.ID, nil
}

// Update 覆盖训练全部字段
func (r *WorkoutRepository) Update(ctx context.Context, workout *db.Workout) error {
	return updateRecord(ctx, r.db, "update workout", workout)
}

// Delete 删除训练
func (r *WorkoutRepository) Delete(ctx context.Context, id uint) error {
	return deleteRecord[db.Workout](ctx, r.db, "delete workout", id)
}

// GetByID 根据主键获取训练
func (r *WorkoutRepository) GetByID(ctx context.Context, id uint) (*db.Workout, error) {
	return getRecord[db.Workout](ctx, r.db, "get workout", id)
}

// GetActive 返回用户进行中或暂停的训练；没有时返回 nil, nil
func (r *WorkoutRepository) GetActive(ctx context.Context, userID uint) (*db.Workout, error) {
	var workout db.Workout
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, activeStatuses).
		Order("start_time DESC, id DESC").
		First(&workout).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("get active workout", err)
	}
	return &workout, nil
}

// ListByUser 按创建时间倒序返回用户的训练历史
func (r *WorkoutRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]db.Workout, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var workouts []db.Workout
	if err := query.Find(&workouts).Error; err != nil {
		return nil, translate("list workouts", err)
	}
	return workouts, nil
}

// ListByStatus 返回用户指定状态的训练
func (r *WorkoutRepository) ListByStatus(ctx context.Context, userID uint, status string) ([]db.Workout, error) {
	var workouts []db.Workout
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, status).
		Order("created_at DESC, id DESC").
		Find(&workouts).Error; err != nil {
		return nil, translate("list workouts by status", err)
	}
	return workouts, nil
}

// ListBetween 返回开始时间落在 [from, to] 内的训练
func (r *WorkoutRepository) ListBetween(ctx context.Context, userID uint, from, to time.Time) ([]db.Workout, error) {
	var workouts []db.Workout
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("start_time BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Order("start_time ASC, id ASC").
		Find(&workouts).Error; err != nil {
		return nil, translate("list workouts between", err)
	}
	return workouts, nil
}

// ListStale 返回在 cutoff 之前开始且仍处于活跃状态的训练（所有用户）
func (r *WorkoutRepository) ListStale(ctx context.Context, cutoff time.Time) ([]db.Workout, error) {
	var workouts []db.Workout
	if err := r.db.WithContext(ctx).
		Where("status IN ?", activeStatuses).
		Where("start_time < ?", cutoff.UTC()).
		Order("start_time ASC, id ASC").
		Find(&workouts).Error; err != nil {
		return nil, translate("list stale workouts", err)
	}
	return workouts, nil
}

// WorkoutExerciseRepository 是 workout_exercises 表的存储网关
type WorkoutExerciseRepository struct {
	db *gorm.DB
}

// Insert 写入训练动作；同一训练内顺序重复时返回冲突
func (r *WorkoutExerciseRepository) Insert(ctx context.Context, item *db.WorkoutExercise) (uint, error) {
	if err := insertRecord(ctx, r.db, "insert workout exercise", item); err != nil {
		return 0, err
	}
	return item.ID, nil
}

// Update 覆盖训练动作字段
func (r *WorkoutExerciseRepository) Update(ctx context.Context, item *db.WorkoutExercise) error {
	return updateRecord(ctx, r.db, "update workout exercise", item)
}

// Delete 删除训练动作
func (r *WorkoutExerciseRepository) Delete(ctx context.Context, id uint) error {
	return deleteRecord[db.WorkoutExercise](ctx, r.db, "delete workout exercise", id)
}

// GetByID 根据主键获取训练动作
func (r *WorkoutExerciseRepository) GetByID(ctx context.Context, id uint) (*db.WorkoutExercise, error) {
	return getRecord[db.WorkoutExercise](ctx, r.db, "get workout exercise", id)
}

// ListByWorkout 按顺序返回训练内的动作
func (r *WorkoutExerciseRepository) ListByWorkout(ctx context.Context, workoutID uint) ([]db.WorkoutExercise, error) {
	var items []db.WorkoutExercise
	if err := r.db.WithContext(ctx).
		Where("workout_id = ?", workoutID).
		Order("sort_order ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, translate("list workout exercises", err)
	}
	return items, nil
}

// DeleteByWorkout 删除训练下的全部动作
func (r *WorkoutExerciseRepository) DeleteByWorkout(ctx context.Context, workoutID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("workout_id = ?", workoutID).Delete(&db.WorkoutExercise{})
	if result.Error != nil {
		return 0, translate("delete workout exercises", result.Error)
	}
	return result.RowsAffected, nil
}

// ExerciseSetRepository 是 exercise_sets 表的存储网关
type ExerciseSetRepository struct {
	db *gorm.DB
}

// Insert 写入一组记录
func (r *ExerciseSetRepository) Insert(ctx context.Context, set *db.ExerciseSet) (uint, error) {
	if err := insertRecord(ctx, r.db, "insert exercise set", set); err != nil {
		return 0, err
	}
	return set.ID, nil
}

// Update 覆盖一组记录
func (r *ExerciseSetRepository) Update(ctx context.Context, set *db.ExerciseSet) error {
	return updateRecord(ctx, r.db, "update exercise set", set)
}

// Delete 删除一组记录
func (r *ExerciseSetRepository) Delete(ctx context.Context, id uint) error {
	return deleteRecord[db.ExerciseSet](ctx, r.db, "delete exercise set", id)
}

// GetByID 根据主键获取一组记录
func (r *ExerciseSetRepository) GetByID(ctx context.Context, id uint) (*db.ExerciseSet, error) {
	return getRecord[db.ExerciseSet](ctx, r.db, "get exercise set", id)
}

// ListByWorkoutExercise 按组号返回训练动作下的全部组
func (r *ExerciseSetRepository) ListByWorkoutExercise(ctx context.Context, workoutExerciseID uint) ([]db.ExerciseSet, error) {
	var sets []db.ExerciseSet
	if err := r.db.WithContext(ctx).
		Where("workout_exercise_id = ?", workoutExerciseID).
		Order("set_number ASC, id ASC").
		Find(&sets).Error; err != nil {
		return nil, translate("list exercise sets", err)
	}
	return sets, nil
}

// ListByWorkoutExercises 批量返回多个训练动作下的组
func (r *ExerciseSetRepository) ListByWorkoutExercises(ctx context.Context, workoutExerciseIDs []uint) ([]db.ExerciseSet, error) {
	if len(workoutExerciseIDs) == 0 {
		return nil, nil
	}
	var sets []db.ExerciseSet
	if err := r.db.WithContext(ctx).
		Where("workout_exercise_id IN ?", workoutExerciseIDs).
		Order("workout_exercise_id ASC, set_number ASC").
		Find(&sets).Error; err != nil {
		return nil, translate("list exercise sets", err)
	}
	return sets, nil
}

// DeleteByWorkoutExercise 删除训练动作下的全部组，返回删除数量
func (r *ExerciseSetRepository) DeleteByWorkoutExercise(ctx context.Context, workoutExerciseID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("workout_exercise_id = ?", workoutExerciseID).Delete(&db.ExerciseSet{})
	if result.Error != nil {
		return 0, translate("delete exercise sets", result.Error)
	}
	return result.RowsAffected, nil
}
