package repository

import (
	"context"
	"strings"

	"github.com/gymtrack/internal/db"
	"gorm.io/gorm"
)

// RoutineRepository 是 routines 表的存储网关
type RoutineRepository struct {
	db *gorm.DB
}

// Insert 写入训练计划
func (r *RoutineRepository) Insert(ctx context.Context, routine *db.Routine) (uint, error) {
	if err := insertRecord(ctx, r.db, "insert routine", routine); err != nil {
		return 0, err
	}
	return routine.ID, nil
}

// Update 覆盖训练计划字段
func (r *RoutineRepository) Update(ctx context.Context, routine *db.Routine) error {
	return updateRecord(ctx, r.db, "update routine", routine)
}

// Delete 删除训练计划
func (r *RoutineRepository) Delete(ctx context.Context, id uint) error {
	return deleteRecord[db.Routine](ctx, r.db, "delete routine", id)
}

// GetByID 根据主键获取训练计划
func (r *RoutineRepository) GetByID(ctx context.Context, id uint) (*db.Routine, error) {
	return getRecord[db.Routine](ctx, r.db, "get routine", id)
}

// ListByUser 返回用户的训练计划，onlyActive 为 true 时过滤停用项
func (r *RoutineRepository) ListByUser(ctx context.Context, userID uint, onlyActive bool) ([]db.Routine, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}

	var routines []db.Routine
	if err := query.Order("updated_at DESC, id DESC").Find(&routines).Error; err != nil {
		return nil, translate("list routines", err)
	}
	return routines, nil
}

// ListByDifficulty 返回用户指定难度的训练计划
func (r *RoutineRepository) ListByDifficulty(ctx context.Context, userID uint, difficulty string) ([]db.Routine, error) {
	var routines []db.Routine
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND difficulty = ?", userID, strings.ToUpper(strings.TrimSpace(difficulty))).
		Order("name ASC").
		Find(&routines).Error; err != nil {
		return nil, translate("list routines by difficulty", err)
	}
	return routines, nil
}

// ListByDurationRange 返回预计时长落在 [min, max] 分钟内的训练计划
func (r *RoutineRepository) ListByDurationRange(ctx context.Context, userID uint, minMinutes, maxMinutes int) ([]db.Routine, error) {
	var routines []db.Routine
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("estimated_duration BETWEEN ? AND ?", minMinutes, maxMinutes).
		Order("estimated_duration ASC, id ASC").
		Find(&routines).Error; err != nil {
		return nil, translate("list routines by duration", err)
	}
	return routines, nil
}

// IncrementTimesCompleted 将计划完成次数加一
func (r *RoutineRepository) IncrementTimesCompleted(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&db.Routine{}).
		Where("id = ?", id).
		UpdateColumn("times_completed", gorm.Expr("times_completed + ?", 1))
	if result.Error != nil {
		return translate("increment routine completion", result.Error)
	}
	if result.RowsAffected == 0 {
		return translate("increment routine completion", gorm.ErrRecordNotFound)
	}
	return nil
}

// RoutineExerciseRepository 是 routine_exercises 表的存储网关
type RoutineExerciseRepository struct {
	db *gorm.DB
}

// Insert 写入计划动作
func (r *RoutineExerciseRepository) Insert(ctx context.Context, item *db.RoutineExercise) (uint, error) {
	if err := insertRecord(ctx, r.db, "insert routine exercise", item); err != nil {
		return 0, err
	}
	return item.ID, nil
}

// Update 覆盖计划动作字段
func (r *RoutineExerciseRepository) Update(ctx context.Context, item *db.RoutineExercise) error {
	return updateRecord(ctx, r.db, "update routine exercise", item)
}

// Delete 删除计划动作
func (r *RoutineExerciseRepository) Delete(ctx context.Context, id uint) error {
	return deleteRecord[db.RoutineExercise](ctx, r.db, "delete routine exercise", id)
}

// GetByID 根据主键获取计划动作
func (r *RoutineExerciseRepository) GetByID(ctx context.Context, id uint) (*db.RoutineExercise, error) {
	return getRecord[db.RoutineExercise](ctx, r.db, "get routine exercise", id)
}

// ListByRoutine 按顺序字段返回计划内的动作，与插入顺序无关
func (r *RoutineExerciseRepository) ListByRoutine(ctx context.Context, routineID uint) ([]db.RoutineExercise, error) {
	var items []db.RoutineExercise
	if err := r.db.WithContext(ctx).
		Where("routine_id = ?", routineID).
		Order("sort_order ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, translate("list routine exercises", err)
	}
	return items, nil
}

// MaxOrder 返回计划内当前最大的顺序值，没有动作时为 0
func (r *RoutineExerciseRepository) MaxOrder(ctx context.Context, routineID uint) (int, error) {
	var maxOrder int
	row := r.db.WithContext(ctx).Model(&db.RoutineExercise{}).
		Where("routine_id = ?", routineID).
		Select("COALESCE(MAX(sort_order), 0)").
		Row()
	if err := row.Scan(&maxOrder); err != nil {
		return 0, translate("max routine exercise order", err)
	}
	return maxOrder, nil
}

// UpdateOrder 仅更新单个条目的顺序值
func (r *RoutineExerciseRepository) UpdateOrder(ctx context.Context, id uint, order int) error {
	result := r.db.WithContext(ctx).Model(&db.RoutineExercise{}).
		Where("id = ?", id).
		Update("sort_order", order)
	if result.Error != nil {
		return translate("update routine exercise order", result.Error)
	}
	if result.RowsAffected == 0 {
		return translate("update routine exercise order", gorm.ErrRecordNotFound)
	}
	return nil
}

// DeleteByRoutine 删除计划下的全部动作，返回删除数量
func (r *RoutineExerciseRepository) DeleteByRoutine(ctx context.Context, routineID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("routine_id = ?", routineID).Delete(&db.RoutineExercise{})
	if result.Error != nil {
		return 0, translate("delete routine exercises", result.Error)
	}
	return result.RowsAffected, nil
}
