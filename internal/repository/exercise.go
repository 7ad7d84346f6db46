package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/gymtrack/internal/db"
	"gorm.io/gorm"
)

// MuscleGroupRepository 是 muscle_groups 表的存储网关
type MuscleGroupRepository struct {
	db *gorm.DB
}

// Insert 写入肌群
func (r *MuscleGroupRepository) Insert(ctx context.Context, group *db.MuscleGroup) (uint, error) {
	if err := insertRecord(ctx, r.db, "insert muscle group", group); err != nil {
		return 0, err
	}
	return group.ID, nil
}

// Update 覆盖肌群字段
func (r *MuscleGroupRepository) Update(ctx context.Context, group *db.MuscleGroup) error {
	return updateRecord(ctx, r.db, "update muscle group", group)
}

// Delete 删除肌群
func (r *MuscleGroupRepository) Delete(ctx context.Context, id uint) error {
	return deleteRecord[db.MuscleGroup](ctx, r.db, "delete muscle group", id)
}

// GetByID 根据主键获取肌群
func (r *MuscleGroupRepository) GetByID(ctx context.Context, id uint) (*db.MuscleGroup, error) {
	return getRecord[db.MuscleGroup](ctx, r.db, "get muscle group", id)
}

// GetByName 按名称获取肌群
func (r *MuscleGroupRepository) GetByName(ctx context.Context, name string) (*db.MuscleGroup, error) {
	var group db.MuscleGroup
	if err := r.db.WithContext(ctx).Where("name = ?", strings.TrimSpace(name)).First(&group).Error; err != nil {
		return nil, translate("get muscle group by name", err)
	}
	return &group, nil
}

// List 按名称升序返回全部肌群
func (r *MuscleGroupRepository) List(ctx context.Context) ([]db.MuscleGroup, error) {
	var groups []db.MuscleGroup
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&groups).Error; err != nil {
		return nil, translate("list muscle groups", err)
	}
	return groups, nil
}

// ExerciseFilter 描述动作目录的筛选条件
// MuscleGroupIDs 为空表示不按肌群过滤
type ExerciseFilter struct {
	MuscleGroupIDs []uint
	Difficulty     string
	Search         string
}

// ExerciseRepository 是 exercises 表的存储网关
type ExerciseRepository struct {
	db *gorm.DB
}

// Insert 写入动作
func (r *ExerciseRepository) Insert(ctx context.Context, exercise *db.Exercise) (uint, error) {
	if err := insertRecord(ctx, r.db, "insert exercise", exercise); err != nil {
		return 0, err
	}
	return exercise.ID, nil
}

// Update 覆盖动作字段
func (r *ExerciseRepository) Update(ctx context.Context, exercise *db.Exercise) error {
	return updateRecord(ctx, r.db, "update exercise", exercise)
}

// Delete 删除动作
func (r *ExerciseRepository) Delete(ctx context.Context, id uint) error {
	return deleteRecord[db.Exercise](ctx, r.db, "delete exercise", id)
}

// GetByID 根据主键获取动作
func (r *ExerciseRepository) GetByID(ctx context.Context, id uint) (*db.Exercise, error) {
	return getRecord[db.Exercise](ctx, r.db, "get exercise", id)
}

// GetByIDs 批量获取动作，结果顺序不保证
func (r *ExerciseRepository) GetByIDs(ctx context.Context, ids []uint) ([]db.Exercise, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var exercises []db.Exercise
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&exercises).Error; err != nil {
		return nil, translate("get exercises by ids", err)
	}
	return exercises, nil
}

// List 返回满足筛选条件的动作，按名称升序
func (r *ExerciseRepository) List(ctx context.Context, filter ExerciseFilter) ([]db.Exercise, error) {
	query := r.db.WithContext(ctx).Model(&db.Exercise{})

	if len(filter.MuscleGroupIDs) > 0 {
		query = query.Where("muscle_group_id IN ?", filter.MuscleGroupIDs)
	}
	if difficulty := strings.TrimSpace(filter.Difficulty); difficulty != "" {
		query = query.Where("difficulty = ?", strings.ToUpper(difficulty))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := fmt.Sprintf("%%%s%%", search)
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	var exercises []db.Exercise
	if err := query.Order("name ASC, id ASC").Find(&exercises).Error; err != nil {
		return nil, translate("list exercises", err)
	}
	return exercises, nil
}

// ListByMuscleGroup 返回指定肌群的动作
func (r *ExerciseRepository) ListByMuscleGroup(ctx context.Context, muscleGroupID uint) ([]db.Exercise, error) {
	return r.List(ctx, ExerciseFilter{MuscleGroupIDs: []uint{muscleGroupID}})
}

// MostPopular 返回热度最高的动作
func (r *ExerciseRepository) MostPopular(ctx context.Context, limit int) ([]db.Exercise, error) {
	if limit <= 0 {
		limit = 10
	}
	var exercises []db.Exercise
	if err := r.db.WithContext(ctx).
		Order("popularity DESC, name ASC").
		Limit(limit).
		Find(&exercises).Error; err != nil {
		return nil, translate("list popular exercises", err)
	}
	return exercises, nil
}

// IncrementPopularity 将动作热度加一
func (r *ExerciseRepository) IncrementPopularity(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&db.Exercise{}).
		Where("id = ?", id).
		UpdateColumn("popularity", gorm.Expr("popularity + ?", 1))
	if result.Error != nil {
		return translate("increment exercise popularity", result.Error)
	}
	if result.RowsAffected == 0 {
		return translate("increment exercise popularity", gorm.ErrRecordNotFound)
	}
	return nil
}
