// Package repository 封装各实体对本地 SQLite 的增删改查与筛选查询，不包含业务逻辑。
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gymtrack/internal/apperr"
	"gorm.io/gorm"
)

// Store 汇总全部实体的存储网关，并提供事务边界
type Store struct {
	db *gorm.DB

	Users            *UserRepository
	Preferences      *PreferencesRepository
	MuscleGroups     *MuscleGroupRepository
	Exercises        *ExerciseRepository
	Routines         *RoutineRepository
	RoutineExercises *RoutineExerciseRepository
	Workouts         *WorkoutRepository
	WorkoutExercises *WorkoutExerciseRepository
	Sets             *ExerciseSetRepository
}

// NewStore 构造 Store
func NewStore(gdb *gorm.DB) *Store {
	return &Store{
		db:               gdb,
		Users:            &UserRepository{db: gdb},
		Preferences:      &PreferencesRepository{db: gdb},
		MuscleGroups:     &MuscleGroupRepository{db: gdb},
		Exercises:        &ExerciseRepository{db: gdb},
		Routines:         &RoutineRepository{db: gdb},
		RoutineExercises: &RoutineExerciseRepository{db: gdb},
		Workouts:         &WorkoutRepository{db: gdb},
		WorkoutExercises: &WorkoutExerciseRepository{db: gdb},
		Sets:             &ExerciseSetRepository{db: gdb},
	}
}

// DB 返回底层的 gorm 实例。
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction 在单个事务内执行 fn，fn 返回错误时整体回滚。
// fn 内只能使用传入的 tx，不能再访问外层 Store。
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
	if err == nil {
		return nil
	}
	if classified(err) {
		return err
	}
	return translate("transaction", err)
}

func classified(err error) bool {
	var verr apperr.ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, apperr.ErrNotFound) ||
		errors.Is(err, apperr.ErrConflict) ||
		errors.Is(err, apperr.ErrIO)
}

// translate 把 gorm / sqlite 错误归类为 apperr 中的类别。
func translate(op string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		strings.Contains(err.Error(), "constraint failed"):
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrConflict, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrIO, err)
	}
}

func insertRecord[T any](ctx context.Context, gdb *gorm.DB, op string, record *T) error {
	return translate(op, gdb.WithContext(ctx).Create(record).Error)
}

// updateRecord 按主键覆盖全部字段（created_at 除外），记录不存在时返回 ErrNotFound。
func updateRecord[T any](ctx context.Context, gdb *gorm.DB, op string, record *T) error {
	result := gdb.WithContext(ctx).Model(record).Select("*").Omit("created_at").Updates(record)
	if result.Error != nil {
		return translate(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}

func deleteRecord[T any](ctx context.Context, gdb *gorm.DB, op string, id uint) error {
	if id == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	result := gdb.WithContext(ctx).Delete(new(T), id)
	if result.Error != nil {
		return translate(op, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}

func getRecord[T any](ctx context.Context, gdb *gorm.DB, op string, id uint) (*T, error) {
	if id == 0 {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	var record T
	if err := gdb.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, translate(op, err)
	}
	return &record, nil
}
