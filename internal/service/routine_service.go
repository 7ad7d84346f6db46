package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/repository"
)

// RoutineService 负责训练计划及其动作编排
type RoutineService struct {
	store *repository.Store
}

// RoutineExerciseDetail 是带有动作名称的计划动作
type RoutineExerciseDetail struct {
	db.RoutineExercise
	ExerciseName  string `json:"exercise_name"`
	MuscleGroupID uint   `json:"muscle_group_id"`
}

// NewRoutineService 构造 RoutineService
func NewRoutineService(store *repository.Store) *RoutineService {
	return &RoutineService{store: store}
}

// List 返回用户的训练计划
func (s *RoutineService) List(ctx context.Context, userID uint, onlyActive bool) ([]db.Routine, error) {
	return s.store.Routines.ListByUser(ctx, userID, onlyActive)
}

// ListByDifficulty 返回指定难度的训练计划
func (s *RoutineService) ListByDifficulty(ctx context.Context, userID uint, difficulty string) ([]db.Routine, error) {
	if strings.TrimSpace(difficulty) == "" {
		return nil, apperr.Invalid("difficulty", msgDifficultyRequired)
	}
	return s.store.Routines.ListByDifficulty(ctx, userID, difficulty)
}

// ListByDuration 返回预计时长在 [minMinutes, maxMinutes] 内的训练计划，maxMinutes 为 0 表示不设上限
func (s *RoutineService) ListByDuration(ctx context.Context, userID uint, minMinutes, maxMinutes int) ([]db.Routine, error) {
	if maxMinutes <= 0 {
		maxMinutes = maxRoutineDuration
	}
	if minMinutes < 0 || minMinutes > maxMinutes {
		return nil, apperr.Invalid("duration", msgRoutineDuration)
	}
	return s.store.Routines.ListByDurationRange(ctx, userID, minMinutes, maxMinutes)
}

// Get 返回用户自己的训练计划，他人的计划视为不存在
func (s *RoutineService) Get(ctx context.Context, userID, id uint) (*db.Routine, error) {
	return ownedRoutine(ctx, s.store, userID, id)
}

// Create 校验表单并新建训练计划。校验失败时不会访问存储层。
func (s *RoutineService) Create(ctx context.Context, userID uint, input RoutineInput) (*db.Routine, error) {
	if err := ValidateRoutine(input); err != nil {
		return nil, err
	}

	routine := db.Routine{UserID: userID, IsActive: true}
	applyRoutineInput(&routine, input)
	if _, err := s.store.Routines.Insert(ctx, &routine); err != nil {
		return nil, err
	}
	return &routine, nil
}

// Update 更新训练计划
func (s *RoutineService) Update(ctx context.Context, userID, id uint, input RoutineInput) (*db.Routine, error) {
	if err := ValidateRoutine(input); err != nil {
		return nil, err
	}

	routine, err := ownedRoutine(ctx, s.store, userID, id)
	if err != nil {
		return nil, err
	}
	applyRoutineInput(routine, input)
	if err := s.store.Routines.Update(ctx, routine); err != nil {
		return nil, err
	}
	return routine, nil
}

// SetActive 启用或停用训练计划
func (s *RoutineService) SetActive(ctx context.Context, userID, id uint, active bool) (*db.Routine, error) {
	routine, err := ownedRoutine(ctx, s.store, userID, id)
	if err != nil {
		return nil, err
	}
	routine.IsActive = active
	if err := s.store.Routines.Update(ctx, routine); err != nil {
		return nil, err
	}
	return routine, nil
}

// Delete 删除训练计划及其全部动作
func (s *RoutineService) Delete(ctx context.Context, userID, id uint) error {
	if _, err := ownedRoutine(ctx, s.store, userID, id); err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.RoutineExercises.DeleteByRoutine(ctx, id); err != nil {
			return err
		}
		return tx.Routines.Delete(ctx, id)
	})
}

// Exercises 按顺序返回计划内的动作
func (s *RoutineService) Exercises(ctx context.Context, userID, routineID uint) ([]RoutineExerciseDetail, error) {
	if _, err := ownedRoutine(ctx, s.store, userID, routineID); err != nil {
		return nil, err
	}

	items, err := s.store.RoutineExercises.ListByRoutine(ctx, routineID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ExerciseID)
	}
	exercises, err := s.store.Exercises.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]db.Exercise, len(exercises))
	for _, exercise := range exercises {
		byID[exercise.ID] = exercise
	}

	details := make([]RoutineExerciseDetail, 0, len(items))
	for _, item := range items {
		exercise := byID[item.ExerciseID]
		details = append(details, RoutineExerciseDetail{
			RoutineExercise: item,
			ExerciseName:    exercise.Name,
			MuscleGroupID:   exercise.MuscleGroupID,
		})
	}
	return details, nil
}

// AvailableExercises 返回尚未加入计划的目录动作
func (s *RoutineService) AvailableExercises(ctx context.Context, userID, routineID uint, filter repository.ExerciseFilter) ([]db.Exercise, error) {
	if _, err := ownedRoutine(ctx, s.store, userID, routineID); err != nil {
		return nil, err
	}

	items, err := s.store.RoutineExercises.ListByRoutine(ctx, routineID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.store.Exercises.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	used := make([]uint, 0, len(items))
	for _, item := range items {
		used = append(used, item.ExerciseID)
	}
	return ExcludeExercises(catalog, used), nil
}

// AddExercise 把动作追加到计划末尾，并提升动作热度
func (s *RoutineService) AddExercise(ctx context.Context, userID uint, input RoutineExerciseInput) (*db.RoutineExercise, error) {
	if err := ValidateRoutineExercise(input); err != nil {
		return nil, err
	}
	if _, err := ownedRoutine(ctx, s.store, userID, input.RoutineID); err != nil {
		return nil, err
	}

	item := db.RoutineExercise{RoutineID: input.RoutineID}
	applyRoutineExerciseInput(&item, input)

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Exercises.GetByID(ctx, input.ExerciseID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.Invalid("exercise_id", msgExerciseRequired)
			}
			return err
		}

		maxOrder, err := tx.RoutineExercises.MaxOrder(ctx, input.RoutineID)
		if err != nil {
			return err
		}
		item.Order = maxOrder + 1

		if _, err := tx.RoutineExercises.Insert(ctx, &item); err != nil {
			return err
		}
		return tx.Exercises.IncrementPopularity(ctx, input.ExerciseID)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateExercise 修改计划动作的组数、次数等配置，顺序保持不变
func (s *RoutineService) UpdateExercise(ctx context.Context, userID, id uint, input RoutineExerciseInput) (*db.RoutineExercise, error) {
	item, err := s.store.RoutineExercises.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input.RoutineID = item.RoutineID
	if input.ExerciseID == 0 {
		input.ExerciseID = item.ExerciseID
	}
	if err := ValidateRoutineExercise(input); err != nil {
		return nil, err
	}
	if _, err := ownedRoutine(ctx, s.store, userID, item.RoutineID); err != nil {
		return nil, err
	}

	applyRoutineExerciseInput(item, input)
	if err := s.store.RoutineExercises.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveExercise 从计划中移除动作，并把剩余动作的顺序压缩为 1..n
func (s *RoutineService) RemoveExercise(ctx context.Context, userID, routineID, id uint) error {
	if _, err := ownedRoutine(ctx, s.store, userID, routineID); err != nil {
		return err
	}

	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		item, err := tx.RoutineExercises.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if item.RoutineID != routineID {
			return fmt.Errorf("remove routine exercise: %w", apperr.ErrNotFound)
		}
		if err := tx.RoutineExercises.Delete(ctx, id); err != nil {
			return err
		}

		remaining, err := tx.RoutineExercises.ListByRoutine(ctx, routineID)
		if err != nil {
			return err
		}
		for idx, rest := range remaining {
			if rest.Order == idx+1 {
				continue
			}
			if err := tx.RoutineExercises.UpdateOrder(ctx, rest.ID, idx+1); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reorder 按 orderedIDs 的顺序重排计划动作，orderedIDs 必须恰好覆盖计划内全部动作。
// 所有更新在同一事务内完成。
func (s *RoutineService) Reorder(ctx context.Context, userID, routineID uint, orderedIDs []uint) ([]db.RoutineExercise, error) {
	if _, err := ownedRoutine(ctx, s.store, userID, routineID); err != nil {
		return nil, err
	}

	var result []db.RoutineExercise
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.RoutineExercises.ListByRoutine(ctx, routineID)
		if err != nil {
			return err
		}
		if !samePermutation(current, orderedIDs) {
			return apperr.Invalid("order", "排序列表与计划中的动作不一致")
		}

		for idx, id := range orderedIDs {
			if err := tx.RoutineExercises.UpdateOrder(ctx, id, idx+1); err != nil {
				return err
			}
		}

		result, err = tx.RoutineExercises.ListByRoutine(ctx, routineID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func ownedRoutine(ctx context.Context, store *repository.Store, userID, id uint) (*db.Routine, error) {
	routine, err := store.Routines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if routine.UserID != userID {
		return nil, fmt.Errorf("get routine: %w", apperr.ErrNotFound)
	}
	return routine, nil
}

func samePermutation(current []db.RoutineExercise, orderedIDs []uint) bool {
	if len(current) != len(orderedIDs) {
		return false
	}
	pending := make(map[uint]bool, len(current))
	for _, item := range current {
		pending[item.ID] = true
	}
	for _, id := range orderedIDs {
		if !pending[id] {
			return false
		}
		delete(pending, id)
	}
	return len(pending) == 0
}

// ExcludeExercises 返回目录中不在 usedIDs 内的动作，保持目录顺序
func ExcludeExercises(catalog []db.Exercise, usedIDs []uint) []db.Exercise {
	used := make(map[uint]struct{}, len(usedIDs))
	for _, id := range usedIDs {
		used[id] = struct{}{}
	}

	available := make([]db.Exercise, 0, len(catalog))
	for _, exercise := range catalog {
		if _, ok := used[exercise.ID]; ok {
			continue
		}
		available = append(available, exercise)
	}
	return available
}

func applyRoutineInput(routine *db.Routine, input RoutineInput) {
	routine.Name = strings.TrimSpace(input.Name)
	routine.Description = strings.TrimSpace(input.Description)
	routine.EstimatedDuration = input.EstimatedDuration
	routine.Difficulty = normalizeDifficulty(input.Difficulty)
	routine.TargetMuscles = strings.TrimSpace(input.TargetMuscles)
	if input.IsActive != nil {
		routine.IsActive = *input.IsActive
	}
}

func applyRoutineExerciseInput(item *db.RoutineExercise, input RoutineExerciseInput) {
	item.ExerciseID = input.ExerciseID
	item.Sets = input.Sets
	item.Reps = strings.TrimSpace(input.Reps)
	item.Weight = input.Weight
	item.RestTime = input.RestTime
	item.Notes = strings.TrimSpace(input.Notes)
}
