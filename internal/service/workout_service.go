package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/repository"
	"go.uber.org/multierr"
)

const defaultHistoryLimit = 50

// ErrActiveWorkoutExists 在用户已有进行中或暂停的训练时返回
var ErrActiveWorkoutExists = apperr.Conflict("已有进行中的训练，请先结束或取消")

// WorkoutService 负责训练记录、训练动作与组记录的增删改查。
// 状态流转由 session.Orchestrator 负责。
type WorkoutService struct {
	store *repository.Store
	now   func() time.Time
}

// WorkoutInput 是手动创建训练的表单
type WorkoutInput struct {
	Name      string `json:"name"`
	RoutineID *uint  `json:"routine_id"`
	Status    string `json:"status"`
	Notes     string `json:"notes"`
}

// WorkoutExerciseInput 描述向训练追加的动作
type WorkoutExerciseInput struct {
	ExerciseID  uint   `json:"exercise_id"`
	PlannedSets int    `json:"planned_sets"`
	Notes       string `json:"notes"`
}

// WorkoutStats 汇总用户的训练统计。TotalVolume = Σ reps × weight（仅统计已完成的组）
type WorkoutStats struct {
	TotalWorkouts        int     `json:"total_workouts"`
	CompletedWorkouts    int     `json:"completed_workouts"`
	CancelledWorkouts    int     `json:"cancelled_workouts"`
	TotalDurationSeconds int64   `json:"total_duration_seconds"`
	TotalSets            int     `json:"total_sets"`
	TotalVolume          float64 `json:"total_volume"`
}

// NewWorkoutService 构造 WorkoutService
func NewWorkoutService(store *repository.Store) *WorkoutService {
	return &WorkoutService{store: store, now: time.Now}
}

// SetClock 替换时间来源，主要用于测试
func (s *WorkoutService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create 新建训练，默认状态为 NOT_STARTED
func (s *WorkoutService) Create(ctx context.Context, userID uint, input WorkoutInput) (*db.Workout, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Invalid("name", "训练名称不能为空")
	}

	status := strings.ToUpper(strings.TrimSpace(input.Status))
	switch status {
	case "":
		status = db.WorkoutNotStarted
	case db.WorkoutNotStarted, db.WorkoutInProgress, db.WorkoutPaused:
	default:
		return nil, apperr.Invalid("status", "训练状态不合法")
	}

	workout := db.Workout{
		UserID:    userID,
		RoutineID: input.RoutineID,
		Name:      name,
		Status:    status,
		Notes:     strings.TrimSpace(input.Notes),
	}
	if workout.IsActive() {
		now := s.now().UTC()
		workout.StartTime = &now
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if workout.IsActive() {
			if err := ensureNoActiveWorkout(ctx, tx, userID); err != nil {
				return err
			}
		}
		_, err := tx.Workouts.Insert(ctx, &workout)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &workout, nil
}

// StartFromRoutine 依据训练计划创建一次进行中的训练，计划内动作按顺序复制为 PENDING 状态。
func (s *WorkoutService) StartFromRoutine(ctx context.Context, userID, routineID uint) (*db.Workout, error) {
	var workout db.Workout

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		routine, err := ownedRoutine(ctx, tx, userID, routineID)
		if err != nil {
			return err
		}
		if err := ensureNoActiveWorkout(ctx, tx, userID); err != nil {
			return err
		}

		items, err := tx.RoutineExercises.ListByRoutine(ctx, routineID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		workout = db.Workout{
			UserID:    userID,
			RoutineID: &routine.ID,
			Name:      routine.Name,
			StartTime: &now,
			Status:    db.WorkoutInProgress,
		}
		if _, err := tx.Workouts.Insert(ctx, &workout); err != nil {
			return err
		}

		for idx, item := range items {
			entry := db.WorkoutExercise{
				WorkoutID:   workout.ID,
				ExerciseID:  item.ExerciseID,
				Order:       idx + 1,
				PlannedSets: item.Sets,
				Status:      db.ExercisePending,
				Notes:       item.Notes,
			}
			if _, err := tx.WorkoutExercises.Insert(ctx, &entry); err != nil {
				return err
			}
			if err := tx.Exercises.IncrementPopularity(ctx, item.ExerciseID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &workout, nil
}

// AddExercise 向尚未结束的训练末尾追加动作
func (s *WorkoutService) AddExercise(ctx context.Context, userID, workoutID uint, input WorkoutExerciseInput) (*db.WorkoutExercise, error) {
	var errs error
	if input.ExerciseID == 0 {
		errs = multierr.Append(errs, apperr.Invalid("exercise_id", msgExerciseRequired))
	}
	if input.PlannedSets <= 0 {
		errs = multierr.Append(errs, apperr.Invalid("planned_sets", msgSetsPositive))
	}
	if errs != nil {
		return nil, errs
	}

	var entry db.WorkoutExercise
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		workout, err := ownedWorkout(ctx, tx, userID, workoutID)
		if err != nil {
			return err
		}
		if workout.IsTerminal() {
			return apperr.Conflict("训练已结束，无法添加动作")
		}
		if _, err := tx.Exercises.GetByID(ctx, input.ExerciseID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.Invalid("exercise_id", msgExerciseRequired)
			}
			return err
		}

		existing, err := tx.WorkoutExercises.ListByWorkout(ctx, workoutID)
		if err != nil {
			return err
		}
		order := 1
		if n := len(existing); n > 0 {
			order = existing[n-1].Order + 1
		}

		entry = db.WorkoutExercise{
			WorkoutID:   workoutID,
			ExerciseID:  input.ExerciseID,
			Order:       order,
			PlannedSets: input.PlannedSets,
			Status:      db.ExercisePending,
			Notes:       strings.TrimSpace(input.Notes),
		}
		if _, err := tx.WorkoutExercises.Insert(ctx, &entry); err != nil {
			return err
		}
		return tx.Exercises.IncrementPopularity(ctx, input.ExerciseID)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetActive 返回用户当前进行中或暂停的训练，没有时返回 nil
func (s *WorkoutService) GetActive(ctx context.Context, userID uint) (*db.Workout, error) {
	return s.store.Workouts.GetActive(ctx, userID)
}

// Get 返回用户自己的训练
func (s *WorkoutService) Get(ctx context.Context, userID, id uint) (*db.Workout, error) {
	return ownedWorkout(ctx, s.store, userID, id)
}

// Exercises 按顺序返回训练内的动作
func (s *WorkoutService) Exercises(ctx context.Context, userID, workoutID uint) ([]db.WorkoutExercise, error) {
	if _, err := ownedWorkout(ctx, s.store, userID, workoutID); err != nil {
		return nil, err
	}
	return s.store.WorkoutExercises.ListByWorkout(ctx, workoutID)
}

// History 返回训练历史，status 为空时返回全部状态
func (s *WorkoutService) History(ctx context.Context, userID uint, status string, limit int) ([]db.Workout, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if status = strings.ToUpper(strings.TrimSpace(status)); status != "" {
		return s.store.Workouts.ListByStatus(ctx, userID, status)
	}
	return s.store.Workouts.ListByUser(ctx, userID, limit)
}

// Delete 删除训练及其动作和组记录
func (s *WorkoutService) Delete(ctx context.Context, userID, id uint) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := ownedWorkout(ctx, tx, userID, id); err != nil {
			return err
		}
		entries, err := tx.WorkoutExercises.ListByWorkout(ctx, id)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if _, err := tx.Sets.DeleteByWorkoutExercise(ctx, entry.ID); err != nil {
				return err
			}
		}
		if _, err := tx.WorkoutExercises.DeleteByWorkout(ctx, id); err != nil {
			return err
		}
		return tx.Workouts.Delete(ctx, id)
	})
}

// ListSets 返回训练动作下的组记录
func (s *WorkoutService) ListSets(ctx context.Context, userID, workoutExerciseID uint) ([]db.ExerciseSet, error) {
	if _, _, err := ownedWorkoutExercise(ctx, s.store, userID, workoutExerciseID); err != nil {
		return nil, err
	}
	return s.store.Sets.ListByWorkoutExercise(ctx, workoutExerciseID)
}

// UpdateSet 修改已记录的一组
func (s *WorkoutService) UpdateSet(ctx context.Context, userID, id uint, input SetInput) (*db.ExerciseSet, error) {
	set, err := s.store.Sets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input.WorkoutExerciseID = set.WorkoutExerciseID
	if err := ValidateSet(input); err != nil {
		return nil, err
	}
	if _, _, err := ownedWorkoutExercise(ctx, s.store, userID, set.WorkoutExerciseID); err != nil {
		return nil, err
	}

	set.Reps = input.Reps
	set.Weight = input.Weight
	set.RestTime = input.RestTime
	set.Difficulty = input.Difficulty
	if input.IsCompleted != nil {
		set.IsCompleted = *input.IsCompleted
	}
	if err := s.store.Sets.Update(ctx, set); err != nil {
		return nil, err
	}
	return set, nil
}

// DeleteSet 删除一组记录，不影响训练动作的完成组数
func (s *WorkoutService) DeleteSet(ctx context.Context, userID, id uint) error {
	set, err := s.store.Sets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, _, err := ownedWorkoutExercise(ctx, s.store, userID, set.WorkoutExerciseID); err != nil {
		return err
	}
	return s.store.Sets.Delete(ctx, id)
}

// Stats 统计用户全部训练
func (s *WorkoutService) Stats(ctx context.Context, userID uint) (*WorkoutStats, error) {
	workouts, err := s.store.Workouts.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	stats := &WorkoutStats{TotalWorkouts: len(workouts)}
	var entryIDs []uint
	for _, workout := range workouts {
		switch workout.Status {
		case db.WorkoutCompleted:
			stats.CompletedWorkouts++
		case db.WorkoutCancelled:
			stats.CancelledWorkouts++
		}
		stats.TotalDurationSeconds += workout.TotalDuration

		entries, err := s.store.WorkoutExercises.ListByWorkout(ctx, workout.ID)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			entryIDs = append(entryIDs, entry.ID)
		}
	}

	sets, err := s.store.Sets.ListByWorkoutExercises(ctx, entryIDs)
	if err != nil {
		return nil, err
	}
	for _, set := range sets {
		if !set.IsCompleted {
			continue
		}
		stats.TotalSets++
		if set.Weight != nil {
			stats.TotalVolume += float64(set.Reps) * *set.Weight
		}
	}
	return stats, nil
}

func ensureNoActiveWorkout(ctx context.Context, store *repository.Store, userID uint) error {
	active, err := store.Workouts.GetActive(ctx, userID)
	if err != nil {
		return err
	}
	if active != nil {
		return ErrActiveWorkoutExists
	}
	return nil
}

func ownedWorkout(ctx context.Context, store *repository.Store, userID, id uint) (*db.Workout, error) {
	workout, err := store.Workouts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workout.UserID != userID {
		return nil, fmt.Errorf("get workout: %w", apperr.ErrNotFound)
	}
	return workout, nil
}

func ownedWorkoutExercise(ctx context.Context, store *repository.Store, userID, id uint) (*db.Workout, *db.WorkoutExercise, error) {
	entry, err := store.WorkoutExercises.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	workout, err := ownedWorkout(ctx, store, userID, entry.WorkoutID)
	if err != nil {
		return nil, nil, err
	}
	return workout, entry, nil
}
