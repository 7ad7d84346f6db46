package service

import (
	"context"
	"errors"
	"strings"

	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/repository"
)

// ErrPredefinedExercise 在尝试修改或删除预置动作时返回
var ErrPredefinedExercise = apperr.Conflict("预置动作不可修改或删除")

// ExerciseService 负责动作目录的查询与自定义动作维护
type ExerciseService struct {
	store *repository.Store
}

// ExerciseDetail 在动作基础上附带渲染后的要领与视频嵌入地址
type ExerciseDetail struct {
	db.Exercise
	MuscleGroup      string `json:"muscle_group"`
	InstructionsHTML string `json:"instructions_html"`
	VideoEmbedURL    string `json:"video_embed_url,omitempty"`
}

// NewExerciseService 构造 ExerciseService
func NewExerciseService(store *repository.Store) *ExerciseService {
	return &ExerciseService{store: store}
}

// ListMuscleGroups 返回全部肌群
func (s *ExerciseService) ListMuscleGroups(ctx context.Context) ([]db.MuscleGroup, error) {
	return s.store.MuscleGroups.List(ctx)
}

// List 按筛选条件返回动作
func (s *ExerciseService) List(ctx context.Context, filter repository.ExerciseFilter) ([]db.Exercise, error) {
	return s.store.Exercises.List(ctx, filter)
}

// ListByMuscleGroup 返回某个肌群下的动作，肌群不存在时返回 NotFound
func (s *ExerciseService) ListByMuscleGroup(ctx context.Context, muscleGroupID uint) ([]db.Exercise, error) {
	if _, err := s.store.MuscleGroups.GetByID(ctx, muscleGroupID); err != nil {
		return nil, err
	}
	return s.store.Exercises.ListByMuscleGroup(ctx, muscleGroupID)
}

// Popular 返回热度最高的动作
func (s *ExerciseService) Popular(ctx context.Context, limit int) ([]db.Exercise, error) {
	return s.store.Exercises.MostPopular(ctx, limit)
}

// Get 返回动作详情
func (s *ExerciseService) Get(ctx context.Context, id uint) (*ExerciseDetail, error) {
	exercise, err := s.store.Exercises.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &ExerciseDetail{Exercise: *exercise}
	if group, err := s.store.MuscleGroups.GetByID(ctx, exercise.MuscleGroupID); err == nil {
		detail.MuscleGroup = group.Name
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	html, err := RenderInstructions(exercise.Instructions)
	if err != nil {
		return nil, err
	}
	detail.InstructionsHTML = html
	if embed, ok := VideoEmbedURL(exercise.VideoURL); ok {
		detail.VideoEmbedURL = embed
	}
	return detail, nil
}

// Create 新建自定义动作
func (s *ExerciseService) Create(ctx context.Context, input ExerciseInput) (*db.Exercise, error) {
	if err := ValidateExercise(input); err != nil {
		return nil, err
	}
	if err := s.ensureMuscleGroup(ctx, input.MuscleGroupID); err != nil {
		return nil, err
	}

	exercise := db.Exercise{IsCustom: true}
	applyExerciseInput(&exercise, input)
	if _, err := s.store.Exercises.Insert(ctx, &exercise); err != nil {
		return nil, err
	}
	return &exercise, nil
}

// Update 更新自定义动作
func (s *ExerciseService) Update(ctx context.Context, id uint, input ExerciseInput) (*db.Exercise, error) {
	if err := ValidateExercise(input); err != nil {
		return nil, err
	}

	exercise, err := s.store.Exercises.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exercise.IsCustom {
		return nil, ErrPredefinedExercise
	}
	if err := s.ensureMuscleGroup(ctx, input.MuscleGroupID); err != nil {
		return nil, err
	}

	applyExerciseInput(exercise, input)
	if err := s.store.Exercises.Update(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

// Delete 删除自定义动作
func (s *ExerciseService) Delete(ctx context.Context, id uint) error {
	exercise, err := s.store.Exercises.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !exercise.IsCustom {
		return ErrPredefinedExercise
	}
	return s.store.Exercises.Delete(ctx, id)
}

// SetImage 记录上传后的动作图片地址
func (s *ExerciseService) SetImage(ctx context.Context, id uint, imageURL string) (*db.Exercise, error) {
	exercise, err := s.store.Exercises.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	exercise.ImageURL = imageURL
	if err := s.store.Exercises.Update(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

func (s *ExerciseService) ensureMuscleGroup(ctx context.Context, id uint) error {
	_, err := s.store.MuscleGroups.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Invalid("muscle_group_id", "肌群不存在")
	}
	return err
}

func applyExerciseInput(exercise *db.Exercise, input ExerciseInput) {
	exercise.Name = strings.TrimSpace(input.Name)
	exercise.Description = strings.TrimSpace(input.Description)
	exercise.Instructions = strings.TrimSpace(input.Instructions)
	exercise.MuscleGroupID = input.MuscleGroupID
	exercise.Difficulty = normalizeDifficulty(input.Difficulty)
	exercise.ImageURL = strings.TrimSpace(input.ImageURL)
	exercise.VideoURL = strings.TrimSpace(input.VideoURL)
}
