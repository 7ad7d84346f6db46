package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExerciseServiceCustomLifecycle(t *testing.T) {
	store := newSeededStore(t)
	svc := NewExerciseService(store)
	ctx := context.Background()

	core, err := store.MuscleGroups.GetByName(ctx, "Core")
	require.NoError(t, err)

	_, err = svc.Create(ctx, ExerciseInput{Name: "Dead Bug", MuscleGroupID: core.ID})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	fields := apperr.Fields(err)
	assert.Contains(t, fields, "description")
	assert.Contains(t, fields, "instructions")

	_, err = svc.Create(ctx, ExerciseInput{
		Name:          "Dead Bug",
		Description:   "Anti-extension core drill",
		Instructions:  "Lie on your back",
		MuscleGroupID: 9999,
		Difficulty:    "beginner",
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	created, err := svc.Create(ctx, ExerciseInput{
		Name:          "Dead Bug",
		Description:   "Anti-extension core drill",
		Instructions:  "1. Lie on your back\n2. Extend **opposite** arm and leg",
		MuscleGroupID: core.ID,
		Difficulty:    "beginner",
		VideoURL:      "https://youtu.be/deadbug01",
	})
	require.NoError(t, err)
	assert.True(t, created.IsCustom)
	assert.Equal(t, db.DifficultyBeginner, created.Difficulty)

	detail, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Core", detail.MuscleGroup)
	assert.Contains(t, detail.InstructionsHTML, "<strong>opposite</strong>")
	assert.True(t, strings.HasPrefix(detail.VideoEmbedURL, "https://www.youtube.com/embed/deadbug01"))

	coreExercises, err := svc.ListByMuscleGroup(ctx, core.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(coreExercises))
	for _, exercise := range coreExercises {
		names = append(names, exercise.Name)
	}
	assert.Contains(t, names, "Dead Bug")
	assert.Contains(t, names, "Plank")

	_, err = svc.ListByMuscleGroup(ctx, 9999)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestExerciseServiceProtectsPredefinedExercises(t *testing.T) {
	store := newSeededStore(t)
	svc := NewExerciseService(store)
	ctx := context.Background()

	ids := catalogIDs(t, store, 1)
	err := svc.Delete(ctx, ids[0])
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	updated, err := svc.SetImage(ctx, ids[0], "/uploads/plank.png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/plank.png", updated.ImageURL)
}
