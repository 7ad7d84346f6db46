package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:repo-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close(gdb)
	})

	return NewStore(gdb)
}

func fakeUser() *db.User {
	return &db.User{
		FirstName:    gofakeit.FirstName(),
		LastName:     gofakeit.LastName(),
		Email:        gofakeit.Email(),
		PasswordHash: "$2a$10$placeholder",
	}
}

func TestUserRepositoryCRUD(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	user := fakeUser()
	id, err := store.Users.Insert(ctx, user)
	require.NoError(t, err)
	assert.NotZero(t, id)

	found, err := store.Users.GetByEmail(ctx, "  "+user.Email+"  ")
	require.NoError(t, err)
	assert.Equal(t, id, found.ID)

	found.Gender = "female"
	require.NoError(t, store.Users.Update(ctx, found))

	reloaded, err := store.Users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "female", reloaded.Gender)
	assert.Equal(t, user.CreatedAt.Unix(), reloaded.CreatedAt.Unix())

	require.NoError(t, store.Users.Delete(ctx, id))
	_, err = store.Users.GetByID(ctx, id)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestUserRepositoryDuplicateEmailIsConflict(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first := fakeUser()
	_, err := store.Users.Insert(ctx, first)
	require.NoError(t, err)

	second := fakeUser()
	second.Email = first.Email
	_, err = store.Users.Insert(ctx, second)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestUpdateAndDeleteMissingRecordIsNotFound(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	err := store.Workouts.Update(ctx, &db.Workout{ID: 999, UserID: 1, Name: "ghost", Status: db.WorkoutNotStarted})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = store.Routines.Delete(ctx, 999)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = store.Exercises.GetByID(ctx, 0)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestWorkoutInsertAndActiveLookup(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	workout := &db.Workout{UserID: 1, Name: "Leg Day", Status: db.WorkoutNotStarted}
	id, err := store.Workouts.Insert(ctx, workout)
	require.NoError(t, err)
	assert.Positive(t, id)

	active, err := store.Workouts.GetActive(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active)

	now := time.Now().UTC()
	workout.Status = db.WorkoutInProgress
	workout.StartTime = &now
	require.NoError(t, store.Workouts.Update(ctx, workout))

	active, err = store.Workouts.GetActive(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, id, active.ID)
	assert.Equal(t, db.WorkoutInProgress, active.Status)

	other, err := store.Workouts.GetActive(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestWorkoutListStaleAndBetween(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC().Add(-time.Hour)

	staleID, err := store.Workouts.Insert(ctx, &db.Workout{UserID: 1, Name: "old", Status: db.WorkoutPaused, StartTime: &old})
	require.NoError(t, err)
	_, err = store.Workouts.Insert(ctx, &db.Workout{UserID: 1, Name: "fresh", Status: db.WorkoutInProgress, StartTime: &recent})
	require.NoError(t, err)
	_, err = store.Workouts.Insert(ctx, &db.Workout{UserID: 1, Name: "done", Status: db.WorkoutCompleted, StartTime: &old})
	require.NoError(t, err)

	stale, err := store.Workouts.ListStale(ctx, time.Now().Add(-12*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, staleID, stale[0].ID)

	between, err := store.Workouts.ListBetween(ctx, 1, time.Now().Add(-2*time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, between, 1)
	assert.Equal(t, "fresh", between[0].Name)
}

func TestWorkoutExerciseOrderIsUniquePerWorkout(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.WorkoutExercises.Insert(ctx, &db.WorkoutExercise{WorkoutID: 1, ExerciseID: 1, Order: 1, PlannedSets: 3, Status: db.ExercisePending})
	require.NoError(t, err)
	_, err = store.WorkoutExercises.Insert(ctx, &db.WorkoutExercise{WorkoutID: 1, ExerciseID: 2, Order: 1, PlannedSets: 3, Status: db.ExercisePending})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = store.WorkoutExercises.Insert(ctx, &db.WorkoutExercise{WorkoutID: 2, ExerciseID: 2, Order: 1, PlannedSets: 3, Status: db.ExercisePending})
	assert.NoError(t, err)
}

func TestRoutineExercisesSortedByOrderNotInsertion(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, order := range []int{3, 1, 2} {
		_, err := store.RoutineExercises.Insert(ctx, &db.RoutineExercise{RoutineID: 7, ExerciseID: uint(order), Order: order, Sets: 3, Reps: "10"})
		require.NoError(t, err)
	}

	items, err := store.RoutineExercises.ListByRoutine(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{items[0].Order, items[1].Order, items[2].Order})

	maxOrder, err := store.RoutineExercises.MaxOrder(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, maxOrder)

	empty, err := store.RoutineExercises.MaxOrder(ctx, 8)
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestExerciseFilterByMuscleGroupSet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := db.SeedCatalog(store.DB())
	require.NoError(t, err)

	chest, err := store.MuscleGroups.GetByName(ctx, "Chest")
	require.NoError(t, err)
	legs, err := store.MuscleGroups.GetByName(ctx, "Legs")
	require.NoError(t, err)

	items, err := store.Exercises.List(ctx, ExerciseFilter{MuscleGroupIDs: []uint{chest.ID, legs.ID}})
	require.NoError(t, err)
	require.NotEmpty(t, items)
	for _, item := range items {
		assert.Contains(t, []uint{chest.ID, legs.ID}, item.MuscleGroupID)
	}

	beginner, err := store.Exercises.List(ctx, ExerciseFilter{MuscleGroupIDs: []uint{chest.ID}, Difficulty: "beginner"})
	require.NoError(t, err)
	require.Len(t, beginner, 1)
	assert.Equal(t, "Push-Up", beginner[0].Name)

	search, err := store.Exercises.List(ctx, ExerciseFilter{Search: "squat"})
	require.NoError(t, err)
	require.Len(t, search, 1)

	require.NoError(t, store.Exercises.IncrementPopularity(ctx, search[0].ID))
	popular, err := store.Exercises.MostPopular(ctx, 1)
	require.NoError(t, err)
	require.Len(t, popular, 1)
	assert.Equal(t, search[0].ID, popular[0].ID)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	sentinel := apperr.Invalid("name", "名称不能为空")
	err := store.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.Routines.Insert(ctx, &db.Routine{UserID: 1, Name: "Push", EstimatedDuration: 30}); err != nil {
			return err
		}
		return sentinel
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	routines, err := store.Routines.ListByUser(ctx, 1, false)
	require.NoError(t, err)
	assert.Empty(t, routines)
}

func TestSetsBulkDelete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := store.Sets.Insert(ctx, &db.ExerciseSet{WorkoutExerciseID: 5, SetNumber: i, Reps: 10, IsCompleted: true})
		require.NoError(t, err)
	}
	_, err := store.Sets.Insert(ctx, &db.ExerciseSet{WorkoutExerciseID: 6, SetNumber: 1, Reps: 8})
	require.NoError(t, err)

	deleted, err := store.Sets.DeleteByWorkoutExercise(ctx, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	remaining, err := store.Sets.ListByWorkoutExercises(ctx, []uint{5, 6})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.EqualValues(t, 6, remaining[0].WorkoutExerciseID)
}
