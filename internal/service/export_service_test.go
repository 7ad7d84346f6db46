package service

import (
	"context"
	"testing"
	"time"

	"github.com/gymtrack/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportHistoryWritesWorkoutsAndSets(t *testing.T) {
	store := newSeededStore(t)
	workouts := NewWorkoutService(store)
	ctx := context.Background()
	ids := catalogIDs(t, store, 1)

	workout, err := workouts.Create(ctx, 7, WorkoutInput{Name: "Leg Day"})
	require.NoError(t, err)
	entry, err := workouts.AddExercise(ctx, 7, workout.ID, WorkoutExerciseInput{ExerciseID: ids[0], PlannedSets: 2})
	require.NoError(t, err)

	weight := 42.5
	for i := 1; i <= 2; i++ {
		_, err := store.Sets.Insert(ctx, &db.ExerciseSet{WorkoutExerciseID: entry.ID, SetNumber: i, Reps: 12, Weight: &weight, IsCompleted: true})
		require.NoError(t, err)
	}

	f, err := NewExportService(store).ExportHistory(ctx, 7, time.Time{}, time.Time{})
	require.NoError(t, err)
	defer f.Close()

	workoutRows, err := f.GetRows(SheetWorkouts)
	require.NoError(t, err)
	require.Len(t, workoutRows, 2)
	assert.Equal(t, workoutHeaders, workoutRows[0])
	assert.Equal(t, "Leg Day", workoutRows[1][1])
	assert.Equal(t, db.WorkoutNotStarted, workoutRows[1][2])

	setRows, err := f.GetRows(SheetSets)
	require.NoError(t, err)
	require.Len(t, setRows, 3)
	assert.Equal(t, "12", setRows[1][5])
	assert.Equal(t, "42.5", setRows[1][6])

	empty, err := NewExportService(store).ExportHistory(ctx, 8, time.Time{}, time.Time{})
	require.NoError(t, err)
	defer empty.Close()
	rows, err := empty.GetRows(SheetWorkouts)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
