package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/repository"
	"github.com/gymtrack/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dbSeq atomic.Int64

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type countingRecorder struct {
	mu          sync.Mutex
	transitions []string
	sets        int
	open        int
}

func (r *countingRecorder) WorkoutTransition(from, to string) {
	r.mu.Lock()
	r.transitions = append(r.transitions, from+"->"+to)
	r.mu.Unlock()
}

func (r *countingRecorder) ExerciseTransition(string, string) {}

func (r *countingRecorder) SetCompleted() {
	r.mu.Lock()
	r.sets++
	r.mu.Unlock()
}

func (r *countingRecorder) SessionsOpen(n int) {
	r.mu.Lock()
	r.open = n
	r.mu.Unlock()
}

type fixture struct {
	store    *repository.Store
	clock    *fakeClock
	recorder *countingRecorder
	orch     *Orchestrator
	workouts *service.WorkoutService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:session-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), dbSeq.Add(1))
	gdb, err := db.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(gdb) })
	_, err = db.SeedCatalog(gdb)
	require.NoError(t, err)

	store := repository.NewStore(gdb)
	clock := &fakeClock{now: time.Date(2025, 4, 1, 18, 0, 0, 0, time.UTC)}
	recorder := &countingRecorder{}

	workouts := service.NewWorkoutService(store)
	workouts.SetClock(clock.Now)

	return &fixture{
		store:    store,
		clock:    clock,
		recorder: recorder,
		orch:     New(store, WithClock(clock.Now), WithRecorder(recorder)),
		workouts: workouts,
	}
}

// newWorkout 创建一个 NOT_STARTED 的训练，并按 plannedSets 追加动作
func (f *fixture) newWorkout(t *testing.T, userID uint, plannedSets ...int) *db.Workout {
	t.Helper()
	ctx := context.Background()

	workout, err := f.workouts.Create(ctx, userID, service.WorkoutInput{Name: "Leg Day"})
	require.NoError(t, err)

	exercises, err := f.store.Exercises.List(ctx, repository.ExerciseFilter{})
	require.NoError(t, err)
	for i, sets := range plannedSets {
		_, err := f.workouts.AddExercise(ctx, userID, workout.ID, service.WorkoutExerciseInput{ExerciseID: exercises[i].ID, PlannedSets: sets})
		require.NoError(t, err)
	}
	return workout
}

func TestLegDayScenarioActiveWorkoutLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	workout := f.newWorkout(t, 1)
	assert.Positive(t, workout.ID)

	active, err := f.workouts.GetActive(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active)

	snap, err := f.orch.Start(ctx, 1, workout.ID)
	require.NoError(t, err)
	assert.Equal(t, db.WorkoutInProgress, snap.Workout.Status)

	active, err = f.workouts.GetActive(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, workout.ID, active.ID)
	assert.Equal(t, db.WorkoutInProgress, active.Status)
}

func TestFinishCapturesTiming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	workout := f.newWorkout(t, 1, 3)

	snap, err := f.orch.Start(ctx, 1, workout.ID)
	require.NoError(t, err)
	start := *snap.Workout.StartTime

	f.clock.Advance(25*time.Minute + 30*time.Second)
	_, err = f.orch.Pause(ctx, 1, workout.ID)
	require.NoError(t, err)
	f.clock.Advance(5 * time.Minute)

	snap, err = f.orch.Finish(ctx, 1, workout.ID)
	require.NoError(t, err)
	assert.Equal(t, db.WorkoutCompleted, snap.Workout.Status)
	require.NotNil(t, snap.Workout.EndTime)
	assert.False(t, snap.Workout.EndTime.Before(start))
	assert.EqualValues(t, snap.Workout.EndTime.Sub(start)/time.Second, snap.Workout.TotalDuration)
	assert.EqualValues(t, 30*60+30, snap.Workout.TotalDuration)

	persisted, err := f.store.Workouts.GetByID(ctx, workout.ID)
	require.NoError(t, err)
	assert.Equal(t, db.WorkoutCompleted, persisted.Status)
	assert.Equal(t, snap.Workout.TotalDuration, persisted.TotalDuration)
	assert.Zero(t, f.orch.OpenCount())

	_, err = f.orch.Cancel(ctx, 1, workout.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCancelNeverProducesNegativeDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	notStarted := f.newWorkout(t, 1)
	snap, err := f.orch.Cancel(ctx, 1, notStarted.ID)
	require.NoError(t, err)
	assert.Equal(t, db.WorkoutCancelled, snap.Workout.Status)
	assert.Zero(t, snap.Workout.TotalDuration)
	require.NotNil(t, snap.Workout.EndTime)
	require.NotNil(t, snap.Workout.StartTime)
	assert.True(t, snap.Workout.StartTime.Equal(*snap.Workout.EndTime))

	persisted, err := f.store.Workouts.GetByID(ctx, notStarted.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted.StartTime)
	require.NotNil(t, persisted.EndTime)
	assert.True(t, persisted.StartTime.Equal(*persisted.EndTime))
	assert.Zero(t, persisted.TotalDuration)

	started := f.newWorkout(t, 2)
	snap, err = f.orch.Start(ctx, 2, started.ID)
	require.NoError(t, err)
	start := *snap.Workout.StartTime

	// 时钟回拨时结束时间被钳制为开始时间
	f.clock.Advance(-time.Hour)
	snap, err = f.orch.Cancel(ctx, 2, started.ID)
	require.NoError(t, err)
	assert.False(t, snap.Workout.EndTime.Before(start))
	assert.Zero(t, snap.Workout.TotalDuration)
}

func TestCompleteSetUpToPlannedSets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	workout := f.newWorkout(t, 1, 3, 2)

	_, err := f.orch.Start(ctx, 1, workout.ID)
	require.NoError(t, err)

	var snap Snapshot
	for i := 1; i <= 3; i++ {
		weight := 100.0
		snap, err = f.orch.CompleteSet(ctx, 1, workout.ID, 0, &SetLog{Reps: 5, Weight: &weight, Difficulty: 8})
		require.NoError(t, err)
		assert.Equal(t, i, snap.Exercises[0].CompletedSets)
	}

	entry := snap.Exercises[0]
	assert.Equal(t, db.ExerciseInProgress, entry.Status)
	assert.NotNil(t, entry.StartTime)
	assert.Equal(t, 3, entry.CompletedSets)
	assert.Equal(t, 1.0, entry.Progress)
	assert.Equal(t, 3, entry.CurrentSet)

	_, err = f.orch.CompleteSet(ctx, 1, workout.ID, 0, nil)
	assert.True(t, errors.Is(err, ErrSetsExhausted))

	sets, err := f.store.Sets.ListByWorkoutExercise(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, sets, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{sets[0].SetNumber, sets[1].SetNumber, sets[2].SetNumber})
	assert.Equal(t, 3, f.recorder.sets)

	persisted, err := f.store.WorkoutExercises.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, persisted.CompletedSets)
}

func TestCompleteSetRejectsInvalidLogWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	workout := f.newWorkout(t, 1, 3)

	_, err := f.orch.Start(ctx, 1, workout.ID)
	require.NoError(t, err)

	snap, err := f.orch.CompleteSet(ctx, 1, workout.ID, 0, &SetLog{Reps: 0})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Zero(t, snap.Exercises[0].CompletedSets)
	assert.Equal(t, db.ExercisePending, snap.Exercises[0].Status)

	persisted, err := f.store.WorkoutExercises.GetByID(ctx, snap.Exercises[0].ID)
	require.NoError(t, err)
	assert.Zero(t, persisted.CompletedSets)
}

func TestWorkoutProgressReachesOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	workout := f.newWorkout(t, 1, 1, 2, 3)

	snap, err := f.orch.Start(ctx, 1, workout.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.Progress)

	_, err = f.orch.StartExercise(ctx, 1, workout.ID, 0)
	require.NoError(t, err)
	_, err = f.orch.CompleteSet(ctx, 1, workout.ID, 0, nil)
	require.NoError(t, err)
	snap, err = f.orch.CompleteExercise(ctx, 1, workout.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.SelectedIndex)
	assert.InDelta(t, 1.0/3.0, snap.Progress, 1e-9)

	snap, err = f.orch.SkipExercise(ctx, 1, workout.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, snap.Exercises[1].StartTime)
	assert.NotNil(t, snap.Exercises[1].EndTime)

	_, err = f.orch.StartExercise(ctx, 1, workout.ID, 2)
	require.NoError(t, err)
	snap, err = f.orch.SkipExercise(ctx, 1, workout.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, snap.Progress)

	_, err = f.orch.CompleteExercise(ctx, 1, workout.ID, 1)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestWorkoutProgressWithoutExercisesIsZero(t *testing.T) {
	assert.Equal(t, 0.0, WorkoutProgress(nil))
	assert.Equal(t, 0.0, ExerciseProgress(db.WorkoutExercise{PlannedSets: 0, CompletedSets: 0}))
	assert.Equal(t, 0, CurrentSet(db.WorkoutExercise{PlannedSets: 0}))
	assert.Equal(t, 2, CurrentSet(db.WorkoutExercise{PlannedSets: 4, CompletedSets: 1}))
	assert.Equal(t, 4, CurrentSet(db.WorkoutExercise{PlannedSets: 4, CompletedSets: 4}))

	f := newFixture(t)
	workout := f.newWorkout(t, 1)
	snap, err := f.orch.Start(context.Background(), 1, workout.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.Progress)
	_, ok := snap.Selected()
	assert.False(t, ok)
}

func TestExerciseMutationsRequireInProgressWorkout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	workout := f.newWorkout(t, 1, 3)

	_, err := f.orch.CompleteSet(ctx, 1, workout.ID, 0, nil)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = f.orch.Start(ctx, 1, workout.ID)
	require.NoError(t, err)
	_, err = f.orch.Pause(ctx, 1, workout.ID)
	require.NoError(t, err)

	_, err = f.orch.StartExercise(ctx, 1, workout.ID, 0)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = f.orch.Resume(ctx, 1, workout.ID)
	require.NoError(t, err)
	_, err = f.orch.StartExercise(ctx, 1, workout.ID, 5)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	assert.Equal(t, []string{
		db.WorkoutNotStarted + "->" + db.WorkoutInProgress,
		db.WorkoutInProgress + "->" + db.WorkoutPaused,
		db.WorkoutPaused + "->" + db.WorkoutInProgress,
	}, f.recorder.transitions)
}

func TestNavigationOnlyMovesSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	workout := f.newWorkout(t, 1, 3, 3, 3)

	snap, err := f.orch.Open(ctx, 1, workout.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.SelectedIndex)

	snap, err = f.orch.Previous(ctx, 1, workout.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.SelectedIndex)

	_, err = f.orch.Next(ctx, 1, workout.ID)
	require.NoError(t, err)
	snap, err = f.orch.Next(ctx, 1, workout.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.SelectedIndex)

	snap, err = f.orch.Next(ctx, 1, workout.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.SelectedIndex)

	snap, err = f.orch.Select(ctx, 1, workout.ID, 1)
	require.NoError(t, err)
	selected, ok := snap.Selected()
	require.True(t, ok)
	assert.Equal(t, 1, selected.Index)
	assert.Equal(t, db.WorkoutNotStarted, snap.Workout.Status)

	_, err = f.orch.Open(ctx, 2, workout.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestStartRejectsSecondActiveWorkout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.newWorkout(t, 1)
	second := f.newWorkout(t, 1)

	_, err := f.orch.Start(ctx, 1, first.ID)
	require.NoError(t, err)

	snap, err := f.orch.Start(ctx, 1, second.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, db.WorkoutNotStarted, snap.Workout.Status)
}

func TestFinishIncrementsRoutineCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	routines := service.NewRoutineService(f.store)
	routine, err := routines.Create(ctx, 1, service.RoutineInput{Name: "Push Day", EstimatedDuration: 45, TargetMuscles: "Chest"})
	require.NoError(t, err)

	workout, err := f.workouts.StartFromRoutine(ctx, 1, routine.ID)
	require.NoError(t, err)

	_, err = f.orch.Finish(ctx, 1, workout.ID)
	require.NoError(t, err)

	reloaded, err := f.store.Routines.GetByID(ctx, routine.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.TimesCompleted)
}

func TestSweepStaleCancelsOldWorkouts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old := f.newWorkout(t, 1)
	_, err := f.orch.Start(ctx, 1, old.ID)
	require.NoError(t, err)

	f.clock.Advance(13 * time.Hour)
	fresh := f.newWorkout(t, 2)
	_, err = f.orch.Start(ctx, 2, fresh.ID)
	require.NoError(t, err)

	cancelled, err := f.orch.SweepStale(ctx, f.clock.Now().Add(-12*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)

	reloaded, err := f.store.Workouts.GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, db.WorkoutCancelled, reloaded.Status)
	assert.EqualValues(t, 13*60*60, reloaded.TotalDuration)

	stillActive, err := f.store.Workouts.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, db.WorkoutInProgress, stillActive.Status)
}

func TestConcurrentCompleteSetIsSerialised(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	workout := f.newWorkout(t, 1, 5)

	_, err := f.orch.Start(ctx, 1, workout.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.orch.CompleteSet(ctx, 1, workout.ID, 0, nil); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	snap, err := f.orch.Open(ctx, 1, workout.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Exercises[0].CompletedSets)
	assert.EqualValues(t, 3, failures.Load())
}

func TestStorageFailureLeavesSessionUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	workout := f.newWorkout(t, 1, 3)

	_, err := f.orch.Start(ctx, 1, workout.ID)
	require.NoError(t, err)
	transitions := len(f.recorder.transitions)

	// 会话已在内存中，之后的写入全部失败
	require.NoError(t, db.Close(f.store.DB()))

	snap, err := f.orch.Pause(ctx, 1, workout.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrIO)
	assert.Equal(t, db.WorkoutInProgress, snap.Workout.Status)

	weight := 60.0
	snap, err = f.orch.CompleteSet(ctx, 1, workout.ID, 0, &SetLog{Reps: 8, Weight: &weight, Difficulty: 7})
	require.Error(t, err)
	assert.Zero(t, snap.Exercises[0].CompletedSets)
	assert.Equal(t, db.ExercisePending, snap.Exercises[0].Status)

	_, err = f.orch.Cancel(ctx, 1, workout.ID)
	require.Error(t, err)

	snap, err = f.orch.Open(ctx, 1, workout.ID)
	require.NoError(t, err)
	assert.Equal(t, db.WorkoutInProgress, snap.Workout.Status)
	assert.Nil(t, snap.Workout.EndTime)
	assert.Zero(t, snap.Exercises[0].CompletedSets)
	assert.Len(t, f.recorder.transitions, transitions)
	assert.Zero(t, f.recorder.sets)
	assert.Equal(t, 1, f.orch.OpenCount())
}

func TestCloseForcesHoldersToReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	workout := f.newWorkout(t, 1, 3)

	_, err := f.orch.Start(ctx, 1, workout.ID)
	require.NoError(t, err)

	held, err := f.orch.load(ctx, 1, workout.ID)
	require.NoError(t, err)
	f.orch.Close(workout.ID)
	assert.True(t, held.evicted)
	assert.Zero(t, f.orch.OpenCount())

	_, ok, err := f.orch.apply(held, func(*Session) error { return nil })
	require.NoError(t, err)
	assert.False(t, ok)

	snap, err := f.orch.CompleteSet(ctx, 1, workout.ID, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Exercises[0].CompletedSets)

	reloaded, err := f.orch.load(ctx, 1, workout.ID)
	require.NoError(t, err)
	assert.NotSame(t, held, reloaded)
	assert.Zero(t, held.exercises[0].CompletedSets)
}

func TestCompleteSetSurvivesConcurrentClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 单连接避免共享缓存内存库的表锁冲突
	sqlDB, err := f.store.DB().DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	const sets = 12
	workout := f.newWorkout(t, 1, sets)
	_, err = f.orch.Start(ctx, 1, workout.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < sets; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := f.orch.CompleteSet(ctx, 1, workout.ID, 0, nil); err != nil {
				failures.Add(1)
			}
		}()
		go func() {
			defer wg.Done()
			f.orch.Close(workout.ID)
		}()
	}
	wg.Wait()
	assert.Zero(t, failures.Load())

	entries, err := f.store.WorkoutExercises.ListByWorkout(ctx, workout.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, sets, entries[0].CompletedSets)
}
