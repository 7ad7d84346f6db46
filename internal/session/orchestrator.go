package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/repository"
	"github.com/gymtrack/internal/service"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidTransition 在当前状态不允许目标流转时返回
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrSetsExhausted 在完成组数已达计划组数后继续完成一组时返回
	ErrSetsExhausted = apperr.Conflict("本动作的计划组数已全部完成")
)

// Recorder 接收会话流转事件，用于指标上报
type Recorder interface {
	WorkoutTransition(from, to string)
	ExerciseTransition(from, to string)
	SetCompleted()
	SessionsOpen(n int)
}

type noopRecorder struct{}

func (noopRecorder) WorkoutTransition(string, string)  {}
func (noopRecorder) ExerciseTransition(string, string) {}
func (noopRecorder) SetCompleted()                     {}
func (noopRecorder) SessionsOpen(int)                  {}

// SetLog 是完成一组时可选记录的实际表现
type SetLog struct {
	Reps       int      `json:"reps"`
	Weight     *float64 `json:"weight"`
	RestTime   *int     `json:"rest_time"`
	Difficulty int      `json:"difficulty"`
}

// Option 配置 Orchestrator
type Option func(*Orchestrator)

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRecorder 设置指标接收方
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithLogger 设置日志输出
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.log = logger
		}
	}
}

// Orchestrator 管理所有打开的训练会话
type Orchestrator struct {
	store    *repository.Store
	now      func() time.Time
	recorder Recorder
	log      logrus.FieldLogger

	mu        sync.Mutex
	sessions  map[uint]*Session
	evictions uint64
}

// New 构造 Orchestrator
func New(store *repository.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		now:      time.Now,
		recorder: noopRecorder{},
		log:      logrus.StandardLogger(),
		sessions: make(map[uint]*Session),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OpenCount 返回内存中打开的会话数
func (o *Orchestrator) OpenCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sessions)
}

// Open 加载训练会话并返回快照
func (o *Orchestrator) Open(ctx context.Context, userID, workoutID uint) (Snapshot, error) {
	return o.with(ctx, userID, workoutID, func(s *Session) error { return nil })
}

// Close 从内存中移除会话，不影响已持久化的数据。
// 进行中的流转完成后才会移除，之后的请求从数据库重新加载。
func (o *Orchestrator) Close(workoutID uint) {
	o.mu.Lock()
	s, ok := o.sessions[workoutID]
	o.mu.Unlock()
	if ok {
		s.mu.Lock()
		s.evicted = true
		s.mu.Unlock()
	}

	o.mu.Lock()
	if current, ok := o.sessions[workoutID]; ok && current == s {
		delete(o.sessions, workoutID)
	}
	o.evictions++
	n := len(o.sessions)
	o.mu.Unlock()
	o.recorder.SessionsOpen(n)
}

// Start NOT_STARTED → IN_PROGRESS，记录开始时间。同一用户只能有一个活跃训练。
func (o *Orchestrator) Start(ctx context.Context, userID, workoutID uint) (Snapshot, error) {
	return o.with(ctx, userID, workoutID, func(s *Session) error {
		if s.workout.Status != db.WorkoutNotStarted {
			return transitionError("开始", s.workout.Status)
		}

		next := s.workout
		now := o.now().UTC()
		next.Status = db.WorkoutInProgress
		next.StartTime = &now

		err := o.store.Transaction(ctx, func(tx *repository.Store) error {
			active, err := tx.Workouts.GetActive(ctx, userID)
			if err != nil {
				return err
			}
			if active != nil && active.ID != workoutID {
				return service.ErrActiveWorkoutExists
			}
			return tx.Workouts.Update(ctx, &next)
		})
		if err != nil {
			return err
		}
		o.commitWorkout(s, next)
		return nil
	})
}

// Pause IN_PROGRESS → PAUSED
func (o *Orchestrator) Pause(ctx context.Context, userID, workoutID uint) (Snapshot, error) {
	return o.simpleTransition(ctx, userID, workoutID, "暂停", db.WorkoutPaused, db.WorkoutInProgress)
}

// Resume PAUSED → IN_PROGRESS
func (o *Orchestrator) Resume(ctx context.Context, userID, workoutID uint) (Snapshot, error) {
	return o.simpleTransition(ctx, userID, workoutID, "继续", db.WorkoutInProgress, db.WorkoutPaused)
}

// Finish IN_PROGRESS|PAUSED → COMPLETED，记录结束时间与总时长，并累加来源计划的完成次数
func (o *Orchestrator) Finish(ctx context.Context, userID, workoutID uint) (Snapshot, error) {
	snap, err := o.with(ctx, userID, workoutID, func(s *Session) error {
		if !s.workout.IsActive() {
			return transitionError("完成", s.workout.Status)
		}

		next := closeWorkout(s.workout, db.WorkoutCompleted, o.now())
		err := o.store.Transaction(ctx, func(tx *repository.Store) error {
			if err := tx.Workouts.Update(ctx, &next); err != nil {
				return err
			}
			if next.RoutineID == nil {
				return nil
			}
			err := tx.Routines.IncrementTimesCompleted(ctx, *next.RoutineID)
			if errors.Is(err, apperr.ErrNotFound) {
				return nil
			}
			return err
		})
		if err != nil {
			return err
		}
		o.commitWorkout(s, next)
		return nil
	})
	if err == nil {
		o.Close(workoutID)
	}
	return snap, err
}

// Cancel NOT_STARTED|IN_PROGRESS|PAUSED → CANCELLED，计时方式与 Finish 相同
func (o *Orchestrator) Cancel(ctx context.Context, userID, workoutID uint) (Snapshot, error) {
	snap, err := o.with(ctx, userID, workoutID, func(s *Session) error {
		return o.cancelLocked(ctx, s)
	})
	if err == nil {
		o.Close(workoutID)
	}
	return snap, err
}

// StartExercise PENDING → IN_PROGRESS，记录开始时间并选中该动作
func (o *Orchestrator) StartExercise(ctx context.Context, userID, workoutID uint, index int) (Snapshot, error) {
	return o.withExercise(ctx, userID, workoutID, index, func(s *Session, entry db.WorkoutExercise) error {
		if entry.Status != db.ExercisePending {
			return transitionError("开始动作", entry.Status)
		}

		next := entry
		now := o.now().UTC()
		next.Status = db.ExerciseInProgress
		next.StartTime = &now
		if err := o.store.WorkoutExercises.Update(ctx, &next); err != nil {
			return err
		}
		o.commitExercise(s, index, next)
		s.selected = index
		return nil
	})
}

// CompleteSet 完成一组：completedSets 加一，可选写入组记录（同一事务）。
// PENDING 的动作会被自动开始；completedSets 达到 plannedSets 后拒绝。
func (o *Orchestrator) CompleteSet(ctx context.Context, userID, workoutID uint, index int, log *SetLog) (Snapshot, error) {
	return o.withExercise(ctx, userID, workoutID, index, func(s *Session, entry db.WorkoutExercise) error {
		if entry.IsDone() {
			return transitionError("完成一组", entry.Status)
		}
		if entry.CompletedSets >= entry.PlannedSets {
			return ErrSetsExhausted
		}

		var set *db.ExerciseSet
		if log != nil {
			if err := service.ValidateSet(service.SetInput{
				WorkoutExerciseID: entry.ID,
				Reps:              log.Reps,
				Weight:            log.Weight,
				RestTime:          log.RestTime,
				Difficulty:        log.Difficulty,
			}); err != nil {
				return err
			}
			set = &db.ExerciseSet{
				WorkoutExerciseID: entry.ID,
				SetNumber:         entry.CompletedSets + 1,
				Reps:              log.Reps,
				Weight:            log.Weight,
				RestTime:          log.RestTime,
				IsCompleted:       true,
				Difficulty:        log.Difficulty,
			}
		}

		next := entry
		next.CompletedSets++
		if next.Status == db.ExercisePending {
			now := o.now().UTC()
			next.Status = db.ExerciseInProgress
			next.StartTime = &now
		}

		err := o.store.Transaction(ctx, func(tx *repository.Store) error {
			if err := tx.WorkoutExercises.Update(ctx, &next); err != nil {
				return err
			}
			if set == nil {
				return nil
			}
			_, err := tx.Sets.Insert(ctx, set)
			return err
		})
		if err != nil {
			return err
		}
		o.commitExercise(s, index, next)
		s.selected = index
		o.recorder.SetCompleted()
		return nil
	})
}

// CompleteExercise IN_PROGRESS → COMPLETED，记录结束时间并选中下一个动作
func (o *Orchestrator) CompleteExercise(ctx context.Context, userID, workoutID uint, index int) (Snapshot, error) {
	return o.withExercise(ctx, userID, workoutID, index, func(s *Session, entry db.WorkoutExercise) error {
		if entry.Status != db.ExerciseInProgress {
			return transitionError("完成动作", entry.Status)
		}
		return o.finishExercise(ctx, s, index, entry, db.ExerciseCompleted)
	})
}

// SkipExercise PENDING|IN_PROGRESS → SKIPPED，记录结束时间并选中下一个动作
func (o *Orchestrator) SkipExercise(ctx context.Context, userID, workoutID uint, index int) (Snapshot, error) {
	return o.withExercise(ctx, userID, workoutID, index, func(s *Session, entry db.WorkoutExercise) error {
		if entry.IsDone() {
			return transitionError("跳过动作", entry.Status)
		}
		return o.finishExercise(ctx, s, index, entry, db.ExerciseSkipped)
	})
}

// Next 选中下一个动作，仅修改内存状态
func (o *Orchestrator) Next(ctx context.Context, userID, workoutID uint) (Snapshot, error) {
	return o.with(ctx, userID, workoutID, func(s *Session) error {
		s.clampSelected(s.selected + 1)
		return nil
	})
}

// Previous 选中上一个动作，仅修改内存状态
func (o *Orchestrator) Previous(ctx context.Context, userID, workoutID uint) (Snapshot, error) {
	return o.with(ctx, userID, workoutID, func(s *Session) error {
		s.clampSelected(s.selected - 1)
		return nil
	})
}

// Select 选中指定序号的动作（越界时取边界值），仅修改内存状态
func (o *Orchestrator) Select(ctx context.Context, userID, workoutID uint, index int) (Snapshot, error) {
	return o.with(ctx, userID, workoutID, func(s *Session) error {
		s.clampSelected(index)
		return nil
	})
}

// SweepStale 取消在 cutoff 之前开始且仍未结束的训练，返回取消数量
func (o *Orchestrator) SweepStale(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := o.store.Workouts.ListStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, workout := range stale {
		if _, err := o.Cancel(ctx, workout.UserID, workout.ID); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				continue
			}
			return cancelled, fmt.Errorf("sweep workout %d: %w", workout.ID, err)
		}
		cancelled++
	}
	return cancelled, nil
}

func (o *Orchestrator) simpleTransition(ctx context.Context, userID, workoutID uint, action, target, from string) (Snapshot, error) {
	return o.with(ctx, userID, workoutID, func(s *Session) error {
		if s.workout.Status != from {
			return transitionError(action, s.workout.Status)
		}
		next := s.workout
		next.Status = target
		if err := o.store.Workouts.Update(ctx, &next); err != nil {
			return err
		}
		o.commitWorkout(s, next)
		return nil
	})
}

func (o *Orchestrator) cancelLocked(ctx context.Context, s *Session) error {
	switch s.workout.Status {
	case db.WorkoutNotStarted, db.WorkoutInProgress, db.WorkoutPaused:
	default:
		return transitionError("取消", s.workout.Status)
	}

	next := closeWorkout(s.workout, db.WorkoutCancelled, o.now())
	if err := o.store.Workouts.Update(ctx, &next); err != nil {
		return err
	}
	o.commitWorkout(s, next)
	return nil
}

func (o *Orchestrator) finishExercise(ctx context.Context, s *Session, index int, entry db.WorkoutExercise, status string) error {
	next := entry
	end, _ := closeTiming(entry.StartTime, o.now())
	next.Status = status
	next.EndTime = &end
	if err := o.store.WorkoutExercises.Update(ctx, &next); err != nil {
		return err
	}
	o.commitExercise(s, index, next)
	s.clampSelected(index + 1)
	return nil
}

func (o *Orchestrator) commitWorkout(s *Session, next db.Workout) {
	from := s.workout.Status
	s.workout = next
	o.recorder.WorkoutTransition(from, next.Status)
	o.log.WithFields(logrus.Fields{
		"workout_id": next.ID,
		"from":       from,
		"to":         next.Status,
	}).Debug("workout transition")
}

func (o *Orchestrator) commitExercise(s *Session, index int, next db.WorkoutExercise) {
	from := s.exercises[index].Status
	s.exercises[index] = next
	if from != next.Status {
		o.recorder.ExerciseTransition(from, next.Status)
	}
}

// with 在会话锁内执行 fn 并返回最新快照；fn 返回错误时快照仍反映未修改的状态
func (o *Orchestrator) with(ctx context.Context, userID, workoutID uint, fn func(*Session) error) (Snapshot, error) {
	for {
		s, err := o.load(ctx, userID, workoutID)
		if err != nil {
			return Snapshot{}, err
		}
		if snap, ok, err := o.apply(s, fn); ok {
			return snap, err
		}
		if err := ctx.Err(); err != nil {
			return Snapshot{}, err
		}
	}
}

// apply 在会话锁内执行 fn；会话已被移出内存时返回 ok=false
func (o *Orchestrator) apply(s *Session, fn func(*Session) error) (snap Snapshot, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.evicted {
		return Snapshot{}, false, nil
	}
	err = fn(s)
	return s.snapshot(o.now()), true, err
}

func (o *Orchestrator) withExercise(ctx context.Context, userID, workoutID uint, index int, fn func(*Session, db.WorkoutExercise) error) (Snapshot, error) {
	return o.with(ctx, userID, workoutID, func(s *Session) error {
		if s.workout.Status != db.WorkoutInProgress {
			return apperr.Conflict("训练未在进行中，无法操作动作")
		}
		if index < 0 || index >= len(s.exercises) {
			return apperr.Invalid("index", "动作序号无效")
		}
		return fn(s, s.exercises[index])
	})
}

func (o *Orchestrator) load(ctx context.Context, userID, workoutID uint) (*Session, error) {
	for {
		s, err := o.loadOnce(ctx, userID, workoutID)
		if !errors.Is(err, errEvictedDuringLoad) {
			return s, err
		}
	}
}

var errEvictedDuringLoad = errors.New("session evicted during load")

// loadOnce 返回内存中的会话，或从数据库构建一个。构建期间若有会话被移出内存，
// 读到的数据可能早于旧会话的最后一次写入，此时丢弃并返回 errEvictedDuringLoad。
func (o *Orchestrator) loadOnce(ctx context.Context, userID, workoutID uint) (*Session, error) {
	o.mu.Lock()
	s, ok := o.sessions[workoutID]
	generation := o.evictions
	o.mu.Unlock()
	if ok {
		if s.owner() != userID {
			return nil, fmt.Errorf("open session: %w", apperr.ErrNotFound)
		}
		return s, nil
	}

	workout, err := o.store.Workouts.GetByID(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.UserID != userID {
		return nil, fmt.Errorf("open session: %w", apperr.ErrNotFound)
	}
	entries, err := o.store.WorkoutExercises.ListByWorkout(ctx, workoutID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ExerciseID)
	}
	exercises, err := o.store.Exercises.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(exercises))
	for _, exercise := range exercises {
		names[exercise.ID] = exercise.Name
	}

	loaded := &Session{workout: *workout, exercises: entries, names: names}
	loaded.clampSelected(firstOpenExercise(entries))

	o.mu.Lock()
	if existing, ok := o.sessions[workoutID]; ok {
		o.mu.Unlock()
		return existing, nil
	}
	if o.evictions != generation {
		o.mu.Unlock()
		return nil, errEvictedDuringLoad
	}
	o.sessions[workoutID] = loaded
	n := len(o.sessions)
	o.mu.Unlock()

	o.recorder.SessionsOpen(n)
	return loaded, nil
}

func (s *Session) owner() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workout.UserID
}

func firstOpenExercise(entries []db.WorkoutExercise) int {
	for idx, entry := range entries {
		if !entry.IsDone() {
			return idx
		}
	}
	return 0
}

// closeWorkout 写入结束状态与计时；从未开始的训练以结束时间作为开始时间
func closeWorkout(workout db.Workout, status string, now time.Time) db.Workout {
	end, duration := closeTiming(workout.StartTime, now)
	if workout.StartTime == nil {
		start := end
		workout.StartTime = &start
	}
	workout.Status = status
	workout.EndTime = &end
	workout.TotalDuration = duration
	return workout
}

func transitionError(action, status string) error {
	return apperr.UserFacing{
		Message: fmt.Sprintf("当前状态（%s）无法%s", status, action),
		Err:     fmt.Errorf("%w: %w", ErrInvalidTransition, apperr.ErrConflict),
	}
}
