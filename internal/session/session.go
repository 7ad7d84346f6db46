// Package session 维护“正在进行的训练”在内存中的状态：当前选中的动作、
// 下一组的序号与完成进度，并把每一次状态流转持久化。
//
// 所有流转都是先写库、后改内存：存储失败时内存状态保持不变。
package session

import (
	"sync"
	"time"

	"github.com/gymtrack/internal/db"
)

// ExerciseView 是快照中的单个动作
type ExerciseView struct {
	db.WorkoutExercise
	Index        int     `json:"index"`
	ExerciseName string  `json:"exercise_name"`
	CurrentSet   int     `json:"current_set"`
	Progress     float64 `json:"progress"`
}

// Snapshot 是会话在某一时刻的只读视图
type Snapshot struct {
	Workout        db.Workout     `json:"workout"`
	Exercises      []ExerciseView `json:"exercises"`
	SelectedIndex  int            `json:"selected_index"`
	Progress       float64        `json:"progress"`
	ElapsedSeconds int64          `json:"elapsed_seconds"`
}

// Selected 返回当前选中的动作；没有动作时返回 false
func (s Snapshot) Selected() (ExerciseView, bool) {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Exercises) {
		return ExerciseView{}, false
	}
	return s.Exercises[s.SelectedIndex], true
}

// Session 持有单个训练的内存状态，mu 保证同一训练的流转按发起顺序串行执行。
// evicted 在会话被移出内存后置位，持有旧引用的调用方须重新加载。
type Session struct {
	mu        sync.Mutex
	workout   db.Workout
	exercises []db.WorkoutExercise
	names     map[uint]string
	selected  int
	evicted   bool
}

func (s *Session) snapshot(now time.Time) Snapshot {
	views := make([]ExerciseView, 0, len(s.exercises))
	for idx, entry := range s.exercises {
		views = append(views, ExerciseView{
			WorkoutExercise: entry,
			Index:           idx,
			ExerciseName:    s.names[entry.ExerciseID],
			CurrentSet:      CurrentSet(entry),
			Progress:        ExerciseProgress(entry),
		})
	}

	return Snapshot{
		Workout:        s.workout,
		Exercises:      views,
		SelectedIndex:  s.selected,
		Progress:       WorkoutProgress(s.exercises),
		ElapsedSeconds: elapsedSeconds(s.workout, now),
	}
}

func (s *Session) clampSelected(index int) {
	switch {
	case len(s.exercises) == 0:
		s.selected = 0
	case index < 0:
		s.selected = 0
	case index >= len(s.exercises):
		s.selected = len(s.exercises) - 1
	default:
		s.selected = index
	}
}

// ExerciseProgress = completedSets / plannedSets，plannedSets 为 0 时返回 0
func ExerciseProgress(entry db.WorkoutExercise) float64 {
	if entry.PlannedSets <= 0 {
		return 0
	}
	progress := float64(entry.CompletedSets) / float64(entry.PlannedSets)
	return min(progress, 1)
}

// WorkoutProgress = 已完成或已跳过的动作数 / 动作总数，没有动作时返回 0
func WorkoutProgress(entries []db.WorkoutExercise) float64 {
	if len(entries) == 0 {
		return 0
	}
	done := 0
	for _, entry := range entries {
		if entry.IsDone() {
			done++
		}
	}
	return float64(done) / float64(len(entries))
}

// CurrentSet 返回下一组的序号 min(completedSets+1, plannedSets)
func CurrentSet(entry db.WorkoutExercise) int {
	return min(entry.CompletedSets+1, entry.PlannedSets)
}

// closeTiming 计算结束时间与总时长（秒）。结束时间不早于开始时间，未开始的训练时长为 0。
func closeTiming(start *time.Time, now time.Time) (time.Time, int64) {
	end := now.UTC()
	if start == nil {
		return end, 0
	}
	if end.Before(*start) {
		end = start.UTC()
	}
	return end, int64(end.Sub(*start) / time.Second)
}

func elapsedSeconds(workout db.Workout, now time.Time) int64 {
	if workout.IsTerminal() {
		return workout.TotalDuration
	}
	if workout.StartTime == nil {
		return 0
	}
	elapsed := now.Sub(*workout.StartTime)
	if elapsed < 0 {
		return 0
	}
	return int64(elapsed / time.Second)
}
