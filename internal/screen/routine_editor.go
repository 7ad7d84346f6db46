package screen

import (
	"context"
	"sync"

	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/outcome"
	"github.com/gymtrack/internal/repository"
	"github.com/gymtrack/internal/service"
)

const (
	msgRoutineLoadFailed   = "加载训练计划失败"
	msgRoutineSaveFailed   = "保存训练计划失败"
	msgRoutineAddFailed    = "添加动作失败"
	msgRoutineRemoveFailed = "移除动作失败"
	msgRoutineOrderFailed  = "调整动作顺序失败"
	msgRoutineNotSaved     = "请先保存训练计划"
)

// RoutineGateway 是计划编辑页依赖的计划网关
type RoutineGateway interface {
	Get(ctx context.Context, userID, id uint) (*db.Routine, error)
	Create(ctx context.Context, userID uint, input service.RoutineInput) (*db.Routine, error)
	Update(ctx context.Context, userID, id uint, input service.RoutineInput) (*db.Routine, error)
	Exercises(ctx context.Context, userID, routineID uint) ([]service.RoutineExerciseDetail, error)
	AddExercise(ctx context.Context, userID uint, input service.RoutineExerciseInput) (*db.RoutineExercise, error)
	RemoveExercise(ctx context.Context, userID, routineID, id uint) error
	Reorder(ctx context.Context, userID, routineID uint, orderedIDs []uint) ([]db.RoutineExercise, error)
}

// CatalogGateway 是读取动作目录的网关
type CatalogGateway interface {
	ListMuscleGroups(ctx context.Context) ([]db.MuscleGroup, error)
	List(ctx context.Context, filter repository.ExerciseFilter) ([]db.Exercise, error)
}

// RoutineEditorState 是计划编辑页的快照
type RoutineEditorState struct {
	Routine   *db.Routine                     `json:"routine"`
	Form      service.RoutineInput            `json:"form"`
	Exercises []service.RoutineExerciseDetail `json:"exercises"`
	Available []db.Exercise                   `json:"available_exercises"`
	Result    outcome.Outcome[uint]           `json:"result"`

	catalog []db.Exercise
}

// RoutineEditorIntent 是计划编辑页可处理的意图
type RoutineEditorIntent interface {
	routineEditorIntent()
}

type (
	// LoadRoutine 加载已有计划；ID 为 0 时只加载动作目录，进入新建模式
	LoadRoutine struct{ ID uint }
	// EditRoutine 替换表单内容
	EditRoutine struct{ Form service.RoutineInput }
	// SaveRoutine 新建或更新计划
	SaveRoutine struct{}
	// AddRoutineExercise 向计划追加动作
	AddRoutineExercise struct {
		Input service.RoutineExerciseInput
	}
	// RemoveRoutineExercise 移除计划中的动作
	RemoveRoutineExercise struct{ ID uint }
	// ReorderRoutineExercises 按给定顺序重排计划中的动作
	ReorderRoutineExercises struct{ IDs []uint }
)

func (LoadRoutine) routineEditorIntent()             {}
func (EditRoutine) routineEditorIntent()             {}
func (SaveRoutine) routineEditorIntent()             {}
func (AddRoutineExercise) routineEditorIntent()      {}
func (RemoveRoutineExercise) routineEditorIntent()   {}
func (ReorderRoutineExercises) routineEditorIntent() {}

// RoutineEditor 是计划编辑页的状态持有者，绑定单个用户
type RoutineEditor struct {
	mu       sync.Mutex
	userID   uint
	routines RoutineGateway
	catalog  CatalogGateway
	state    RoutineEditorState
}

// NewRoutineEditor 构造计划编辑页状态持有者
func NewRoutineEditor(userID uint, routines RoutineGateway, catalog CatalogGateway) *RoutineEditor {
	return &RoutineEditor{userID: userID, routines: routines, catalog: catalog}
}

// State 返回当前快照
func (e *RoutineEditor) State() RoutineEditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Dispatch 处理一个意图并返回新的快照
func (e *RoutineEditor) Dispatch(ctx context.Context, intent RoutineEditorIntent) RoutineEditorState {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch in := intent.(type) {
	case LoadRoutine:
		e.load(ctx, in.ID)
	case EditRoutine:
		e.state.Form = in.Form
		e.state.Result = outcome.Outcome[uint]{}
	case SaveRoutine:
		e.save(ctx)
	case AddRoutineExercise:
		e.addExercise(ctx, in.Input)
	case RemoveRoutineExercise:
		e.removeExercise(ctx, in.ID)
	case ReorderRoutineExercises:
		e.reorder(ctx, in.IDs)
	}
	return e.state
}

type routineSnapshot struct {
	routine   *db.Routine
	exercises []service.RoutineExerciseDetail
	catalog   []db.Exercise
}

func (e *RoutineEditor) load(ctx context.Context, id uint) {
	result := outcome.Do(ctx, msgRoutineLoadFailed, func(ctx context.Context) (routineSnapshot, error) {
		var snap routineSnapshot
		catalog, err := e.catalog.List(ctx, repository.ExerciseFilter{})
		if err != nil {
			return snap, err
		}
		snap.catalog = catalog
		if id == 0 {
			return snap, nil
		}

		if snap.routine, err = e.routines.Get(ctx, e.userID, id); err != nil {
			return snap, err
		}
		snap.exercises, err = e.routines.Exercises(ctx, e.userID, id)
		return snap, err
	})
	if result.IsError() {
		e.state.Result = outcome.Failure[uint](result.Err, msgRoutineLoadFailed)
		return
	}

	snap := result.Value
	e.state = RoutineEditorState{
		Routine:   snap.routine,
		Exercises: snap.exercises,
		catalog:   snap.catalog,
	}
	if snap.routine != nil {
		e.state.Form = formFromRoutine(*snap.routine)
		e.state.Result = outcome.Success(snap.routine.ID)
	}
	e.refreshAvailable()
}

func (e *RoutineEditor) save(ctx context.Context) {
	form := e.state.Form
	if err := service.ValidateRoutine(form); err != nil {
		e.state.Result = outcome.Failure[uint](err, msgRoutineSaveFailed)
		return
	}

	existing := e.state.Routine
	result := outcome.Do(ctx, msgRoutineSaveFailed, func(ctx context.Context) (*db.Routine, error) {
		if existing == nil {
			return e.routines.Create(ctx, e.userID, form)
		}
		return e.routines.Update(ctx, e.userID, existing.ID, form)
	})
	if result.IsError() {
		e.state.Result = outcome.Failure[uint](result.Err, msgRoutineSaveFailed)
		return
	}
	e.state.Routine = result.Value
	e.state.Result = outcome.Success(result.Value.ID)
}

func (e *RoutineEditor) addExercise(ctx context.Context, input service.RoutineExerciseInput) {
	if e.state.Routine == nil {
		e.state.Result = outcome.Failure[uint](apperr.Invalid("routine_id", msgRoutineNotSaved), msgRoutineAddFailed)
		return
	}
	input.RoutineID = e.state.Routine.ID
	if err := service.ValidateRoutineExercise(input); err != nil {
		e.state.Result = outcome.Failure[uint](err, msgRoutineAddFailed)
		return
	}

	routineID := input.RoutineID
	result := outcome.Do(ctx, msgRoutineAddFailed, func(ctx context.Context) ([]service.RoutineExerciseDetail, error) {
		if _, err := e.routines.AddExercise(ctx, e.userID, input); err != nil {
			return nil, err
		}
		return e.routines.Exercises(ctx, e.userID, routineID)
	})
	e.applyExercises(result, msgRoutineAddFailed)
}

func (e *RoutineEditor) removeExercise(ctx context.Context, id uint) {
	if e.state.Routine == nil {
		e.state.Result = outcome.Failure[uint](apperr.Invalid("routine_id", msgRoutineNotSaved), msgRoutineRemoveFailed)
		return
	}

	routineID := e.state.Routine.ID
	result := outcome.Do(ctx, msgRoutineRemoveFailed, func(ctx context.Context) ([]service.RoutineExerciseDetail, error) {
		if err := e.routines.RemoveExercise(ctx, e.userID, routineID, id); err != nil {
			return nil, err
		}
		return e.routines.Exercises(ctx, e.userID, routineID)
	})
	e.applyExercises(result, msgRoutineRemoveFailed)
}

func (e *RoutineEditor) reorder(ctx context.Context, ids []uint) {
	if e.state.Routine == nil {
		e.state.Result = outcome.Failure[uint](apperr.Invalid("routine_id", msgRoutineNotSaved), msgRoutineOrderFailed)
		return
	}

	routineID := e.state.Routine.ID
	result := outcome.Do(ctx, msgRoutineOrderFailed, func(ctx context.Context) ([]service.RoutineExerciseDetail, error) {
		if _, err := e.routines.Reorder(ctx, e.userID, routineID, ids); err != nil {
			return nil, err
		}
		return e.routines.Exercises(ctx, e.userID, routineID)
	})
	e.applyExercises(result, msgRoutineOrderFailed)
}

func (e *RoutineEditor) applyExercises(result outcome.Outcome[[]service.RoutineExerciseDetail], fallback string) {
	if result.IsError() {
		e.state.Result = outcome.Failure[uint](result.Err, fallback)
		return
	}
	e.state.Exercises = result.Value
	e.state.Result = outcome.Success(e.state.Routine.ID)
	e.refreshAvailable()
}

func (e *RoutineEditor) refreshAvailable() {
	e.state.Available = AvailableExercises(e.state.catalog, e.state.Exercises)
}

// AvailableExercises 返回目录中尚未加入计划的动作，保持目录顺序
func AvailableExercises(catalog []db.Exercise, used []service.RoutineExerciseDetail) []db.Exercise {
	ids := make([]uint, 0, len(used))
	for _, item := range used {
		ids = append(ids, item.ExerciseID)
	}
	return service.ExcludeExercises(catalog, ids)
}

func formFromRoutine(routine db.Routine) service.RoutineInput {
	active := routine.IsActive
	return service.RoutineInput{
		Name:              routine.Name,
		Description:       routine.Description,
		EstimatedDuration: routine.EstimatedDuration,
		Difficulty:        routine.Difficulty,
		TargetMuscles:     routine.TargetMuscles,
		IsActive:          &active,
	}
}
