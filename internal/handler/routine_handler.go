package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/repository"
	"github.com/gymtrack/internal/screen"
	"github.com/gymtrack/internal/service"
)

type activePayload struct {
	IsActive bool `json:"is_active"`
}

type reorderPayload struct {
	IDs []uint `json:"ids"`
}

// ListRoutines 返回当前用户的训练计划。
// active=true 时只返回启用的计划；difficulty 按难度筛选；min_duration/max_duration 按预计时长筛选。
func (a *API) ListRoutines(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	var (
		routines []db.Routine
		err      error
	)
	switch {
	case c.Query("difficulty") != "":
		routines, err = a.routines.ListByDifficulty(ctx, userID, c.Query("difficulty"))
	case c.Query("min_duration") != "" || c.Query("max_duration") != "":
		routines, err = a.routines.ListByDuration(ctx, userID, queryInt(c, "min_duration", 0), queryInt(c, "max_duration", 0))
	default:
		onlyActive, _ := strconv.ParseBool(c.Query("active"))
		routines, err = a.routines.List(ctx, userID, onlyActive)
	}
	if err != nil {
		respondError(c, err, "获取训练计划失败")
		return
	}
	respondSuccess(c, http.StatusOK, routines)
}

// CreateRoutine 通过计划编辑页 reducer 新建计划，校验失败时不访问存储层
func (a *API) CreateRoutine(c *gin.Context) {
	var input service.RoutineInput
	if !bindJSON(c, &input) {
		return
	}

	editor := screen.NewRoutineEditor(currentUserID(c), a.routines, a.exercises)
	editor.Dispatch(c.Request.Context(), screen.EditRoutine{Form: input})
	state := editor.Dispatch(c.Request.Context(), screen.SaveRoutine{})
	respondOutcome(c, http.StatusCreated, state.Result, state.Routine)
}

// GetRoutine 返回计划编辑页快照：计划、计划中的动作与可添加的动作
func (a *API) GetRoutine(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	editor := screen.NewRoutineEditor(currentUserID(c), a.routines, a.exercises)
	state := editor.Dispatch(c.Request.Context(), screen.LoadRoutine{ID: id})
	respondOutcome(c, http.StatusOK, state.Result, state)
}

// UpdateRoutine 更新计划
func (a *API) UpdateRoutine(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var input service.RoutineInput
	if !bindJSON(c, &input) {
		return
	}

	routine, err := a.routines.Update(c.Request.Context(), currentUserID(c), id, input)
	if err != nil {
		respondError(c, err, "更新训练计划失败")
		return
	}
	respondSuccess(c, http.StatusOK, routine)
}

// SetRoutineActive 启用或停用计划
func (a *API) SetRoutineActive(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var payload activePayload
	if !bindJSON(c, &payload) {
		return
	}

	routine, err := a.routines.SetActive(c.Request.Context(), currentUserID(c), id, payload.IsActive)
	if err != nil {
		respondError(c, err, "更新训练计划失败")
		return
	}
	respondSuccess(c, http.StatusOK, routine)
}

// DeleteRoutine 删除计划及其动作
func (a *API) DeleteRoutine(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := a.routines.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err, "删除训练计划失败")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListRoutineExercises 按顺序返回计划中的动作
func (a *API) ListRoutineExercises(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	items, err := a.routines.Exercises(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err, "获取计划动作失败")
		return
	}
	respondSuccess(c, http.StatusOK, items)
}

// AvailableExercises 返回尚未加入计划的动作，支持 muscle_group 与 search 过滤
func (a *API) AvailableExercises(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	filter := repository.ExerciseFilter{
		MuscleGroupIDs: parseUintQuerySlice(c.QueryArray("muscle_group")),
		Difficulty:     c.Query("difficulty"),
		Search:         c.Query("search"),
	}
	exercises, err := a.routines.AvailableExercises(c.Request.Context(), currentUserID(c), id, filter)
	if err != nil {
		respondError(c, err, "获取可选动作失败")
		return
	}
	respondSuccess(c, http.StatusOK, exercises)
}

// AddRoutineExercise 把动作追加到计划末尾
func (a *API) AddRoutineExercise(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var input service.RoutineExerciseInput
	if !bindJSON(c, &input) {
		return
	}

	editor := screen.NewRoutineEditor(currentUserID(c), a.routines, a.exercises)
	if state := editor.Dispatch(c.Request.Context(), screen.LoadRoutine{ID: id}); state.Result.IsError() {
		respondOutcome(c, http.StatusOK, state.Result, nil)
		return
	}
	state := editor.Dispatch(c.Request.Context(), screen.AddRoutineExercise{Input: input})
	respondOutcome(c, http.StatusCreated, state.Result, state)
}

// UpdateRoutineExercise 修改计划中某个动作的组数、次数等
func (a *API) UpdateRoutineExercise(c *gin.Context) {
	routineID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseUintParam(c, "itemID")
	if !ok {
		return
	}
	var input service.RoutineExerciseInput
	if !bindJSON(c, &input) {
		return
	}
	input.RoutineID = routineID

	item, err := a.routines.UpdateExercise(c.Request.Context(), currentUserID(c), itemID, input)
	if err != nil {
		respondError(c, err, "更新计划动作失败")
		return
	}
	respondSuccess(c, http.StatusOK, item)
}

// RemoveRoutineExercise 移除计划中的动作，剩余动作顺序重新编号
func (a *API) RemoveRoutineExercise(c *gin.Context) {
	routineID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseUintParam(c, "itemID")
	if !ok {
		return
	}

	if err := a.routines.RemoveExercise(c.Request.Context(), currentUserID(c), routineID, itemID); err != nil {
		respondError(c, err, "移除计划动作失败")
		return
	}
	c.Status(http.StatusNoContent)
}

// ReorderRoutineExercises 按给定的 ID 顺序重排计划中的动作
func (a *API) ReorderRoutineExercises(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var payload reorderPayload
	if !bindJSON(c, &payload) {
		return
	}

	items, err := a.routines.Reorder(c.Request.Context(), currentUserID(c), id, payload.IDs)
	if err != nil {
		respondError(c, err, "调整动作顺序失败")
		return
	}
	respondSuccess(c, http.StatusOK, items)
}

// StartWorkoutFromRoutine 以计划为模板开始一次训练
func (a *API) StartWorkoutFromRoutine(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	workout, err := a.workouts.StartFromRoutine(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err, "开始训练失败")
		return
	}

	snap, err := a.sessions.Open(c.Request.Context(), currentUserID(c), workout.ID)
	if err != nil {
		respondError(c, err, "加载训练会话失败")
		return
	}
	respondSuccess(c, http.StatusCreated, snap)
}
