package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gymtrack/internal/screen"
	"github.com/gymtrack/internal/service"
)

const defaultPopularLimit = 10

// ListMuscleGroups 返回全部肌群
func (a *API) ListMuscleGroups(c *gin.Context) {
	groups, err := a.exercises.ListMuscleGroups(c.Request.Context())
	if err != nil {
		respondError(c, err, "获取肌群列表失败")
		return
	}
	respondSuccess(c, http.StatusOK, groups)
}

// ListMuscleGroupExercises 返回某个肌群下的动作
func (a *API) ListMuscleGroupExercises(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	exercises, err := a.exercises.ListByMuscleGroup(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "获取动作列表失败")
		return
	}
	respondSuccess(c, http.StatusOK, exercises)
}

// ListExercises 返回动作目录。
// muscle_group 可重复或以逗号分隔，表示肌群集合；search 按名称与描述过滤。
func (a *API) ListExercises(c *gin.Context) {
	ctx := c.Request.Context()
	catalog := screen.NewExerciseCatalog(a.exercises)

	state := catalog.Dispatch(ctx, screen.LoadCatalog{})
	if state.Result.IsError() {
		respondOutcome(c, http.StatusOK, state.Result, nil)
		return
	}
	for _, id := range parseUintQuerySlice(c.QueryArray("muscle_group")) {
		state = catalog.Dispatch(ctx, screen.ToggleMuscleGroup{ID: id})
	}
	if search := c.Query("search"); search != "" {
		state = catalog.Dispatch(ctx, screen.SearchCatalog{Query: search})
	}

	respondOutcome(c, http.StatusOK, state.Result, state)
}

// PopularExercises 返回热度最高的动作
func (a *API) PopularExercises(c *gin.Context) {
	exercises, err := a.exercises.Popular(c.Request.Context(), queryInt(c, "limit", defaultPopularLimit))
	if err != nil {
		respondError(c, err, "获取热门动作失败")
		return
	}
	respondSuccess(c, http.StatusOK, exercises)
}

// GetExercise 返回动作详情，包括渲染后的要领
func (a *API) GetExercise(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	detail, err := a.exercises.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "获取动作失败")
		return
	}
	respondSuccess(c, http.StatusOK, detail)
}

// CreateExercise 新建自定义动作
func (a *API) CreateExercise(c *gin.Context) {
	var input service.ExerciseInput
	if !bindJSON(c, &input) {
		return
	}

	exercise, err := a.exercises.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "创建动作失败")
		return
	}
	respondSuccess(c, http.StatusCreated, exercise)
}

// UpdateExercise 更新自定义动作
func (a *API) UpdateExercise(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var input service.ExerciseInput
	if !bindJSON(c, &input) {
		return
	}

	exercise, err := a.exercises.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err, "更新动作失败")
		return
	}
	respondSuccess(c, http.StatusOK, exercise)
}

// DeleteExercise 删除自定义动作
func (a *API) DeleteExercise(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := a.exercises.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "删除动作失败")
		return
	}
	c.Status(http.StatusNoContent)
}
