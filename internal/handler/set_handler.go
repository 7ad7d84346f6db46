package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gymtrack/internal/service"
)

// ListSets 返回某个训练动作下的全部组记录
func (a *API) ListSets(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	sets, err := a.workouts.ListSets(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err, "获取组记录失败")
		return
	}
	respondSuccess(c, http.StatusOK, sets)
}

// UpdateSet 修正已记录的一组
func (a *API) UpdateSet(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var input service.SetInput
	if !bindJSON(c, &input) {
		return
	}

	set, err := a.workouts.UpdateSet(c.Request.Context(), currentUserID(c), id, input)
	if err != nil {
		respondError(c, err, "更新组记录失败")
		return
	}
	respondSuccess(c, http.StatusOK, set)
}

// DeleteSet 删除一组记录
func (a *API) DeleteSet(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := a.workouts.DeleteSet(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err, "删除组记录失败")
		return
	}
	c.Status(http.StatusNoContent)
}
