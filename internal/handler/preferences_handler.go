package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gymtrack/internal/service"
)

// GetPreferences 返回当前用户的偏好，未保存过时返回默认值
func (a *API) GetPreferences(c *gin.Context) {
	prefs, err := a.preferences.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err, "获取偏好设置失败")
		return
	}
	respondSuccess(c, http.StatusOK, prefs)
}

// UpdatePreferences 合并更新当前用户的偏好
func (a *API) UpdatePreferences(c *gin.Context) {
	var input service.PreferencesInput
	if !bindJSON(c, &input) {
		return
	}

	prefs, err := a.preferences.Update(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		respondError(c, err, "保存偏好设置失败")
		return
	}
	respondSuccess(c, http.StatusOK, prefs)
}
