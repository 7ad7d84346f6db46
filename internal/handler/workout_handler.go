package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/service"
)

const (
	dateFormat          = "2006-01-02"
	defaultHistoryLimit = 50
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ListWorkouts 返回训练历史，支持 status 与 limit
func (a *API) ListWorkouts(c *gin.Context) {
	workouts, err := a.workouts.History(c.Request.Context(), currentUserID(c),
		strings.ToUpper(strings.TrimSpace(c.Query("status"))), queryInt(c, "limit", defaultHistoryLimit))
	if err != nil {
		respondError(c, err, "获取训练历史失败")
		return
	}
	respondSuccess(c, http.StatusOK, workouts)
}

// CreateWorkout 新建一次训练，默认状态为 NOT_STARTED
func (a *API) CreateWorkout(c *gin.Context) {
	var input service.WorkoutInput
	if !bindJSON(c, &input) {
		return
	}

	workout, err := a.workouts.Create(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		respondError(c, err, "创建训练失败")
		return
	}
	respondSuccess(c, http.StatusCreated, workout)
}

// GetActiveWorkout 返回进行中或暂停的训练，没有时 data 为 null
func (a *API) GetActiveWorkout(c *gin.Context) {
	workout, err := a.workouts.GetActive(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err, "获取进行中的训练失败")
		return
	}
	if workout == nil {
		respondSuccess(c, http.StatusOK, nil)
		return
	}
	respondSuccess(c, http.StatusOK, workout)
}

// GetWorkout 返回训练及其动作
func (a *API) GetWorkout(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	workout, err := a.workouts.Get(ctx, currentUserID(c), id)
	if err != nil {
		respondError(c, err, "获取训练失败")
		return
	}
	exercises, err := a.workouts.Exercises(ctx, currentUserID(c), id)
	if err != nil {
		respondError(c, err, "获取训练动作失败")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"workout": workout, "exercises": exercises})
}

// AddWorkoutExercise 向尚未结束的训练追加动作
func (a *API) AddWorkoutExercise(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var input service.WorkoutExerciseInput
	if !bindJSON(c, &input) {
		return
	}

	entry, err := a.workouts.AddExercise(c.Request.Context(), currentUserID(c), id, input)
	if err != nil {
		respondError(c, err, "添加训练动作失败")
		return
	}
	// 内存中的会话需要重新加载动作列表
	a.sessions.Close(id)
	respondSuccess(c, http.StatusCreated, entry)
}

// DeleteWorkout 删除训练及其动作与组记录
func (a *API) DeleteWorkout(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := a.workouts.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err, "删除训练失败")
		return
	}
	a.sessions.Close(id)
	c.Status(http.StatusNoContent)
}

// WorkoutStats 返回当前用户的训练统计
func (a *API) WorkoutStats(c *gin.Context) {
	stats, err := a.workouts.Stats(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err, "获取训练统计失败")
		return
	}
	respondSuccess(c, http.StatusOK, stats)
}

// ExportWorkouts 导出训练历史为 xlsx，from/to 为可选的日期（YYYY-MM-DD，含当天）
func (a *API) ExportWorkouts(c *gin.Context) {
	from, err := parseDateQuery(c, "from")
	if err != nil {
		respondError(c, err, msgBadRequest)
		return
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		respondError(c, err, msgBadRequest)
		return
	}
	switch {
	case from.IsZero() && to.IsZero():
	case to.IsZero():
		to = time.Now().UTC()
	case from.IsZero():
		from = time.Unix(0, 0).UTC()
		fallthrough
	default:
		to = to.Add(24*time.Hour - time.Second)
	}

	f, err := a.exports.ExportHistory(c.Request.Context(), currentUserID(c), from, to)
	if err != nil {
		respondError(c, err, "导出训练历史失败")
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("workouts-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		requestLogger(c).WithError(err).Error("write workout export")
	}
}

func parseDateQuery(c *gin.Context, key string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.ParseInLocation(dateFormat, raw, time.UTC)
	if err != nil {
		return time.Time{}, apperr.Invalid(key, "日期格式应为 YYYY-MM-DD")
	}
	return parsed, nil
}
