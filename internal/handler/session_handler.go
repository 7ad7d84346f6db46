package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/session"
)

type sessionAction func(ctx context.Context, userID, workoutID uint) (session.Snapshot, error)

type exerciseAction func(ctx context.Context, userID, workoutID uint, index int) (session.Snapshot, error)

// GetSession 返回训练会话快照
func (a *API) GetSession(c *gin.Context) {
	a.runSession(c, a.sessions.Open, "加载训练会话失败")
}

// StartWorkout NOT_STARTED → IN_PROGRESS
func (a *API) StartWorkout(c *gin.Context) {
	a.runSession(c, a.sessions.Start, "开始训练失败")
}

// PauseWorkout IN_PROGRESS → PAUSED
func (a *API) PauseWorkout(c *gin.Context) {
	a.runSession(c, a.sessions.Pause, "暂停训练失败")
}

// ResumeWorkout PAUSED → IN_PROGRESS
func (a *API) ResumeWorkout(c *gin.Context) {
	a.runSession(c, a.sessions.Resume, "继续训练失败")
}

// FinishWorkout 结束训练并记录总时长
func (a *API) FinishWorkout(c *gin.Context) {
	a.runSession(c, a.sessions.Finish, "结束训练失败")
}

// CancelWorkout 取消训练
func (a *API) CancelWorkout(c *gin.Context) {
	a.runSession(c, a.sessions.Cancel, "取消训练失败")
}

// NextExercise 选中下一个动作
func (a *API) NextExercise(c *gin.Context) {
	a.runSession(c, a.sessions.Next, "切换动作失败")
}

// PreviousExercise 选中上一个动作
func (a *API) PreviousExercise(c *gin.Context) {
	a.runSession(c, a.sessions.Previous, "切换动作失败")
}

// SelectExercise 选中指定序号的动作
func (a *API) SelectExercise(c *gin.Context) {
	a.runExercise(c, a.sessions.Select, "切换动作失败")
}

// StartWorkoutExercise PENDING → IN_PROGRESS
func (a *API) StartWorkoutExercise(c *gin.Context) {
	a.runExercise(c, a.sessions.StartExercise, "开始动作失败")
}

// CompleteWorkoutExercise IN_PROGRESS → COMPLETED
func (a *API) CompleteWorkoutExercise(c *gin.Context) {
	a.runExercise(c, a.sessions.CompleteExercise, "完成动作失败")
}

// SkipWorkoutExercise 跳过动作
func (a *API) SkipWorkoutExercise(c *gin.Context) {
	a.runExercise(c, a.sessions.SkipExercise, "跳过动作失败")
}

// CompleteSet 完成一组；请求体可选，包含本组的次数、重量、休息与难度评分
func (a *API) CompleteSet(c *gin.Context) {
	var log *session.SetLog
	if c.Request.ContentLength != 0 {
		var payload session.SetLog
		switch err := c.ShouldBindJSON(&payload); {
		case err == nil:
			log = &payload
		case errors.Is(err, io.EOF):
		default:
			respondError(c, apperr.Invalid("body", msgBadRequest), msgBadRequest)
			return
		}
	}

	a.runExercise(c, func(ctx context.Context, userID, workoutID uint, index int) (session.Snapshot, error) {
		return a.sessions.CompleteSet(ctx, userID, workoutID, index, log)
	}, "记录本组失败")
}

func (a *API) runSession(c *gin.Context, action sessionAction, fallback string) {
	workoutID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	snap, err := action(c.Request.Context(), currentUserID(c), workoutID)
	if err != nil {
		respondError(c, err, fallback)
		return
	}
	respondSuccess(c, http.StatusOK, snap)
}

func (a *API) runExercise(c *gin.Context, action exerciseAction, fallback string) {
	workoutID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	index, ok := parseIndexParam(c)
	if !ok {
		return
	}

	snap, err := action(c.Request.Context(), currentUserID(c), workoutID, index)
	if err != nil {
		respondError(c, err, fallback)
		return
	}
	respondSuccess(c, http.StatusOK, snap)
}
