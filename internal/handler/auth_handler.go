package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gymtrack/internal/screen"
	"github.com/gymtrack/internal/service"
)

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register 处理注册请求，成功后直接登录
func (a *API) Register(c *gin.Context) {
	var form service.RegistrationInput
	if !bindJSON(c, &form) {
		return
	}

	registration := screen.NewRegistration(a.users)
	registration.Dispatch(c.Request.Context(), screen.EditRegistration{Form: form})
	state := registration.Dispatch(c.Request.Context(), screen.SubmitRegistration{})
	if state.Result.IsError() {
		respondOutcome(c, http.StatusBadRequest, state.Result, nil)
		return
	}

	user, err := a.users.Get(c.Request.Context(), state.Result.Value)
	if err != nil {
		respondError(c, err, "注册失败，请稍后重试")
		return
	}
	if !saveLogin(c, user.ID) {
		return
	}
	respondSuccess(c, http.StatusCreated, user)
}

// Login 校验邮箱与密码并写入会话
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if !bindJSON(c, &payload) {
		return
	}

	user, err := a.users.Authenticate(c.Request.Context(), payload.Email, payload.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}
	if err != nil {
		respondError(c, err, "登录失败，请稍后重试")
		return
	}

	if !saveLogin(c, user.ID) {
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, err, "会话保存失败")
		return
	}
	respondSuccess(c, http.StatusOK, nil)
}

// Me 返回当前登录用户
func (a *API) Me(c *gin.Context) {
	user, err := a.users.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err, "获取用户信息失败")
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// UpdateMe 更新当前用户的个人资料
func (a *API) UpdateMe(c *gin.Context) {
	var input service.ProfileInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := a.users.UpdateProfile(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		respondError(c, err, "更新个人资料失败")
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// DeleteMe 注销当前账号并清除会话
func (a *API) DeleteMe(c *gin.Context) {
	if err := a.users.Delete(c.Request.Context(), currentUserID(c)); err != nil {
		respondError(c, err, "注销账号失败")
		return
	}

	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Status(http.StatusNoContent)
}

func saveLogin(c *gin.Context, userID uint) bool {
	session := sessions.Default(c)
	session.Set(sessionUserKey, userID)
	if err := session.Save(); err != nil {
		respondError(c, err, "会话保存失败")
		return false
	}
	return true
}
