package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader  = "X-Request-ID"
	loggerContextKey = "__logger"
	userIDContextKey = "__user_id"
	sessionUserKey   = "user_id"
	msgLoginRequired = "请先登录"
)

// RequestLogger 为每个请求分配请求 ID，并在请求结束后输出一行访问日志
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		logger := logrus.WithField("request_id", requestID)
		c.Set(loggerContextKey, logger)

		begin := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(begin).String(),
		})
		if userID, ok := c.Get(userIDContextKey); ok {
			entry = entry.WithField("user_id", userID)
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}

// AuthRequired 要求已登录，并把当前用户 ID 放入上下文
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := sessionUserID(session.Get(sessionUserKey))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": msgLoginRequired,
			})
			return
		}
		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(userIDContextKey)
}

// sessionUserID 兼容 cookie 编码后数值类型的变化
func sessionUserID(value any) (uint, bool) {
	switch v := value.(type) {
	case uint:
		return v, v > 0
	case int:
		return uint(v), v > 0
	case int64:
		return uint(v), v > 0
	case uint64:
		return uint(v), v > 0
	default:
		return 0, false
	}
}
