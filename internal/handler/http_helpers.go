package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/outcome"
	"github.com/sirupsen/logrus"
)

const msgBadRequest = "请求格式不正确"

func respondSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

// respondError 按错误类别选择状态码；非校验类错误只向客户端展示 fallback 或冲突原因
func respondError(c *gin.Context, err error, fallback string) {
	kind := apperr.KindOf(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		requestLogger(c).WithError(err).Error(fallback)
	}

	body := gin.H{
		"status":  "error",
		"message": apperr.Message(err, fallback),
		"kind":    kind,
	}
	if kind == apperr.KindValidation {
		body["fields"] = apperr.Fields(err)
	}
	c.AbortWithStatusJSON(status, body)
}

// respondOutcome 把 reducer 的结果写回客户端
func respondOutcome[T any](c *gin.Context, status int, result outcome.Outcome[T], data any) {
	if result.IsError() {
		body := gin.H{
			"status":  "error",
			"message": result.Message,
			"kind":    result.Kind,
		}
		if len(result.Fields) > 0 {
			body["fields"] = result.Fields
		}
		if data != nil {
			body["data"] = data
		}
		c.AbortWithStatusJSON(statusForKind(result.Kind), body)
		return
	}
	respondSuccess(c, status, data)
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperr.Invalid("body", msgBadRequest), msgBadRequest)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(key), 10, 32)
	if err != nil || id == 0 {
		respondError(c, apperr.Invalid(key, "无效的 "+key), msgBadRequest)
		return 0, false
	}
	return uint(id), true
}

func parseIndexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, apperr.Invalid("index", "动作序号无效"), msgBadRequest)
		return 0, false
	}
	return index, true
}

func parseUintQuerySlice(values []string) []uint {
	ids := make([]uint, 0, len(values))
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			parsed, err := strconv.ParseUint(trimmed, 10, 32)
			if err != nil {
				continue
			}
			ids = append(ids, uint(parsed))
		}
	}
	return ids
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func requestLogger(c *gin.Context) logrus.FieldLogger {
	if value, ok := c.Get(loggerContextKey); ok {
		if logger, ok := value.(logrus.FieldLogger); ok {
			return logger
		}
	}
	return logrus.StandardLogger()
}
