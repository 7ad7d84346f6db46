package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/service"
)

// UploadExerciseImage 保存上传的动作配图并更新动作的图片地址
func (a *API) UploadExerciseImage(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxMediaBytes+1<<20)
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, apperr.Invalid("image", "未找到上传的图片"), msgBadRequest)
		return
	}
	if file.Size > service.MaxMediaBytes {
		respondError(c, apperr.Invalid("image", "图片不能超过 5MB"), msgBadRequest)
		return
	}

	if _, err := a.exercises.Get(c.Request.Context(), id); err != nil {
		respondError(c, err, "获取动作失败")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, err, "读取上传文件失败")
		return
	}
	defer src.Close()

	stored, err := a.media.SaveImage(io.LimitReader(src, service.MaxMediaBytes+1))
	if err != nil {
		respondError(c, err, "保存图片失败")
		return
	}

	exercise, err := a.exercises.SetImage(c.Request.Context(), id, stored.URL)
	if err != nil {
		respondError(c, err, "更新动作图片失败")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"media": stored, "exercise": exercise})
}
