// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"silicon-chat-go/internal/model"
)

// fail 以统一的 {success:false, error:...} 信封返回错误。
func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// failErr 按错误类别映射 HTTP 状态码后返回。
func failErr(c *gin.Context, err error) {
	fail(c, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrUnknownModel):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrSessionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
