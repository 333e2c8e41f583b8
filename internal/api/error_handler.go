package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hrdesk/hri-gin/internal/workflow"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 错误处理中间件
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			} else {
				Error(c, http.StatusInternalServerError, "internal server error", err.Error())
			}
		}
	}
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}

// RespondEngineError 将流程引擎错误映射为 HTTP 响应
// 冲突响应附带申请单当前状态, 便于客户端刷新本地视图
func RespondEngineError(c *gin.Context, err error) {
	var notFound *workflow.NotFoundError
	if errors.As(err, &notFound) {
		Error(c, http.StatusNotFound, "resource not found", notFound.Error())
		return
	}

	var conflict *workflow.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"code":           http.StatusConflict,
			"message":        conflict.Message,
			"current_status": conflict.CurrentStatus,
		})
		return
	}

	var forbidden *workflow.ForbiddenError
	if errors.As(err, &forbidden) {
		Error(c, http.StatusForbidden, "operation not allowed", forbidden.Error())
		return
	}

	var resolution *workflow.ResolutionError
	if errors.As(err, &resolution) {
		Error(c, http.StatusUnprocessableEntity, "failed to resolve step actor", resolution.Error())
		return
	}

	var configuration *workflow.ConfigurationError
	if errors.As(err, &configuration) {
		Error(c, http.StatusInternalServerError, "workflow configuration error", configuration.Error())
		return
	}

	Error(c, http.StatusInternalServerError, "internal server error", err.Error())
}
