package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tonylow1993/idphoto/composite"
	"github.com/tonylow1993/idphoto/model"
	"github.com/tonylow1993/idphoto/service"
	"github.com/tonylow1993/idphoto/utils"
)

// statusClientClosedRequest 客户端在响应前断开
const statusClientClosedRequest = 499

func errorStatus(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, composite.ErrInvalidDimensions),
		errors.Is(err, composite.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrMalformedSegmentation),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrUnsupportedType),
		errors.Is(err, service.ErrOutputTooLarge),
		errors.Is(err, composite.ErrUnknownFormat),
		errors.Is(err, composite.ErrInvalidColor):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError 按错误类型返回对应状态码，5xx 记录错误日志
func abortWithError(c *gin.Context, message string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		utils.Logger.Error(message, zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, model.ErrorResponse{
		Success: false,
		Message: message,
		Error:   err.Error(),
	})
}
