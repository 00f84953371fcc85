package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tonylow1993/idphoto/composite"
	"github.com/tonylow1993/idphoto/service"
)

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"尺寸不匹配", fmt.Errorf("%w: document 10x10, source 20x10", composite.ErrDimensionMismatch), http.StatusUnprocessableEntity},
		{"会话不存在", service.ErrNotFound, http.StatusNotFound},
		{"分割结果格式错误", fmt.Errorf("%w: mask 5x5, source 10x10", service.ErrMalformedSegmentation), http.StatusBadRequest},
		{"队列已满", service.ErrQueueFull, http.StatusServiceUnavailable},
		{"客户端断开", fmt.Errorf("compose: %w", context.Canceled), statusClientClosedRequest},
		{"调用方超时", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"未知错误", errors.New("redis: connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}
