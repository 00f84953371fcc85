package service

import "errors"

var (
	ErrNotFound              = errors.New("service: not found")
	ErrMalformedSegmentation = errors.New("service: malformed segmentation")
	ErrSegmentationDisabled  = errors.New("service: segmentation disabled")
	ErrUnsupportedType       = errors.New("service: unsupported image type")
	ErrQueueFull             = errors.New("service: compose queue full")
	ErrOutputTooLarge        = errors.New("service: output too large")
)

// ErrInvalidRequest 请求参数无法解析
var ErrInvalidRequest = errors.New("service: invalid request")
