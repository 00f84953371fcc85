package composite

import "errors"

var (
	// ErrInvalidDimensions 宽高为零或负数
	ErrInvalidDimensions = errors.New("composite: invalid dimensions")
	// ErrDimensionMismatch 掩码或多边形坐标空间与源图尺寸不一致
	ErrDimensionMismatch = errors.New("composite: dimension mismatch")
	// ErrUnsupportedFormatAlpha 带透明通道的栅格进入了不支持 alpha 的编码路径
	ErrUnsupportedFormatAlpha = errors.New("composite: format does not support alpha")
	// ErrUnknownFormat 无法识别的导出格式
	ErrUnknownFormat = errors.New("composite: unknown export format")
	// ErrInvalidColor 无法解析的背景颜色
	ErrInvalidColor = errors.New("composite: invalid color")
	// ErrUnknownForeground 不支持的前景描述
	ErrUnknownForeground = errors.New("composite: unknown foreground description")
)
