package composite

import "fmt"

// Placement 前景在输出画布上的绘制矩形，允许亚像素坐标
type Placement struct {
	DrawW, DrawH float64
	X, Y         float64
}

// FitCentered 计算保持 srcW:srcH 宽高比、能放入 dstW×dstH 的最大矩形，并居中
func FitCentered(srcW, srcH, dstW, dstH int) (Placement, error) {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return Placement{}, fmt.Errorf("%w: fit %dx%d into %dx%d", ErrInvalidDimensions, srcW, srcH, dstW, dstH)
	}

	aspect := float64(srcW) / float64(srcH)
	p := Placement{DrawW: float64(dstW), DrawH: float64(dstH)}
	if float64(dstW)/float64(dstH) > aspect {
		// 画布比源图更宽，以高度为准
		p.DrawW = float64(dstH) * aspect
	} else {
		p.DrawH = float64(dstW) / aspect
	}
	p.X = (float64(dstW) - p.DrawW) / 2
	p.Y = (float64(dstH) - p.DrawH) / 2
	return p, nil
}
