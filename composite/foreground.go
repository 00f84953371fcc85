package composite

import (
	"fmt"
	"image"
)

// Foreground 前景描述，只有 Cutout、GrayscaleMask、Polygons 三种实现
type Foreground interface {
	Kind() string
	isForeground()
}

// Cutout 已抠好的主体图像，alpha 已经有意义
type Cutout struct {
	Image image.Image
}

// GrayscaleMask 红色通道为前景置信度的掩码
type GrayscaleMask struct {
	Mask image.Image
	Mode ThresholdMode
}

// Polygons 前景轮廓，坐标位于 Width×Height 的源图坐标系
type Polygons struct {
	Groups []PolygonGroup
	Width  int
	Height int
}

const (
	KindCutout   = "cutout"
	KindMask     = "mask"
	KindPolygons = "polygons"
)

func (Cutout) Kind() string        { return KindCutout }
func (GrayscaleMask) Kind() string { return KindMask }
func (Polygons) Kind() string      { return KindPolygons }

func (Cutout) isForeground()        {}
func (GrayscaleMask) isForeground() {}
func (Polygons) isForeground()      {}

// ScaleTo 把多边形坐标换算到 width×height 的坐标系
func (p Polygons) ScaleTo(width, height int) (Polygons, error) {
	if p.Width <= 0 || p.Height <= 0 || width <= 0 || height <= 0 {
		return Polygons{}, fmt.Errorf("%w: scale %dx%d to %dx%d", ErrInvalidDimensions, p.Width, p.Height, width, height)
	}
	sx := float64(width) / float64(p.Width)
	sy := float64(height) / float64(p.Height)
	out := Polygons{Groups: make([]PolygonGroup, len(p.Groups)), Width: width, Height: height}
	for i, g := range p.Groups {
		out.Groups[i] = g.Scale(sx, sy)
	}
	return out, nil
}

// ResolveForeground 把任意前景描述统一成带 alpha 的前景栅格。
// Cutout 原样返回；GrayscaleMask 与 Polygons 以 source 的 RGB 加上推导出的 alpha。
func ResolveForeground(source image.Image, fg Foreground) (*image.NRGBA, error) {
	switch d := fg.(type) {
	case Cutout:
		return ToRaster(d.Image)
	case *Cutout:
		return ResolveForeground(source, *d)

	case GrayscaleMask:
		alpha, err := DeriveAlpha(d.Mask, d.Mode)
		if err != nil {
			return nil, err
		}
		return ApplyAlpha(source, alpha)
	case *GrayscaleMask:
		return ResolveForeground(source, *d)

	case Polygons:
		src, err := ToRaster(source)
		if err != nil {
			return nil, err
		}
		if src.Rect.Dx() != d.Width || src.Rect.Dy() != d.Height {
			return nil, fmt.Errorf("%w: source %dx%d, polygons %dx%d", ErrDimensionMismatch,
				src.Rect.Dx(), src.Rect.Dy(), d.Width, d.Height)
		}
		mask, err := RasterizePolygons(d.Groups, d.Width, d.Height)
		if err != nil {
			return nil, err
		}
		// 多边形掩码已经是硬边，任何非零覆盖都算前景
		alpha, err := DeriveAlpha(mask, Binary(1))
		if err != nil {
			return nil, err
		}
		return ApplyAlpha(src, alpha)
	case *Polygons:
		return ResolveForeground(source, *d)

	case nil:
		return nil, fmt.Errorf("%w: nil", ErrUnknownForeground)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownForeground, fg)
	}
}
