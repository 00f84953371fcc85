package composite

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// DefaultThreshold 二值化默认阈值，置信度 >= 阈值即为前景
const DefaultThreshold uint8 = 128

// ThresholdMode 决定掩码置信度如何变成 alpha
type ThresholdMode struct {
	direct    bool
	threshold uint8
}

// Binary 置信度 >= threshold 时 alpha 为 255，否则为 0
func Binary(threshold uint8) ThresholdMode {
	return ThresholdMode{threshold: threshold}
}

// Direct alpha 直接等于置信度，保留柔和边缘
func Direct() ThresholdMode {
	return ThresholdMode{direct: true}
}

// DefaultMode Binary(DefaultThreshold)
func DefaultMode() ThresholdMode {
	return Binary(DefaultThreshold)
}

// ParseThresholdMode 解析 "binary" / "direct"，空字符串按 binary 处理
func ParseThresholdMode(mode string, threshold int) (ThresholdMode, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "binary":
		if threshold < 0 || threshold > 255 {
			return ThresholdMode{}, fmt.Errorf("composite: threshold %d out of range [0,255]", threshold)
		}
		return Binary(uint8(threshold)), nil
	case "direct":
		return Direct(), nil
	default:
		return ThresholdMode{}, fmt.Errorf("composite: unknown threshold mode %q", mode)
	}
}

func (m ThresholdMode) IsDirect() bool { return m.direct }

func (m ThresholdMode) Threshold() uint8 { return m.threshold }

func (m ThresholdMode) String() string {
	if m.direct {
		return "direct"
	}
	return fmt.Sprintf("binary(%d)", m.threshold)
}

func (m ThresholdMode) apply(c uint8) uint8 {
	if m.direct {
		return c
	}
	if c >= m.threshold {
		return 0xff
	}
	return 0
}

// DeriveAlpha 读取掩码每个像素的红色通道作为 0-255 置信度，按 mode 生成 alpha 通道
func DeriveAlpha(mask image.Image, mode ThresholdMode) (*image.Alpha, error) {
	if mask == nil {
		return nil, fmt.Errorf("%w: nil mask", ErrInvalidDimensions)
	}
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: mask %dx%d", ErrInvalidDimensions, w, h)
	}

	out := image.NewAlpha(image.Rect(0, 0, w, h))
	switch m := mask.(type) {
	case *image.Gray:
		for y := 0; y < h; y++ {
			src := m.Pix[m.PixOffset(b.Min.X, b.Min.Y+y):]
			dst := out.Pix[y*out.Stride:]
			for x := 0; x < w; x++ {
				dst[x] = mode.apply(src[x])
			}
		}
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			src := m.Pix[m.PixOffset(b.Min.X, b.Min.Y+y):]
			dst := out.Pix[y*out.Stride:]
			for x := 0; x < w; x++ {
				dst[x] = mode.apply(src[x*4])
			}
		}
	default:
		// 其余类型先转成非预乘颜色再取红色通道
		for y := 0; y < h; y++ {
			dst := out.Pix[y*out.Stride:]
			for x := 0; x < w; x++ {
				c := color.NRGBAModel.Convert(mask.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				dst[x] = mode.apply(c.R)
			}
		}
	}
	return out, nil
}

// ApplyAlpha 复制 source 的 RGB，并用 alpha 替换透明通道。尺寸必须完全一致，不做缩放。
func ApplyAlpha(source image.Image, alpha *image.Alpha) (*image.NRGBA, error) {
	src, err := ToRaster(source)
	if err != nil {
		return nil, err
	}
	if alpha == nil {
		return nil, fmt.Errorf("%w: nil alpha", ErrInvalidDimensions)
	}
	if !sameSize(src.Rect, alpha.Rect) {
		return nil, fmt.Errorf("%w: source %dx%d, mask %dx%d", ErrDimensionMismatch,
			src.Rect.Dx(), src.Rect.Dy(), alpha.Rect.Dx(), alpha.Rect.Dy())
	}

	out := cloneRaster(src)
	w, h := out.Rect.Dx(), out.Rect.Dy()
	for y := 0; y < h; y++ {
		a := alpha.Pix[alpha.PixOffset(alpha.Rect.Min.X, alpha.Rect.Min.Y+y):]
		row := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			row[x*4+3] = a[x]
		}
	}
	return out, nil
}
