package composite

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// FormatKind 导出格式类别
type FormatKind int

const (
	FormatPNG FormatKind = iota
	FormatJPEG
	FormatWEBP
)

const (
	DefaultJPEGQuality = 90
	DefaultWEBPQuality = 80
	DefaultFilename    = "edited_photo"
)

// ExportFormat 导出格式，Quality 仅对 JPEG、WEBP 有意义
type ExportFormat struct {
	Kind    FormatKind
	Quality int
}

func PNG() ExportFormat { return ExportFormat{Kind: FormatPNG} }

func JPEG(quality int) ExportFormat {
	return ExportFormat{Kind: FormatJPEG, Quality: clampQuality(quality, DefaultJPEGQuality)}
}

func WEBP(quality int) ExportFormat {
	return ExportFormat{Kind: FormatWEBP, Quality: clampQuality(quality, DefaultWEBPQuality)}
}

func clampQuality(q, def int) int {
	switch {
	case q <= 0:
		return def
	case q > 100:
		return 100
	default:
		return q
	}
}

// ParseFormat 接受 png/jpg/jpeg/webp 及对应 MIME 类型，quality <= 0 使用默认值
func ParseFormat(name string, quality int) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "png", "image/png":
		return PNG(), nil
	case "jpg", "jpeg", "image/jpeg", "image/jpg":
		return JPEG(quality), nil
	case "webp", "image/webp":
		return WEBP(quality), nil
	default:
		return ExportFormat{}, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// SupportsAlpha PNG、WEBP 保留透明通道，JPEG 不支持
func (f ExportFormat) SupportsAlpha() bool {
	return f.Kind != FormatJPEG
}

func (f ExportFormat) Extension() string {
	switch f.Kind {
	case FormatJPEG:
		return ".jpg"
	case FormatWEBP:
		return ".webp"
	default:
		return ".png"
	}
}

func (f ExportFormat) MIMEType() string {
	switch f.Kind {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWEBP:
		return "image/webp"
	default:
		return "image/png"
	}
}

func (f ExportFormat) String() string {
	switch f.Kind {
	case FormatJPEG:
		return fmt.Sprintf("jpeg(%d)", f.Quality)
	case FormatWEBP:
		return fmt.Sprintf("webp(%d)", f.Quality)
	default:
		return "png"
	}
}

// Filename 建议的下载文件名
func Filename(base string, f ExportFormat) string {
	if base == "" {
		base = DefaultFilename
	}
	return base + f.Extension()
}

// Flatten 把栅格 source-over 叠加到 c 填充的不透明画布上，丢弃 alpha
func Flatten(img image.Image, c color.NRGBA) (*image.NRGBA, error) {
	src, err := ToRaster(img)
	if err != nil {
		return nil, err
	}
	c.A = 0xff
	canvas := imaging.New(src.Rect.Dx(), src.Rect.Dy(), c)
	return imaging.Overlay(canvas, src, image.Pt(0, 0), 1.0), nil
}

// Encode 按格式编码。JPEG 没有 alpha：背景为透明时强制用白色铺底，否则用合成时的背景色。
func Encode(w io.Writer, img image.Image, f ExportFormat, bg Background) error {
	src, err := ToRaster(img)
	if err != nil {
		return err
	}

	switch f.Kind {
	case FormatPNG:
		return imaging.Encode(w, src, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression))
	case FormatWEBP:
		opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(clampQuality(f.Quality, DefaultWEBPQuality)))
		if err != nil {
			return fmt.Errorf("webp options: %w", err)
		}
		return webp.Encode(w, src, opts)
	case FormatJPEG:
		flat, err := Flatten(src, bg.flattenColor())
		if err != nil {
			return err
		}
		return encodeOpaque(w, flat, f)
	default:
		return fmt.Errorf("%w: kind %d", ErrUnknownFormat, f.Kind)
	}
}

// encodeOpaque 只接受完全不透明的栅格
func encodeOpaque(w io.Writer, img *image.NRGBA, f ExportFormat) error {
	if f.SupportsAlpha() {
		return fmt.Errorf("%w: %s takes the alpha path", ErrUnsupportedFormatAlpha, f)
	}
	if !img.Opaque() {
		return fmt.Errorf("%w: %s raster is not opaque", ErrUnsupportedFormatAlpha, f)
	}
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(clampQuality(f.Quality, DefaultJPEGQuality)))
}

// EncodeBytes Encode 的字节切片版本
func EncodeBytes(img image.Image, f ExportFormat, bg Background) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f, bg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
