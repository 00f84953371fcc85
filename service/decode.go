package service

import (
	"bytes"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"

	"github.com/tonylow1993/idphoto/composite"
	"github.com/tonylow1993/idphoto/config"
	"github.com/tonylow1993/idphoto/utils"
)

// DecodedImage 解码并规整后的上传图片
type DecodedImage struct {
	Raster      *image.NRGBA
	ContentType string
	MD5         string
	// Scaled 为 true 表示超过 max_dimension 被缩小过
	Scaled bool
}

func (d *DecodedImage) Width() int  { return d.Raster.Rect.Dx() }
func (d *DecodedImage) Height() int { return d.Raster.Rect.Dy() }

type Decoder struct {
	allowedTypes []string
	maxDimension int
}

func NewDecoder(cfg *config.UploadConfig) *Decoder {
	return &Decoder{
		allowedTypes: cfg.AllowedTypes,
		maxDimension: cfg.MaxDimension,
	}
}

// Sniff 根据内容判断图片类型，不在白名单内返回 ErrUnsupportedType
func (d *Decoder) Sniff(data []byte) (string, error) {
	contentType := http.DetectContentType(data)
	if !d.IsAllowed(contentType) {
		return contentType, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return contentType, nil
}

func (d *Decoder) IsAllowed(contentType string) bool {
	for _, allowed := range d.allowedTypes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}

// Decode 解码上传图片，按 EXIF 方向摆正，并把最长边限制在 max_dimension 内
func (d *Decoder) Decode(data []byte) (*DecodedImage, error) {
	contentType, err := d.Sniff(data)
	if err != nil {
		return nil, err
	}

	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}

	raster, err := composite.ToRaster(img)
	if err != nil {
		return nil, err
	}

	scaled := resizeWithinMax(raster, d.maxDimension)
	return &DecodedImage{
		Raster:      scaled,
		ContentType: contentType,
		MD5:         utils.BytesMD5(data),
		Scaled:      scaled != raster,
	}, nil
}

// DecodeImage 解码 JPEG/PNG/WEBP
func DecodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	return img, nil
}

// resizeWithinMax 缩放（最长边 <= maxSize），maxSize <= 0 不限制
func resizeWithinMax(img *image.NRGBA, maxSize int) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	longest := max(w, h)

	if maxSize <= 0 || longest <= maxSize {
		return img
	}

	scale := float64(maxSize) / float64(longest)
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))

	resized := resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)
	out, err := composite.ToRaster(resized)
	if err != nil {
		return img
	}
	return out
}

// thumbnail 按比例缩小到 maxSize 以内，不放大
func thumbnail(img *image.NRGBA, maxSize int) *image.NRGBA {
	if maxSize <= 0 {
		return img
	}
	out, err := composite.ToRaster(resize.Thumbnail(uint(maxSize), uint(maxSize), img, resize.Bilinear))
	if err != nil {
		return img
	}
	return out
}
