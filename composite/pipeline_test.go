package composite

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_CutoutRoundTrip(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 6), G: uint8(y * 12), B: 77, A: 0xff})
		}
	}

	out, err := Pipeline(src, Cutout{Image: src}, Request{Width: 40, Height: 20, Background: Solid(color.White)}, PNG())
	require.NoError(t, err)
	assert.Equal(t, "edited_photo.png", out.Filename)
	assert.Equal(t, 40, out.Width)
	assert.Equal(t, 20, out.Height)

	decoded, err := png.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	got, err := ToRaster(decoded)
	require.NoError(t, err)
	assert.Equal(t, src.Rect, got.Rect)
	assert.Equal(t, src.Pix, got.Pix)
}

func TestPipeline_TargetDimensions(t *testing.T) {
	t.Parallel()

	src := filled(30, 40, red)
	out, err := Pipeline(src, Cutout{Image: src}, Request{Width: 300, Height: 200, Background: Transparent}, PNG())
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 300, 200), decoded.Bounds())

	got, err := ToRaster(decoded)
	require.NoError(t, err)
	// 绘制矩形为 150x200，x 从 75 开始
	assert.Equal(t, red, got.NRGBAAt(150, 100))
	assert.Equal(t, red, got.NRGBAAt(76, 1))
	assert.Equal(t, uint8(0), got.NRGBAAt(10, 100).A)
	assert.Equal(t, uint8(0), got.NRGBAAt(290, 100).A)
}

func TestPipeline_Errors(t *testing.T) {
	t.Parallel()

	_, err := Pipeline(filled(10, 10, red), GrayscaleMask{Mask: image.NewGray(image.Rect(0, 0, 3, 3))}, Request{}, PNG())
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
