package service

import (
	"bytes"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/disintegration/imaging"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tonylow1993/idphoto/config"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStoreWithClient(client, time.Hour), mr
}

func filled(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func testUploadConfig() *config.UploadConfig {
	return &config.UploadConfig{
		AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"},
		MaxDimension: 2048,
	}
}

func testComposeConfig() *config.ComposeConfig {
	return &config.ComposeConfig{
		Threshold:         128,
		ThresholdMode:     "binary",
		DefaultBackground: "#FFFFFF",
		JPEGQuality:       90,
		WEBPQuality:       80,
		MaxConcurrent:     2,
		QueueTimeout:      time.Second,
		PreviewMax:        64,
		MaxOutput:         1024,
	}
}
