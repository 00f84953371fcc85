package handler

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tonylow1993/idphoto/composite"
	"github.com/tonylow1993/idphoto/config"
	"github.com/tonylow1993/idphoto/model"
	"github.com/tonylow1993/idphoto/service"
)

var red = color.NRGBA{R: 255, A: 255}

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			MaxSize:      1024 * 1024,
			UploadDir:    t.TempDir(),
			AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"},
			MaxDimension: 512,
		},
		Segmentation: config.SegmentationConfig{Mode: service.SegmentNone},
		Compose: config.ComposeConfig{
			Threshold:         128,
			ThresholdMode:     "binary",
			DefaultBackground: "#FFFFFF",
			JPEGQuality:       90,
			WEBPQuality:       80,
			MaxConcurrent:     2,
			QueueTimeout:      time.Second,
			PreviewMax:        32,
			MaxOutput:         1024,
		},
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	cfg := testConfig(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := service.NewRedisStoreWithClient(client, time.Hour)

	segmenter, err := service.NewSegmenter(&cfg.Segmentation, composite.DefaultMode(), nil)
	require.NoError(t, err)
	decoder := service.NewDecoder(&cfg.Upload)
	sessions := service.NewSessionService(store, decoder, segmenter, composite.DefaultMode())
	composer, err := service.NewComposeService(&cfg.Compose, store)
	require.NoError(t, err)

	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), NewUploadHandler(cfg, sessions, decoder), NewSessionHandler(cfg, sessions, composer))
	return r
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

type formFile struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, url string, files []formFile, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// upload 上传一张图片并返回会话
func upload(t *testing.T, r *gin.Engine, img image.Image) *model.Session {
	t.Helper()

	w := serve(r, multipartRequest(t, "/api/v1/upload", []formFile{
		{field: "image", filename: "photo.png", contentType: "image/png", data: pngBytes(t, img)},
	}, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
