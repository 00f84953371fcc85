package service

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tonylow1993/idphoto/composite"
	"github.com/tonylow1993/idphoto/config"
	"github.com/tonylow1993/idphoto/utils"
)

const (
	SegmentPolygons = "polygons"
	SegmentCutout   = "cutout"
	SegmentMask     = "mask"
	SegmentNone     = "none"
)

// Segmenter 根据源图获取前景描述。img 为 PNG 编码的源图，尺寸为 width×height
type Segmenter interface {
	Segment(ctx context.Context, img []byte, width, height int) (composite.Foreground, error)
	Mode() string
}

// NewSegmenter 按 segmentation.mode 创建分割器
func NewSegmenter(cfg *config.SegmentationConfig, maskMode composite.ThresholdMode, client utils.IClient) (Segmenter, error) {
	switch cfg.Mode {
	case "", SegmentNone:
		return disabledSegmenter{}, nil
	case SegmentPolygons, SegmentCutout, SegmentMask:
	default:
		return nil, fmt.Errorf("unknown segmentation mode %q", cfg.Mode)
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("segmentation mode %q requires segmentation.url", cfg.Mode)
	}

	return &RemoteSegmenter{
		mode:       cfg.Mode,
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		deployment: cfg.Deployment,
		timeout:    cfg.Timeout,
		maskMode:   maskMode,
		client:     client,
	}, nil
}

type disabledSegmenter struct{}

func (disabledSegmenter) Segment(context.Context, []byte, int, int) (composite.Foreground, error) {
	return nil, ErrSegmentationDisabled
}

func (disabledSegmenter) Mode() string { return SegmentNone }

// RemoteSegmenter 调用远程推理服务
type RemoteSegmenter struct {
	mode       string
	url        string
	apiKey     string
	deployment string
	timeout    time.Duration
	maskMode   composite.ThresholdMode
	client     utils.IClient
}

func (s *RemoteSegmenter) Mode() string { return s.mode }

func (s *RemoteSegmenter) Segment(ctx context.Context, img []byte, width, height int) (composite.Foreground, error) {
	startTime := time.Now()

	fg, err := s.segment(ctx, img, width, height)
	if err != nil {
		utils.Logger.Error("segmentation failed",
			zap.String("mode", s.mode),
			zap.Duration("cost", time.Since(startTime)),
			zap.Error(err))
		return nil, err
	}

	utils.Logger.Info("segmentation completed",
		zap.String("mode", s.mode),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Duration("cost", time.Since(startTime)))
	return fg, nil
}

func (s *RemoteSegmenter) segment(ctx context.Context, img []byte, width, height int) (composite.Foreground, error) {
	param, err := s.request(img)
	if err != nil {
		return nil, err
	}

	var reply []byte
	param.Response = &reply
	if err := s.client.DoHTTPRequest(ctx, param); err != nil {
		return nil, fmt.Errorf("segmentation request: %w", err)
	}

	if s.mode == SegmentPolygons {
		return ParseSegmentation(reply, width, height)
	}

	out, err := DecodeImage(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSegmentation, err)
	}
	if s.mode == SegmentCutout {
		return composite.Cutout{Image: out}, nil
	}

	// 掩码逐像素对应源图，尺寸必须一致
	if b := out.Bounds(); b.Dx() != width || b.Dy() != height {
		return nil, fmt.Errorf("%w: mask %dx%d, source %dx%d",
			ErrMalformedSegmentation, b.Dx(), b.Dy(), width, height)
	}
	return composite.GrayscaleMask{Mask: out, Mode: s.maskMode}, nil
}

// request 多边形模式直接发送图片字节，cutout/mask 模式以 multipart 的 image 字段上传
func (s *RemoteSegmenter) request(img []byte) (*utils.RequestParam, error) {
	header := map[string]string{}
	if s.apiKey != "" {
		header["Authorization"] = "Bearer " + s.apiKey
	}
	if s.deployment != "" {
		header["azureml-model-deployment"] = s.deployment
	}

	param := &utils.RequestParam{
		RequestURI: s.url,
		Method:     http.MethodPost,
		Header:     header,
		Timeout:    s.timeout,
	}

	if s.mode == SegmentPolygons {
		header["Content-Type"] = "image/png"
		param.Body = bytes.NewReader(img)
		return param, nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "source.png")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(img); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	header["Content-Type"] = mw.FormDataContentType()
	param.Body = &body
	return param, nil
}
