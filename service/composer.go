package service

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tonylow1993/idphoto/composite"
	"github.com/tonylow1993/idphoto/config"
	"github.com/tonylow1993/idphoto/model"
	"github.com/tonylow1993/idphoto/utils"
)

// ComposeService 把会话的源图与前景合成到目标画布并导出
type ComposeService struct {
	store        Store
	semaphore    chan struct{}
	queueTimeout time.Duration
	background   composite.Background
	jpegQuality  int
	webpQuality  int
	previewMax   int
	maxOutput    int
}

func NewComposeService(cfg *config.ComposeConfig, store Store) (*ComposeService, error) {
	bg, err := composite.ParseBackground(cfg.DefaultBackground)
	if err != nil {
		return nil, fmt.Errorf("compose.default_background: %w", err)
	}

	queueTimeout := cfg.QueueTimeout
	if queueTimeout <= 0 {
		queueTimeout = 30 * time.Second
	}

	return &ComposeService{
		store:        store,
		semaphore:    make(chan struct{}, max(1, cfg.MaxConcurrent)),
		queueTimeout: queueTimeout,
		background:   bg,
		jpegQuality:  cfg.JPEGQuality,
		webpQuality:  cfg.WEBPQuality,
		previewMax:   cfg.PreviewMax,
		maxOutput:    cfg.MaxOutput,
	}, nil
}

// Compose 合成并按请求的格式编码
func (s *ComposeService) Compose(ctx context.Context, id string, opts model.ComposeRequest) (*composite.Export, error) {
	req, format, err := s.resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	startTime := time.Now()

	source, fg, err := s.loadInputs(ctx, id)
	if err != nil {
		return nil, err
	}

	export, err := composite.Pipeline(source, fg, req, format)
	if err != nil {
		return nil, err
	}

	utils.ForSession(id).Info("compose completed",
		zap.String("foreground", fg.Kind()),
		zap.String("background", req.Background.String()),
		zap.String("format", format.String()),
		zap.Int("width", export.Width),
		zap.Int("height", export.Height),
		zap.Int("size", len(export.Data)),
		zap.Duration("cost", time.Since(startTime)))
	return export, nil
}

// Preview 合成 PNG 预览，最长边不超过 preview_max
func (s *ComposeService) Preview(ctx context.Context, id string, opts model.ComposeRequest) (*composite.Export, error) {
	opts.Format = "png"
	req, format, err := s.resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	source, fg, err := s.loadInputs(ctx, id)
	if err != nil {
		return nil, err
	}

	resolved, err := composite.ResolveForeground(source, fg)
	if err != nil {
		return nil, err
	}
	out, err := composite.Compose(resolved, req)
	if err != nil {
		return nil, err
	}
	out = thumbnail(out, s.previewMax)

	data, err := composite.EncodeBytes(out, format, req.Background)
	if err != nil {
		return nil, err
	}
	return &composite.Export{
		Data:     data,
		Format:   format,
		Filename: composite.Filename("preview", format),
		Width:    out.Rect.Dx(),
		Height:   out.Rect.Dy(),
	}, nil
}

func (s *ComposeService) resolveOptions(opts model.ComposeRequest) (composite.Request, composite.ExportFormat, error) {
	if s.maxOutput > 0 && (opts.Width > s.maxOutput || opts.Height > s.maxOutput) {
		return composite.Request{}, composite.ExportFormat{}, fmt.Errorf("%w: %dx%d exceeds %d",
			ErrOutputTooLarge, opts.Width, opts.Height, s.maxOutput)
	}

	bg := s.background
	if opts.Background != "" {
		parsed, err := composite.ParseBackground(opts.Background)
		if err != nil {
			return composite.Request{}, composite.ExportFormat{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		bg = parsed
	}

	quality := opts.Quality
	format, err := composite.ParseFormat(opts.Format, quality)
	if err != nil {
		return composite.Request{}, composite.ExportFormat{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if quality <= 0 {
		switch format.Kind {
		case composite.FormatJPEG:
			format = composite.JPEG(s.jpegQuality)
		case composite.FormatWEBP:
			format = composite.WEBP(s.webpQuality)
		}
	}

	return composite.Request{Width: opts.Width, Height: opts.Height, Background: bg}, format, nil
}

// acquire 占用一个合成槽位。排队超过 queue_timeout 返回 ErrQueueFull，
// 调用方取消或超时则返回 ctx.Err()
func (s *ComposeService) acquire(ctx context.Context) (func(), error) {
	timer := time.NewTimer(s.queueTimeout)
	defer timer.Stop()

	select {
	case s.semaphore <- struct{}{}:
		return func() { <-s.semaphore }, nil
	case <-timer.C:
		return nil, ErrQueueFull
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// loadInputs 并发读取源图与前景，两者都就绪才返回
func (s *ComposeService) loadInputs(ctx context.Context, id string) (image.Image, composite.Foreground, error) {
	if !utils.ValidID(id) {
		return nil, nil, ErrNotFound
	}

	var (
		source image.Image
		fg     composite.Foreground
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := s.store.GetOriginal(gctx, id)
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		source, err = DecodeImage(data)
		return err
	})
	g.Go(func() error {
		record, err := s.store.GetForeground(gctx, id)
		if err != nil {
			return fmt.Errorf("foreground: %w", err)
		}
		fg, err = DecodeRecord(record)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return source, fg, nil
}
