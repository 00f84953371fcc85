package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tonylow1993/idphoto/composite"
	"github.com/tonylow1993/idphoto/model"
	"github.com/tonylow1993/idphoto/utils"
)

// SessionService 负责上传、前景获取与会话状态
type SessionService struct {
	store     Store
	decoder   *Decoder
	segmenter Segmenter
	maskMode  composite.ThresholdMode
}

func NewSessionService(store Store, decoder *Decoder, segmenter Segmenter, maskMode composite.ThresholdMode) *SessionService {
	return &SessionService{
		store:     store,
		decoder:   decoder,
		segmenter: segmenter,
		maskMode:  maskMode,
	}
}

// Create 解码上传图片并建立会话，随后尝试远程分割。
// 分割失败不影响会话创建，前景状态保持 pending
func (s *SessionService) Create(ctx context.Context, filename string, data []byte) (*model.Session, error) {
	decoded, err := s.decoder.Decode(data)
	if err != nil {
		return nil, err
	}

	original, err := encodePNG(decoded.Raster)
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		ID:          utils.GenerateID(),
		MD5:         decoded.MD5,
		Filename:    filename,
		ContentType: decoded.ContentType,
		Width:       decoded.Width(),
		Height:      decoded.Height(),
		Foreground:  model.ForegroundPending,
		CreatedAt:   time.Now().Unix(),
	}

	if err := s.store.SaveOriginal(ctx, session.ID, original); err != nil {
		return nil, err
	}

	utils.ForSession(session.ID).Info("session created",
		zap.String("md5", session.MD5),
		zap.Int("width", session.Width),
		zap.Int("height", session.Height),
		zap.Bool("scaled", decoded.Scaled))

	record, err := s.segment(ctx, session, original)
	if err != nil {
		if !errors.Is(err, ErrSegmentationDisabled) {
			utils.ForSession(session.ID).Warn("segmentation unavailable, waiting for manual foreground", zap.Error(err))
		}
	} else {
		if err := s.store.SaveForeground(ctx, session.ID, record); err != nil {
			s.discard(ctx, session.ID)
			return nil, err
		}
		session.Foreground = record.Kind
	}

	if err := s.store.SaveSession(ctx, session); err != nil {
		s.discard(ctx, session.ID)
		return nil, err
	}
	return session, nil
}

// discard 回滚建立到一半的会话，请求取消后仍需执行
func (s *SessionService) discard(ctx context.Context, id string) {
	if err := s.store.DeleteSession(context.WithoutCancel(ctx), id); err != nil {
		utils.ForSession(id).Warn("failed to discard session", zap.Error(err))
	}
}

// Delete 删除会话及其原图和前景，不存在时返回 ErrNotFound
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return err
	}
	utils.ForSession(id).Info("session deleted")
	return nil
}

// segment 先查 md5 缓存，未命中再调用分割器
func (s *SessionService) segment(ctx context.Context, session *model.Session, original []byte) (*model.ForegroundRecord, error) {
	key := session.MD5 + ":" + s.segmenter.Mode()

	cached, err := s.store.GetCachedSegmentation(ctx, key)
	if err != nil {
		utils.Logger.Warn("failed to get cache", zap.Error(err))
	}
	if cached != nil {
		utils.Logger.Info("cache hit", zap.String("cache_key", key))
		return cached, nil
	}

	fg, err := s.segmenter.Segment(ctx, original, session.Width, session.Height)
	if err != nil {
		return nil, err
	}

	record, err := EncodeRecord(fg)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetCachedSegmentation(ctx, key, record); err != nil {
		utils.Logger.Warn("failed to set cache", zap.Error(err))
	}
	return record, nil
}

func (s *SessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	if !utils.ValidID(id) {
		return nil, ErrNotFound
	}
	return s.store.GetSession(ctx, id)
}

// SetCutout 使用上传的抠图作为前景
func (s *SessionService) SetCutout(ctx context.Context, id string, data []byte) (*model.Session, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return s.setForeground(ctx, id, composite.Cutout{Image: img})
}

// SetMask 使用上传的灰度掩码作为前景，mode 为空时使用配置的阈值模式
func (s *SessionService) SetMask(ctx context.Context, id string, data []byte, mode *composite.ThresholdMode) (*model.Session, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	m := s.maskMode
	if mode != nil {
		m = *mode
	}
	return s.setForeground(ctx, id, composite.GrayscaleMask{Mask: img, Mode: m})
}

// SetPolygons 使用提交的多边形文档作为前景
func (s *SessionService) SetPolygons(ctx context.Context, id string, doc []byte) (*model.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fg, err := ParseSegmentation(doc, session.Width, session.Height)
	if err != nil {
		return nil, err
	}
	return s.saveForeground(ctx, session, fg)
}

func (s *SessionService) setForeground(ctx context.Context, id string, fg composite.Foreground) (*model.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if m, ok := fg.(composite.GrayscaleMask); ok {
		b := m.Mask.Bounds()
		if b.Dx() != session.Width || b.Dy() != session.Height {
			return nil, fmt.Errorf("%w: mask %dx%d, source %dx%d",
				composite.ErrDimensionMismatch, b.Dx(), b.Dy(), session.Width, session.Height)
		}
	}
	return s.saveForeground(ctx, session, fg)
}

func (s *SessionService) saveForeground(ctx context.Context, session *model.Session, fg composite.Foreground) (*model.Session, error) {
	record, err := EncodeRecord(fg)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveForeground(ctx, session.ID, record); err != nil {
		return nil, err
	}

	session.Foreground = record.Kind
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	utils.ForSession(session.ID).Info("foreground updated",
		zap.String("kind", record.Kind))
	return session, nil
}
