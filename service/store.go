package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tonylow1993/idphoto/config"
	"github.com/tonylow1993/idphoto/model"
	"github.com/tonylow1993/idphoto/utils"
)

// Store 会话及其图像产物的存储
type Store interface {
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	SaveOriginal(ctx context.Context, id string, png []byte) error
	GetOriginal(ctx context.Context, id string) ([]byte, error)
	SaveForeground(ctx context.Context, id string, record *model.ForegroundRecord) error
	GetForeground(ctx context.Context, id string) (*model.ForegroundRecord, error)
	GetCachedSegmentation(ctx context.Context, md5 string) (*model.ForegroundRecord, error)
	SetCachedSegmentation(ctx context.Context, md5 string, record *model.ForegroundRecord) error
	DeleteSession(ctx context.Context, id string) error
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(cfg *config.RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return NewRedisStoreWithClient(client, cfg.TTL)
}

func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(id string) string    { return "session:" + id }
func originalKey(id string) string   { return "session:" + id + ":original" }
func foregroundKey(id string) string { return "session:" + id + ":foreground" }
func cacheKey(md5 string) string     { return "segmentation:" + md5 }

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) SaveSession(ctx context.Context, session *model.Session) error {
	return s.setJSON(ctx, sessionKey(session.ID), session)
}

func (s *RedisStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	if err := s.getJSON(ctx, sessionKey(id), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisStore) SaveOriginal(ctx context.Context, id string, png []byte) error {
	return s.client.Set(ctx, originalKey(id), png, s.ttl).Err()
}

func (s *RedisStore) GetOriginal(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.Get(ctx, originalKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *RedisStore) SaveForeground(ctx context.Context, id string, record *model.ForegroundRecord) error {
	return s.setJSON(ctx, foregroundKey(id), record)
}

func (s *RedisStore) GetForeground(ctx context.Context, id string) (*model.ForegroundRecord, error) {
	var record model.ForegroundRecord
	if err := s.getJSON(ctx, foregroundKey(id), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetCachedSegmentation 从缓存获取分割结果，未命中返回 nil, nil
func (s *RedisStore) GetCachedSegmentation(ctx context.Context, md5 string) (*model.ForegroundRecord, error) {
	var record model.ForegroundRecord
	err := s.getJSON(ctx, cacheKey(md5), &record)
	if errors.Is(err, ErrNotFound) {
		return nil, nil // 缓存未命中
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *RedisStore) SetCachedSegmentation(ctx context.Context, md5 string, record *model.ForegroundRecord) error {
	return s.setJSON(ctx, cacheKey(md5), record)
}

func (s *RedisStore) DeleteSession(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id), originalKey(id), foregroundKey(id)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) setJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

func (s *RedisStore) getJSON(ctx context.Context, key string, v interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		utils.Logger.Error("failed to unmarshal stored value",
			zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
