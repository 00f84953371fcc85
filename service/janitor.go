package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tonylow1993/idphoto/config"
	"github.com/tonylow1993/idphoto/utils"
)

// Janitor 定期清理上传目录中超过保留期的临时文件
type Janitor struct {
	cron      *cron.Cron
	dir       string
	retention time.Duration
}

func NewJanitor(cfg *config.UploadConfig) (*Janitor, error) {
	j := &Janitor{
		cron:      cron.New(),
		dir:       cfg.UploadDir,
		retention: cfg.Retention,
	}

	if _, err := j.cron.AddFunc(cfg.CleanupSchedule, func() {
		if _, err := j.Sweep(time.Now()); err != nil {
			utils.Logger.Warn("upload cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Janitor) Start() { j.cron.Start() }

// Stop 停止调度，返回的 context 在正在执行的清理结束后关闭
func (j *Janitor) Stop() context.Context { return j.cron.Stop() }

// Sweep 删除修改时间早于 now-retention 的文件，返回删除数量
func (j *Janitor) Sweep(now time.Time) (int, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := now.Add(-j.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			utils.Logger.Warn("failed to delete temp file",
				zap.String("file", path),
				zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		utils.Logger.Info("upload cleanup", zap.String("dir", j.dir), zap.Int("removed", removed))
	}
	return removed, nil
}
