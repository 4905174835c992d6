package reportinfra

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/hireflow/pkg/fsx"
	"github.com/Abraxas-365/hireflow/pkg/logx"
)

// ArchiveJanitor borra en background los reportes archivados que superan la retención
type ArchiveJanitor struct {
	fs        fsx.FileSystem
	prefix    string
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewArchiveJanitor(fs fsx.FileSystem, prefix string, retention, interval time.Duration) *ArchiveJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &ArchiveJanitor{fs: fs, prefix: prefix, retention: retention, interval: interval, now: time.Now}
}

// Start ejecuta una limpieza inicial y luego una por intervalo hasta que ctx termine
func (j *ArchiveJanitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.run(ctx)

	for {
		select {
		case <-ctx.Done():
			logx.Info("Archive janitor stopped")
			return
		case <-ticker.C:
			j.run(ctx)
		}
	}
}

func (j *ArchiveJanitor) run(ctx context.Context) {
	removed, err := j.RunOnce(ctx)
	if err != nil {
		logx.WithError(err).Error("archive cleanup failed")
		return
	}
	if removed > 0 {
		logx.WithFields(logx.Fields{"removed": removed, "prefix": j.prefix}).Info("archived reports removed")
	}
}

// RunOnce deletes every archived file older than the retention and returns
// how many were removed. A non-positive retention keeps everything.
func (j *ArchiveJanitor) RunOnce(ctx context.Context) (int, error) {
	if j.retention <= 0 {
		return 0, nil
	}

	files, err := j.fs.List(ctx, j.prefix)
	if err != nil {
		return 0, err
	}

	cutoff := j.now().Add(-j.retention)
	removed := 0
	for _, f := range files {
		if !f.ModTime.Before(cutoff) {
			continue
		}
		if err := j.fs.Delete(ctx, f.Path); err != nil {
			logx.WithError(err).WithField("path", f.Path).Warn("failed to delete archived report")
			continue
		}
		removed++
	}
	return removed, nil
}
