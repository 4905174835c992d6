package report

import (
	"context"
	"time"
)

// SnapshotCache stores built snapshots for a short time. Keys always embed
// the viewer and the current generation, so a cached snapshot is never served
// to another user nor after a job write.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (*Snapshot, bool, error)
	Set(ctx context.Context, key string, snap Snapshot, ttl time.Duration) error
	Generation(ctx context.Context) (int64, error)
	Invalidator
}

// Invalidator retires every cached snapshot at once.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Exporter renders a snapshot to a downloadable document.
type Exporter interface {
	Export(snap Snapshot) ([]byte, error)
	ContentType() string
	Extension() string
}
