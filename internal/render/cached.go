package render

import (
	"context"

	"github.com/kdimtricp/deepcheck/internal/logger"
	"github.com/kdimtricp/deepcheck/internal/models"
)

// Cache stores rendered documents. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
}

// CachedRenderer serves stored reports from Cache before rendering them.
// Cache errors are logged and otherwise ignored.
type CachedRenderer struct {
	renderer *Renderer
	cache    Cache
	logger   *logger.Logger
}

func NewCachedRenderer(renderer *Renderer, cache Cache, log *logger.Logger) *CachedRenderer {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedRenderer{renderer: renderer, cache: cache, logger: log}
}

// CacheKey identifies a stored report's document. The fingerprint is part of
// the key so a reused identifier never serves another file's document.
func CacheKey(report models.Report) string {
	return "report-pdf:" + models.SchemaVersion + ":" + report.ReportID + ":" + report.FileMetadata.ContentFingerprint
}

func (c *CachedRenderer) RenderStored(ctx context.Context, stored models.StoredReport) ([]byte, error) {
	if c.cache == nil {
		return c.renderer.RenderStored(stored)
	}

	key := CacheKey(stored.Report)
	if data, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("document cache read failed", "report_id", stored.ReportID, "error", err)
	} else if ok {
		return data, nil
	}

	data, err := c.renderer.RenderStored(stored)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, data); err != nil {
		c.logger.Warn("document cache write failed", "report_id", stored.ReportID, "error", err)
	}
	return data, nil
}
