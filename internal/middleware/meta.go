package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"

	MetaCacheHit       = "cache_hit"
	MetaProcessingTime = "processing_time_ms"
)

type responseMeta map[string]interface{}

// WithResponseMeta gives every handler in the group a meta map that ends up in
// the response envelope. Processing time is filled in after the handler runs
// unless the handler already set it.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, responseMeta{})
		c.Next()
		meta := metaOf(c)
		if _, ok := meta[MetaProcessingTime]; !ok {
			meta[MetaProcessingTime] = time.Since(start).Milliseconds()
		}
	}
}

// SetMeta records a single metadata entry for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if c == nil || key == "" {
		return
	}
	metaOf(c)[key] = value
}

// SetCacheHit marks whether the response was served from the progress cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, MetaCacheHit, hit)
}

// ExtractMeta returns the metadata gathered so far, or nil when none was set.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	raw, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, ok := raw.(responseMeta)
	if !ok {
		return nil
	}
	return meta
}

func metaOf(c *gin.Context) responseMeta {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := responseMeta{}
	c.Set(responseMetaKey, meta)
	return meta
}
