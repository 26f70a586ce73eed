package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "responseMeta"

type responseMeta struct {
	started  time.Time
	cacheHit *bool
}

// WithResponseMeta stamps the request start so indicator responses can report
// their processing time.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &responseMeta{started: time.Now()})
		c.Next()
	}
}

// SetCacheHit records whether the payload was served from the KPI cache.
func SetCacheHit(c *gin.Context, hit bool) {
	metaFrom(c).cacheHit = &hit
}

// ResponseMeta renders the envelope meta block. A zero start falls back to the
// time stamped by WithResponseMeta.
func ResponseMeta(c *gin.Context, start time.Time) map[string]interface{} {
	meta := metaFrom(c)
	if start.IsZero() {
		start = meta.started
	}
	out := map[string]interface{}{"processing_time_ms": time.Since(start).Milliseconds()}
	if meta.cacheHit != nil {
		out["cache_hit"] = *meta.cacheHit
	}
	return out
}

func metaFrom(c *gin.Context) *responseMeta {
	if v, ok := c.Get(responseMetaKey); ok {
		if meta, ok := v.(*responseMeta); ok {
			return meta
		}
	}
	meta := &responseMeta{started: time.Now()}
	c.Set(responseMetaKey, meta)
	return meta
}
