package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestWithResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		meta = ExtractMeta(c)
	})
	r.Use(WithResponseMeta())
	r.GET("/progress", func(c *gin.Context) {
		SetCacheHit(c, true)
		SetMeta(c, "count", 3)
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/progress", nil))

	assert.Equal(t, true, meta[MetaCacheHit])
	assert.Equal(t, 3, meta["count"])
	assert.Contains(t, meta, MetaProcessingTime)
}

func TestWithResponseMetaKeepsHandlerTiming(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		meta = ExtractMeta(c)
	})
	r.Use(WithResponseMeta())
	r.GET("/progress", func(c *gin.Context) {
		SetMeta(c, MetaProcessingTime, int64(-1))
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/progress", nil))

	assert.Equal(t, int64(-1), meta[MetaProcessingTime])
}

func TestSetMetaWithoutMetaMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, ExtractMeta(c))
	SetCacheHit(c, false)
	assert.Equal(t, false, ExtractMeta(c)[MetaCacheHit])

	SetMeta(c, "", "ignored")
	assert.Len(t, ExtractMeta(c), 1)
}
