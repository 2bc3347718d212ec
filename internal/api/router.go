package api

import (
	"ChannelSnapshot/internal/metrics"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// NewRouter 注册快照触发、健康检查、指标与 pprof
func NewRouter(mode string, handler *SnapshotHandler) *gin.Engine {
	gin.SetMode(mode)
	r := gin.New()
	r.Use(gin.Recovery())

	// 注册pprof 方便调试和监测性能问题
	pprof.Register(r)

	r.GET("/healthz", handler.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.POST("/snapshot/run", handler.RunSnapshot)
	return r
}
