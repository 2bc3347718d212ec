package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"ChannelSnapshot/internal/errs"
	"ChannelSnapshot/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SnapshotRunner 执行一次快照（*service.SnapshotService 实现）
type SnapshotRunner interface {
	Run(ctx context.Context, channelID string, maxItems int) (*model.RunSummary, error)
}

type SnapshotHandler struct {
	runner    SnapshotRunner
	channelID string
	maxVideos int
	logger    *logrus.Logger
	// 同一时刻只允许一次运行
	running sync.Mutex
}

func NewSnapshotHandler(runner SnapshotRunner, channelID string, maxVideos int, logger *logrus.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		runner:    runner,
		channelID: channelID,
		maxVideos: maxVideos,
		logger:    logger,
	}
}

// RunSnapshot 触发一次快照
// @Summary 触发频道快照
// @Param max_videos query int false "本次最多抓取的视频数（默认取配置）"
// @Success 200 {object} model.RunSummary
// @Failure 409 {object} map[string]string
// @Router /snapshot/run [post]
func (h *SnapshotHandler) RunSnapshot(c *gin.Context) {
	maxVideos := h.maxVideos
	if v := c.Query("max_videos"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_videos must be a non-negative integer"})
			return
		}
		maxVideos = n
	}

	if !h.running.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "snapshot run already in progress"})
		return
	}
	defer h.running.Unlock()

	summary, err := h.runner.Run(c.Request.Context(), h.channelID, maxVideos)
	if err != nil {
		kind := errs.Kind(err)
		h.logger.WithError(err).WithField("kind", kind).Error("HTTP触发快照失败")
		c.JSON(statusForKind(kind), gin.H{
			"error": err.Error(),
			"kind":  kind,
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Healthz 存活检查
func (h *SnapshotHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusForKind(kind string) int {
	switch kind {
	case "not_found":
		return http.StatusNotFound
	case "invalid_credential", "upstream", "malformed_item":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
