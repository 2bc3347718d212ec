package service

import (
	"context"
	"fmt"
	"time"

	"ChannelSnapshot/internal/adapter/youtube"
	"ChannelSnapshot/internal/config"
	"ChannelSnapshot/internal/errs"
	"ChannelSnapshot/internal/interfaces"
	"ChannelSnapshot/internal/metrics"
	"ChannelSnapshot/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SnapshotService 编排：抽取目录 -> 批量详情 -> 归一化 -> 幂等入库
// 严格串行，任一步失败立即返回，不做重试
type SnapshotService struct {
	source   interfaces.CatalogSource
	loader   *Loader
	logger   *logrus.Logger
	location *time.Location
	now      func() time.Time
	dryRun   bool
}

// Option 可选项
type Option func(*SnapshotService)

// WithClock 替换时钟（测试固定运行日期）
func WithClock(now func() time.Time) Option {
	return func(s *SnapshotService) { s.now = now }
}

// WithDryRun 标记为演练运行（写入内存数仓）
func WithDryRun(dryRun bool) Option {
	return func(s *SnapshotService) { s.dryRun = dryRun }
}

func NewSnapshotService(source interfaces.CatalogSource, warehouse interfaces.Warehouse, logger *logrus.Logger, cfg *config.SnapshotConfig, opts ...Option) (*SnapshotService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: 时区 %q 无效: %v", errs.ErrConfiguration, cfg.Timezone, err)
	}
	s := &SnapshotService{
		source:   source,
		loader:   NewLoader(warehouse, logger),
		logger:   logger,
		location: loc,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run 对一个频道执行一次快照
func (s *SnapshotService) Run(ctx context.Context, channelID string, maxItems int) (summary *model.RunSummary, err error) {
	startedAt := s.now()
	runDate := startedAt.In(s.location)
	dateKey := model.NewDateKey(runDate)
	runID := uuid.New()
	log := s.logger.WithFields(logrus.Fields{
		"run_id":     runID.String(),
		"channel_id": channelID,
		"date_id":    dateKey.ID,
	})

	defer func() {
		elapsed := s.now().Sub(startedAt)
		if err != nil {
			metrics.RecordRun(errs.Kind(err), 0, elapsed)
			log.WithError(err).WithField("kind", errs.Kind(err)).Error("快照运行失败")
			return
		}
		metrics.RecordRun("", summary.RecordCount, elapsed)
	}()

	log.WithField("max_items", maxItems).Infof("开始%s快照", s.source.GetName())

	// 1. 频道 -> 上传列表
	playlistID, err := s.source.ResolveUploadPlaylist(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("解析频道上传列表失败: %w", err)
	}

	// 2. 分页抽取视频ID
	videoIDs, err := s.source.ListPlaylistVideoIDs(ctx, playlistID, maxItems)
	if err != nil {
		return nil, fmt.Errorf("抽取视频目录失败: %w", err)
	}
	if len(videoIDs) == 0 {
		log.Warn("频道上传列表为空，本次只写入日期维度")
	}

	// 3. 批量拉取详情
	items, err := s.source.FetchVideoDetails(ctx, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("拉取视频详情失败: %w", err)
	}
	if len(items) != len(videoIDs) {
		log.WithFields(logrus.Fields{
			"requested": len(videoIDs),
			"returned":  len(items),
		}).Warn("部分视频未返回详情（可能已删除或设为私享）")
	}

	// 4. 归一化
	records, err := youtube.ConvertToRecords(items)
	if err != nil {
		return nil, fmt.Errorf("转换视频数据失败: %w", err)
	}

	// 5. 入库
	count, err := s.loader.Load(ctx, runDate, records)
	if err != nil {
		return nil, fmt.Errorf("快照入库失败: %w", err)
	}

	summary = &model.RunSummary{
		RunID:       runID,
		ChannelID:   channelID,
		RecordCount: count,
		RunDate:     runDate.Format("2006-01-02"),
		DateID:      dateKey.ID,
		StartedAt:   startedAt,
		Duration:    s.now().Sub(startedAt),
		DryRun:      s.dryRun,
	}
	log.WithFields(logrus.Fields{
		"records":  count,
		"duration": summary.Duration.String(),
		"dry_run":  s.dryRun,
	}).Info("快照运行完成")
	return summary, nil
}

// SummaryLine 一行运行摘要
func SummaryLine(summary *model.RunSummary) string {
	return fmt.Sprintf("Snapshot captured for %d videos on %s (date_id=%d).", summary.RecordCount, summary.RunDate, summary.DateID)
}
