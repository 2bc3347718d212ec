package interfaces

import (
	"context"

	"ChannelSnapshot/internal/config"
	"ChannelSnapshot/internal/model"

	"github.com/sirupsen/logrus"
)

// CatalogSource 视频平台数据源必须实现的接口（抽取 + 批量详情）
type CatalogSource interface {
	GetName() string
	// ResolveUploadPlaylist 频道ID -> 上传列表ID；频道不存在返回 errs.ErrNotFound
	ResolveUploadPlaylist(ctx context.Context, channelID string) (string, error)
	// ListPlaylistVideoIDs 按续页令牌分页，最多返回 maxItems 个ID（不去重）
	ListPlaylistVideoIDs(ctx context.Context, playlistID string, maxItems int) ([]string, error)
	// FetchVideoDetails 按批拉取标题/发布时间/计数，批次之间按输入顺序拼接
	FetchVideoDetails(ctx context.Context, videoIDs []string) ([]model.YouTubeVideo, error)
}

// Factory 数据源工厂函数签名
type Factory func(cfg *config.YouTubeConfig, logger *logrus.Logger) CatalogSource

// Warehouse 数仓写入接口：一次运行 = 一个工作单元，全部提交或全部回滚
type Warehouse interface {
	WithinUnit(ctx context.Context, fn func(tx WarehouseTx) error) error
}

// WarehouseTx 工作单元内的幂等写入操作
type WarehouseTx interface {
	// EnsureDate 日期维度不存在则插入，存在则不动
	EnsureDate(ctx context.Context, key model.DateKey) error
	// UpsertVideoDimension 按 video_id 插入或覆盖标题/发布时间，返回（不变的）代理键
	UpsertVideoDimension(ctx context.Context, record model.VideoRecord) (int64, error)
	// UpsertSnapshotFact 按 (date_id, video_sk) 插入或覆盖计数并刷新 snapshot_ts
	UpsertSnapshotFact(ctx context.Context, fact model.SnapshotFact) error
}
