package model

import (
	"time"

	"github.com/google/uuid"
)

// VideoRecord 归一化后的视频记录，每次运行从外部源重建
type VideoRecord struct {
	VideoID      string
	Title        *string
	PublishedAt  *string // ISO-8601 原样保留，不做时区换算
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
}

// DateKey 运行日期的整数键 YYYYMMDD 及其拆分
type DateKey struct {
	ID    int
	Value time.Time
	Year  int
	Month int
	Day   int
}

// NewDateKey 按 t 所在时区的日历日生成日期键
func NewDateKey(t time.Time) DateKey {
	y, m, d := t.Date()
	return DateKey{
		ID:    y*10000 + int(m)*100 + d,
		Value: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Year:  y,
		Month: int(m),
		Day:   d,
	}
}

// SnapshotFact 事实行的写入参数
type SnapshotFact struct {
	DateID       int
	VideoSK      int64
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
}

// RunSummary 单次快照运行结果
type RunSummary struct {
	RunID       uuid.UUID     `json:"run_id"`
	ChannelID   string        `json:"channel_id"`
	RecordCount int           `json:"record_count"`
	RunDate     string        `json:"run_date"` // YYYY-MM-DD
	DateID      int           `json:"date_id"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
	DryRun      bool          `json:"dry_run"`
}
