package model

import (
	"time"

	"gorm.io/datatypes"
)

// WarehouseSchema 数仓所在的 schema
const WarehouseSchema = "warehouse"

// DimDate 日期维度：每个运行日一行，插入后不可变
type DimDate struct {
	DateID    int            `gorm:"column:date_id;primaryKey;autoIncrement:false;comment:YYYYMMDD整数键"`
	DateValue datatypes.Date `gorm:"column:date_value;type:date;not null;comment:日期"`
	Year      int            `gorm:"column:year;type:int;not null"`
	Month     int            `gorm:"column:month;type:int;not null"`
	Day       int            `gorm:"column:day;type:int;not null"`
}

// DimVideo 视频维度（SCD type 1：标题/发布时间覆盖更新，不留历史）
type DimVideo struct {
	VideoSK     int64   `gorm:"column:video_sk;primaryKey;autoIncrement;comment:代理键"`
	VideoID     string  `gorm:"column:video_id;type:varchar(64);uniqueIndex;not null;comment:平台视频ID（业务键）"`
	Title       *string `gorm:"column:title;type:text;comment:视频标题"`
	PublishedAt *string `gorm:"column:published_at;type:timestamptz;comment:发布时间（ISO-8601原样写入）"`
}

// FactVideoSnapshotDaily 每日快照事实表，(date_id, video_sk) 唯一
type FactVideoSnapshotDaily struct {
	DateID       int       `gorm:"column:date_id;primaryKey;autoIncrement:false"`
	VideoSK      int64     `gorm:"column:video_sk;primaryKey;autoIncrement:false"`
	ViewCount    int64     `gorm:"column:view_count;type:bigint;not null;default:0"`
	LikeCount    int64     `gorm:"column:like_count;type:bigint;not null;default:0"`
	CommentCount int64     `gorm:"column:comment_count;type:bigint;not null;default:0"`
	SnapshotTS   time.Time `gorm:"column:snapshot_ts;type:timestamptz;not null;default:now();comment:抓取时间"`
}

func (DimDate) TableName() string                { return WarehouseSchema + ".dim_date" }
func (DimVideo) TableName() string               { return WarehouseSchema + ".dim_video" }
func (FactVideoSnapshotDaily) TableName() string { return WarehouseSchema + ".fact_video_snapshot_daily" }
