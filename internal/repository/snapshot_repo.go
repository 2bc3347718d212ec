package repository

import (
	"context"
	"fmt"

	"ChannelSnapshot/internal/interfaces"
	"ChannelSnapshot/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRepository 基于 GORM/PostgreSQL 的数仓实现
type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// WithinUnit 一次运行一个事务：fn 返回错误或 panic 均回滚，成功才提交
func (r *SnapshotRepository) WithinUnit(ctx context.Context, fn func(tx interfaces.WarehouseTx) error) (err error) {
	// 开启事务
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("开启事务失败: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&snapshotTx{db: tx}); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("%w（回滚失败: %v）", err, rbErr)
		}
		return err
	}

	// 提交事务
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

type snapshotTx struct {
	db *gorm.DB
}

func (t *snapshotTx) EnsureDate(ctx context.Context, key model.DateKey) error {
	row := &model.DimDate{
		DateID:    key.ID,
		DateValue: datatypes.Date(key.Value),
		Year:      key.Year,
		Month:     key.Month,
		Day:       key.Day,
	}
	if err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date_id"}},
		DoNothing: true,
	}).Create(row).Error; err != nil {
		return fmt.Errorf("写入dim_date失败: %w, date_id: %d", err, key.ID)
	}
	return nil
}

// UpsertVideoDimension INSERT ... ON CONFLICT (video_id) DO UPDATE ... RETURNING video_sk
// 冲突时也返回已有行，代理键保持不变
func (t *snapshotTx) UpsertVideoDimension(ctx context.Context, record model.VideoRecord) (int64, error) {
	row := &model.DimVideo{
		VideoID:     record.VideoID,
		Title:       record.Title,
		PublishedAt: record.PublishedAt,
	}
	if err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "published_at"}),
	}).Create(row).Error; err != nil {
		return 0, fmt.Errorf("写入dim_video失败: %w, video_id: %s", err, record.VideoID)
	}
	if row.VideoSK == 0 {
		if err := t.db.WithContext(ctx).Model(&model.DimVideo{}).
			Where("video_id = ?", record.VideoID).
			Select("video_sk").
			Scan(&row.VideoSK).Error; err != nil {
			return 0, fmt.Errorf("查询video_sk失败: %w, video_id: %s", err, record.VideoID)
		}
	}
	if row.VideoSK == 0 {
		return 0, fmt.Errorf("未获取到video_sk, video_id: %s", record.VideoID)
	}
	return row.VideoSK, nil
}

// UpsertSnapshotFact 同日重跑覆盖计数并刷新 snapshot_ts，不会产生重复行
func (t *snapshotTx) UpsertSnapshotFact(ctx context.Context, fact model.SnapshotFact) error {
	row := &model.FactVideoSnapshotDaily{
		DateID:       fact.DateID,
		VideoSK:      fact.VideoSK,
		ViewCount:    fact.ViewCount,
		LikeCount:    fact.LikeCount,
		CommentCount: fact.CommentCount,
	}
	if err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date_id"}, {Name: "video_sk"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"view_count":    fact.ViewCount,
			"like_count":    fact.LikeCount,
			"comment_count": fact.CommentCount,
			"snapshot_ts":   gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(row).Error; err != nil {
		return fmt.Errorf("写入fact_video_snapshot_daily失败: %w, date_id: %d, video_sk: %d", err, fact.DateID, fact.VideoSK)
	}
	return nil
}
