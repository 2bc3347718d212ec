package service

import (
	"context"
	"errors"
	"time"

	"ChannelSnapshot/internal/errs"
	"ChannelSnapshot/internal/interfaces"
	"ChannelSnapshot/internal/model"

	"github.com/sirupsen/logrus"
)

// Loader 维度建模的幂等入库：日期维度 -> 视频维度 -> 事实表，整次运行一个工作单元
type Loader struct {
	warehouse interfaces.Warehouse
	logger    *logrus.Logger
}

func NewLoader(warehouse interfaces.Warehouse, logger *logrus.Logger) *Loader {
	return &Loader{warehouse: warehouse, logger: logger}
}

// Load 返回入库记录数；任何一步失败整体回滚，返回 *errs.StorageError
func (l *Loader) Load(ctx context.Context, runDate time.Time, records []model.VideoRecord) (int, error) {
	key := model.NewDateKey(runDate)
	err := l.warehouse.WithinUnit(ctx, func(tx interfaces.WarehouseTx) error {
		if err := tx.EnsureDate(ctx, key); err != nil {
			return &errs.StorageError{Op: "ensure_date", Err: err}
		}
		for _, rec := range records {
			// 先拿到代理键，再写事实行
			sk, err := tx.UpsertVideoDimension(ctx, rec)
			if err != nil {
				return &errs.StorageError{Op: "upsert_dim_video", Err: err}
			}
			if err := tx.UpsertSnapshotFact(ctx, model.SnapshotFact{
				DateID:       key.ID,
				VideoSK:      sk,
				ViewCount:    rec.ViewCount,
				LikeCount:    rec.LikeCount,
				CommentCount: rec.CommentCount,
			}); err != nil {
				return &errs.StorageError{Op: "upsert_fact", Err: err}
			}
		}
		return nil
	})
	if err != nil {
		var storageErr *errs.StorageError
		if !errors.As(err, &storageErr) {
			err = &errs.StorageError{Op: "commit", Err: err}
		}
		l.logger.WithError(err).WithField("date_id", key.ID).Error("快照入库失败，已回滚")
		return 0, err
	}

	l.logger.WithFields(logrus.Fields{
		"date_id": key.ID,
		"records": len(records),
	}).Info("快照入库完成")
	return len(records), nil
}
