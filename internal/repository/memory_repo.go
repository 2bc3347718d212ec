package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"ChannelSnapshot/internal/interfaces"
	"ChannelSnapshot/internal/model"

	"gorm.io/datatypes"
)

type factKey struct {
	DateID  int
	VideoSK int64
}

// MemoryWarehouse 内存数仓（--dry-run 与测试用），语义与 PostgreSQL 实现一致：
// 工作单元在副本上执行，成功才整体替换，失败则丢弃
type MemoryWarehouse struct {
	mu    sync.Mutex
	state memoryState
	now   func() time.Time
}

type memoryState struct {
	dates  map[int]model.DimDate
	videos map[string]model.DimVideo
	facts  map[factKey]model.FactVideoSnapshotDaily
	nextSK int64
}

func NewMemoryWarehouse() *MemoryWarehouse {
	return &MemoryWarehouse{
		state: memoryState{
			dates:  make(map[int]model.DimDate),
			videos: make(map[string]model.DimVideo),
			facts:  make(map[factKey]model.FactVideoSnapshotDaily),
			nextSK: 1,
		},
		now: time.Now,
	}
}

func (w *MemoryWarehouse) WithinUnit(ctx context.Context, fn func(tx interfaces.WarehouseTx) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	staged := w.state.clone()
	if err := fn(&memoryTx{state: &staged, now: w.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	w.state = staged
	return nil
}

func (s memoryState) clone() memoryState {
	c := memoryState{
		dates:  make(map[int]model.DimDate, len(s.dates)),
		videos: make(map[string]model.DimVideo, len(s.videos)),
		facts:  make(map[factKey]model.FactVideoSnapshotDaily, len(s.facts)),
		nextSK: s.nextSK,
	}
	for k, v := range s.dates {
		c.dates[k] = v
	}
	for k, v := range s.videos {
		c.videos[k] = v
	}
	for k, v := range s.facts {
		c.facts[k] = v
	}
	return c
}

type memoryTx struct {
	state *memoryState
	now   func() time.Time
}

func (t *memoryTx) EnsureDate(ctx context.Context, key model.DateKey) error {
	if _, ok := t.state.dates[key.ID]; ok {
		return nil
	}
	t.state.dates[key.ID] = model.DimDate{
		DateID:    key.ID,
		DateValue: datatypes.Date(key.Value),
		Year:      key.Year,
		Month:     key.Month,
		Day:       key.Day,
	}
	return nil
}

func (t *memoryTx) UpsertVideoDimension(ctx context.Context, record model.VideoRecord) (int64, error) {
	row, ok := t.state.videos[record.VideoID]
	if !ok {
		row = model.DimVideo{VideoSK: t.state.nextSK, VideoID: record.VideoID}
		t.state.nextSK++
	}
	row.Title = record.Title
	row.PublishedAt = record.PublishedAt
	t.state.videos[record.VideoID] = row
	return row.VideoSK, nil
}

func (t *memoryTx) UpsertSnapshotFact(ctx context.Context, fact model.SnapshotFact) error {
	t.state.facts[factKey{DateID: fact.DateID, VideoSK: fact.VideoSK}] = model.FactVideoSnapshotDaily{
		DateID:       fact.DateID,
		VideoSK:      fact.VideoSK,
		ViewCount:    fact.ViewCount,
		LikeCount:    fact.LikeCount,
		CommentCount: fact.CommentCount,
		SnapshotTS:   t.now(),
	}
	return nil
}

// Dates 已提交的日期维度（按 date_id 升序）
func (w *MemoryWarehouse) Dates() []model.DimDate {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.DimDate, 0, len(w.state.dates))
	for _, d := range w.state.dates {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateID < out[j].DateID })
	return out
}

// Videos 已提交的视频维度（按 video_sk 升序）
func (w *MemoryWarehouse) Videos() []model.DimVideo {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.DimVideo, 0, len(w.state.videos))
	for _, v := range w.state.videos {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VideoSK < out[j].VideoSK })
	return out
}

// Facts 已提交的事实行（按 date_id, video_sk 升序）
func (w *MemoryWarehouse) Facts() []model.FactVideoSnapshotDaily {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.FactVideoSnapshotDaily, 0, len(w.state.facts))
	for _, f := range w.state.facts {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateID != out[j].DateID {
			return out[i].DateID < out[j].DateID
		}
		return out[i].VideoSK < out[j].VideoSK
	})
	return out
}
