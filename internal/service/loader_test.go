package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"ChannelSnapshot/internal/errs"
	"ChannelSnapshot/internal/interfaces"
	"ChannelSnapshot/internal/model"
	"ChannelSnapshot/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// failingWarehouse 第 failOn 次写事实行时报错，其余委托给内存数仓
type failingWarehouse struct {
	inner  *repository.MemoryWarehouse
	failOn int
	facts  int
}

func (w *failingWarehouse) WithinUnit(ctx context.Context, fn func(tx interfaces.WarehouseTx) error) error {
	return w.inner.WithinUnit(ctx, func(tx interfaces.WarehouseTx) error {
		return fn(&failingTx{WarehouseTx: tx, w: w})
	})
}

type failingTx struct {
	interfaces.WarehouseTx
	w *failingWarehouse
}

func (t *failingTx) UpsertSnapshotFact(ctx context.Context, fact model.SnapshotFact) error {
	t.w.facts++
	if t.w.facts == t.w.failOn {
		return errors.New("check constraint violated")
	}
	return t.WarehouseTx.UpsertSnapshotFact(ctx, fact)
}

func tenRecords() []model.VideoRecord {
	records := make([]model.VideoRecord, 10)
	for i := range records {
		records[i] = model.VideoRecord{VideoID: fmt.Sprintf("v%02d", i), ViewCount: int64(i * 100)}
	}
	return records
}

func TestLoader_Idempotent(t *testing.T) {
	w := repository.NewMemoryWarehouse()
	loader := NewLoader(w, quietLogger())
	runDate := time.Date(2024, 1, 2, 15, 30, 0, 0, time.UTC)
	records := tenRecords()

	n, err := loader.Load(context.Background(), runDate, records)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	dates, videos, facts := w.Dates(), w.Videos(), w.Facts()

	n, err = loader.Load(context.Background(), runDate, records)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	assert.Equal(t, dates, w.Dates())
	assert.Equal(t, videos, w.Videos())
	require.Len(t, w.Facts(), len(facts))
	for i, f := range w.Facts() {
		assert.Equal(t, facts[i].DateID, f.DateID)
		assert.Equal(t, facts[i].VideoSK, f.VideoSK)
		assert.Equal(t, facts[i].ViewCount, f.ViewCount)
	}
}

func TestLoader_KeyStability(t *testing.T) {
	w := repository.NewMemoryWarehouse()
	loader := NewLoader(w, quietLogger())
	ctx := context.Background()

	title := "v1"
	_, err := loader.Load(ctx, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), []model.VideoRecord{{VideoID: "A", Title: &title}})
	require.NoError(t, err)
	sk := w.Videos()[0].VideoSK

	retitled, published := "v2", "2023-05-01T10:00:00Z"
	_, err = loader.Load(ctx, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), []model.VideoRecord{
		{VideoID: "B"},
		{VideoID: "A", Title: &retitled, PublishedAt: &published},
	})
	require.NoError(t, err)

	videos := w.Videos()
	require.Len(t, videos, 2)
	assert.Equal(t, sk, videos[0].VideoSK)
	assert.Equal(t, "A", videos[0].VideoID)
	assert.Equal(t, "v2", *videos[0].Title)
	assert.Equal(t, published, *videos[0].PublishedAt)

	facts := w.Facts()
	require.Len(t, facts, 3)
	assert.Equal(t, 20240102, facts[0].DateID)
	assert.Equal(t, sk, facts[0].VideoSK)
}

func TestLoader_AtomicOnFactFailure(t *testing.T) {
	inner := repository.NewMemoryWarehouse()
	w := &failingWarehouse{inner: inner, failOn: 5}
	loader := NewLoader(w, quietLogger())

	n, err := loader.Load(context.Background(), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), tenRecords())
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "storage", errs.Kind(err))

	var storageErr *errs.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "upsert_fact", storageErr.Op)

	assert.Empty(t, inner.Dates())
	assert.Empty(t, inner.Videos())
	assert.Empty(t, inner.Facts())
}

func TestLoader_EmptyRecordsStillEnsuresDate(t *testing.T) {
	w := repository.NewMemoryWarehouse()
	loader := NewLoader(w, quietLogger())

	n, err := loader.Load(context.Background(), time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	dates := w.Dates()
	require.Len(t, dates, 1)
	assert.Equal(t, 20240229, dates[0].DateID)
	assert.Equal(t, 2024, dates[0].Year)
	assert.Equal(t, 2, dates[0].Month)
	assert.Equal(t, 29, dates[0].Day)
}

func TestLoader_WrapsCommitFailure(t *testing.T) {
	w := repository.NewMemoryWarehouse()
	loader := NewLoader(w, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.Load(ctx, time.Now(), tenRecords())
	var storageErr *errs.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "commit", storageErr.Op)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, w.Videos())
}
