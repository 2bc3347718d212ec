package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ChannelSnapshot/internal/errs"
	"ChannelSnapshot/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	runFn func(ctx context.Context, channelID string, maxItems int) (*model.RunSummary, error)
}

func (f *fakeRunner) Run(ctx context.Context, channelID string, maxItems int) (*model.RunSummary, error) {
	return f.runFn(ctx, channelID, maxItems)
}

func newTestRouter(runner SnapshotRunner) *gin.Engine {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewRouter(gin.TestMode, NewSnapshotHandler(runner, "UC1", 50, logger))
}

func doRequest(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRunSnapshot_OK(t *testing.T) {
	var gotChannel string
	var gotMax int
	runner := &fakeRunner{runFn: func(ctx context.Context, channelID string, maxItems int) (*model.RunSummary, error) {
		gotChannel, gotMax = channelID, maxItems
		return &model.RunSummary{RunID: uuid.New(), ChannelID: channelID, RecordCount: 3, RunDate: "2024-01-02", DateID: 20240102}, nil
	}}

	w := doRequest(newTestRouter(runner), http.MethodPost, "/snapshot/run")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UC1", gotChannel)
	assert.Equal(t, 50, gotMax)

	var summary model.RunSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.RecordCount)
	assert.Equal(t, 20240102, summary.DateID)
}

func TestRunSnapshot_MaxVideosOverride(t *testing.T) {
	var gotMax int
	runner := &fakeRunner{runFn: func(ctx context.Context, channelID string, maxItems int) (*model.RunSummary, error) {
		gotMax = maxItems
		return &model.RunSummary{}, nil
	}}
	r := newTestRouter(runner)

	w := doRequest(r, http.MethodPost, "/snapshot/run?max_videos=7")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, gotMax)

	for _, bad := range []string{"-1", "ten"} {
		w = doRequest(r, http.MethodPost, "/snapshot/run?max_videos="+bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestRunSnapshot_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{fmt.Errorf("%w: UC1", errs.ErrNotFound), http.StatusNotFound, "not_found"},
		{&errs.UpstreamError{Stage: "channels", StatusCode: 400, Err: fmt.Errorf("%w: bad key", errs.ErrInvalidCredential)}, http.StatusBadGateway, "invalid_credential"},
		{&errs.UpstreamError{Stage: "videos", StatusCode: 500, Err: errors.New("backend")}, http.StatusBadGateway, "upstream"},
		{&errs.StorageError{Op: "upsert_fact", Err: errors.New("boom")}, http.StatusInternalServerError, "storage"},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			runner := &fakeRunner{runFn: func(ctx context.Context, channelID string, maxItems int) (*model.RunSummary, error) {
				return nil, tc.err
			}}
			w := doRequest(newTestRouter(runner), http.MethodPost, "/snapshot/run")
			assert.Equal(t, tc.status, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.kind, body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRunSnapshot_RejectsConcurrentRun(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	runner := &fakeRunner{runFn: func(ctx context.Context, channelID string, maxItems int) (*model.RunSummary, error) {
		close(entered)
		<-release
		return &model.RunSummary{}, nil
	}}
	r := newTestRouter(runner)

	done := make(chan int)
	go func() {
		done <- doRequest(r, http.MethodPost, "/snapshot/run").Code
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never started")
	}
	w := doRequest(r, http.MethodPost, "/snapshot/run")
	assert.Equal(t, http.StatusConflict, w.Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestHealthzAndMetrics(t *testing.T) {
	r := newTestRouter(&fakeRunner{})

	w := doRequest(r, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = doRequest(r, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
