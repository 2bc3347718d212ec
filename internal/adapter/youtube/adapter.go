package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ChannelSnapshot/internal/adapter"
	"ChannelSnapshot/internal/config"
	"ChannelSnapshot/internal/errs"
	"ChannelSnapshot/internal/interfaces"
	"ChannelSnapshot/internal/model"
	"ChannelSnapshot/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

const (
	SourceName = "youtube"

	stageChannels      = "channels"
	stagePlaylistItems = "playlistItems"
	stageVideos        = "videos"
)

// 凭证类错误的 reason（Google API 在 400/403 下返回）
var credentialReasons = map[string]bool{
	"keyInvalid":           true,
	"keyExpired":           true,
	"API_KEY_INVALID":      true,
	"API_KEY_EXPIRED":      true,
	"authError":            true,
	"ACCESS_TOKEN_EXPIRED": true,
	"CREDENTIALS_MISSING":  true,
}

func init() {
	adapter.Register(SourceName, NewYouTubeAdapter)
}

type Adapter struct {
	cfg        *config.YouTubeConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewYouTubeAdapter(cfg *config.YouTubeConfig, logger *logrus.Logger) interfaces.CatalogSource {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// GetName ========== 实现CatalogSource接口 ==========
func (a *Adapter) GetName() string {
	return "YouTube"
}

// ResolveUploadPlaylist 频道 -> uploads 播放列表
func (a *Adapter) ResolveUploadPlaylist(ctx context.Context, channelID string) (string, error) {
	var resp model.YouTubeChannelListResponse
	params := url.Values{
		"part": {"contentDetails"},
		"id":   {channelID},
	}
	if err := a.get(ctx, stageChannels, params, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: %s", errs.ErrNotFound, channelID)
	}
	uploads := resp.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if uploads == "" {
		return "", fmt.Errorf("%w: 频道%s没有上传列表", errs.ErrNotFound, channelID)
	}
	a.logger.WithFields(logrus.Fields{
		"channel_id":  channelID,
		"playlist_id": uploads,
	}).Debug("已解析频道上传列表")
	return uploads, nil
}

// ListPlaylistVideoIDs 分页抽取视频ID，最多 maxItems 个
func (a *Adapter) ListPlaylistVideoIDs(ctx context.Context, playlistID string, maxItems int) ([]string, error) {
	pager := NewPlaylistPager(a.fetchPlaylistPage, playlistID, maxItems)
	ids := make([]string, 0, min(max(maxItems, 0), a.pageSize()))
	for {
		id, ok, err := pager.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ids = append(ids, id)
	}
	a.logger.WithFields(logrus.Fields{
		"playlist_id": playlistID,
		"count":       len(ids),
		"pages":       pager.Pages(),
	}).Info("视频目录抽取完成")
	return ids, nil
}

// fetchPlaylistPage 拉取一页 playlistItems，返回该页视频ID与下一页令牌
func (a *Adapter) fetchPlaylistPage(ctx context.Context, playlistID, pageToken string) ([]string, string, error) {
	params := url.Values{
		"part":       {"contentDetails"},
		"playlistId": {playlistID},
		"maxResults": {strconv.Itoa(a.pageSize())},
	}
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
	var resp model.YouTubePlaylistItemListResponse
	if err := a.get(ctx, stagePlaylistItems, params, &resp); err != nil {
		return nil, "", err
	}
	ids := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		if vid := it.ContentDetails.VideoID; vid != "" {
			ids = append(ids, vid)
		}
	}
	return ids, resp.NextPageToken, nil
}

// FetchVideoDetails 每批至多 batch_size 个ID，一批一个请求；任何一批失败整次运行失败
func (a *Adapter) FetchVideoDetails(ctx context.Context, videoIDs []string) ([]model.YouTubeVideo, error) {
	details := make([]model.YouTubeVideo, 0, len(videoIDs))
	for i, batch := range Chunk(videoIDs, a.batchSize()) {
		params := url.Values{
			"part": {"snippet,statistics"},
			"id":   {strings.Join(batch, ",")},
		}
		var resp model.YouTubeVideoListResponse
		if err := a.get(ctx, stageVideos, params, &resp); err != nil {
			return nil, fmt.Errorf("第%d批视频详情拉取失败: %w", i+1, err)
		}
		a.logger.WithFields(logrus.Fields{
			"batch":     i + 1,
			"requested": len(batch),
			"returned":  len(resp.Items),
		}).Debug("视频详情批次完成")
		details = append(details, resp.Items...)
	}
	return details, nil
}

// get 发起一次 GET 并解析 JSON；非 2xx 统一转为 *errs.UpstreamError
func (a *Adapter) get(ctx context.Context, stage string, params url.Values, out interface{}) error {
	if a.cfg.AuthMode != config.AuthModeBearer {
		params.Set("key", a.cfg.APIKey)
	}
	endpoint := fmt.Sprintf("%s/%s?%s", strings.TrimRight(a.cfg.BaseURL, "/"), stage, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &errs.UpstreamError{Stage: stage, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &errs.UpstreamError{Stage: stage, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Errorf("关闭%s响应体失败: %v", stage, err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return a.classifyFailure(stage, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errs.UpstreamError{Stage: stage, StatusCode: resp.StatusCode, Err: fmt.Errorf("解析响应失败: %w", err)}
	}
	return nil
}

// classifyFailure 区分凭证无效与其他上游错误
func (a *Adapter) classifyFailure(stage string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	upstream := &errs.UpstreamError{Stage: stage, StatusCode: resp.StatusCode}

	var apiErr model.YouTubeErrorResponse
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	reasons := apiErr.Reasons()
	if len(reasons) > 0 {
		upstream.Reason = reasons[0]
	}

	credential := resp.StatusCode == http.StatusUnauthorized
	for _, r := range reasons {
		if credentialReasons[r] {
			credential = true
			upstream.Reason = r
			break
		}
	}
	if credential {
		upstream.Err = fmt.Errorf("%w: %s", errs.ErrInvalidCredential, message)
	} else {
		upstream.Err = errors.New(message)
	}

	a.logger.WithFields(logrus.Fields{
		"stage":  stage,
		"status": resp.StatusCode,
		"reason": upstream.Reason,
	}).Error("YouTube API 返回非成功响应")
	return upstream
}

func (a *Adapter) pageSize() int {
	if a.cfg.PageSize <= 0 || a.cfg.PageSize > config.MaxPageSize {
		return config.MaxPageSize
	}
	return a.cfg.PageSize
}

func (a *Adapter) batchSize() int {
	if a.cfg.BatchSize <= 0 || a.cfg.BatchSize > config.MaxPageSize {
		return config.MaxPageSize
	}
	return a.cfg.BatchSize
}
