package youtube

import (
	"fmt"
	"strconv"
	"strings"

	"ChannelSnapshot/internal/errs"
	"ChannelSnapshot/internal/model"
)

// Normalize 原始视频 -> VideoRecord（纯函数，无I/O）
// 标题/发布时间缺失为 nil；计数缺失为 0，字符串数字转整数
func Normalize(item model.YouTubeVideo) (model.VideoRecord, error) {
	id := strings.TrimSpace(item.ID)
	if id == "" {
		return model.VideoRecord{}, fmt.Errorf("%w: 缺少视频ID", errs.ErrMalformedItem)
	}
	rec := model.VideoRecord{VideoID: id}
	if item.Snippet != nil {
		rec.Title = item.Snippet.Title
		rec.PublishedAt = item.Snippet.PublishedAt
	}
	if stats := item.Statistics; stats != nil {
		var err error
		if rec.ViewCount, err = parseCount(id, "viewCount", stats.ViewCount); err != nil {
			return model.VideoRecord{}, err
		}
		if rec.LikeCount, err = parseCount(id, "likeCount", stats.LikeCount); err != nil {
			return model.VideoRecord{}, err
		}
		if rec.CommentCount, err = parseCount(id, "commentCount", stats.CommentCount); err != nil {
			return model.VideoRecord{}, err
		}
	}
	return rec, nil
}

// ConvertToRecords 批量归一化，遇到第一条坏数据即失败
func ConvertToRecords(items []model.YouTubeVideo) ([]model.VideoRecord, error) {
	records := make([]model.VideoRecord, 0, len(items))
	for _, it := range items {
		rec, err := Normalize(it)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseCount(videoID, field string, raw *model.Count) (int64, error) {
	if raw == nil {
		return 0, nil
	}
	s := strings.TrimSpace(string(*raw))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: 视频%s的%s=%q不是非负整数", errs.ErrMalformedItem, videoID, field, s)
	}
	return n, nil
}

// Chunk 按 size 切分，最后一批可能不足 size
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	var chunks [][]string
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[i:end])
	}
	return chunks
}
