package model

import (
	"encoding/json"
	"strings"
)

// YouTubeErrorResponse Google API 统一错误结构
type YouTubeErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Domain  string `json:"domain"`
			Message string `json:"message"`
		} `json:"errors"`
		Details []struct {
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}

// Reasons 收集 errors[].reason 与 details[].reason
func (r *YouTubeErrorResponse) Reasons() []string {
	var reasons []string
	for _, e := range r.Error.Errors {
		if e.Reason != "" {
			reasons = append(reasons, e.Reason)
		}
	}
	for _, d := range r.Error.Details {
		if d.Reason != "" {
			reasons = append(reasons, d.Reason)
		}
	}
	return reasons
}

// YouTubeChannelListResponse channels?part=contentDetails
type YouTubeChannelListResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// YouTubePlaylistItemListResponse playlistItems?part=contentDetails
type YouTubePlaylistItemListResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// YouTubeVideoListResponse videos?part=snippet,statistics
type YouTubeVideoListResponse struct {
	Items []YouTubeVideo `json:"items"`
}

// YouTubeVideo 单个视频原始数据，缺失字段保持 nil
type YouTubeVideo struct {
	ID         string             `json:"id"`
	Snippet    *YouTubeSnippet    `json:"snippet"`
	Statistics *YouTubeStatistics `json:"statistics"`
}

type YouTubeSnippet struct {
	Title       *string `json:"title"`
	PublishedAt *string `json:"publishedAt"`
}

type YouTubeStatistics struct {
	ViewCount    *Count `json:"viewCount"`
	LikeCount    *Count `json:"likeCount"`
	CommentCount *Count `json:"commentCount"`
}

// Count 计数字段原始文本：接口以字符串返回数字，也兼容裸数字
type Count string

func (c *Count) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*c = Count(str)
		return nil
	}
	*c = Count(s)
	return nil
}
