package youtube

import "context"

// PageFetcher 拉取一页：返回该页ID与下一页令牌（空表示没有下一页）
type PageFetcher func(ctx context.Context, playlistID, pageToken string) ([]string, string, error)

// PlaylistPager 有界的惰性ID序列：缓冲为空且未到上限时才去拉下一页
// 达到 maxItems 或上游不再返回续页令牌即结束，最后一页多拉的部分直接截断
type PlaylistPager struct {
	fetch      PageFetcher
	playlistID string
	maxItems   int

	buf       []string
	pageToken string
	emitted   int
	pages     int
	exhausted bool
}

func NewPlaylistPager(fetch PageFetcher, playlistID string, maxItems int) *PlaylistPager {
	return &PlaylistPager{
		fetch:      fetch,
		playlistID: playlistID,
		maxItems:   maxItems,
	}
}

// Next 返回下一个ID；ok=false 表示序列结束
func (p *PlaylistPager) Next(ctx context.Context) (string, bool, error) {
	if p.emitted >= p.maxItems {
		return "", false, nil
	}
	// 空页但仍有续页令牌时继续翻页
	for len(p.buf) == 0 {
		if p.exhausted {
			return "", false, nil
		}
		ids, next, err := p.fetch(ctx, p.playlistID, p.pageToken)
		if err != nil {
			return "", false, err
		}
		p.pages++
		p.buf = ids
		p.pageToken = next
		if next == "" {
			p.exhausted = true
		}
	}
	id := p.buf[0]
	p.buf = p.buf[1:]
	p.emitted++
	return id, true, nil
}

// Pages 已拉取的页数
func (p *PlaylistPager) Pages() int {
	return p.pages
}
