package errs

import (
	"errors"
	"fmt"
)

// 流水线的错误种类，全部通过 %w 包装，调用方用 errors.Is / errors.As 判定
var (
	ErrConfiguration     = errors.New("配置缺失或无效")
	ErrNotFound          = errors.New("频道不存在")
	ErrInvalidCredential = errors.New("API凭证无效")
	ErrMalformedItem     = errors.New("视频数据格式错误")
)

// UpstreamError 外部API返回非成功响应或请求失败
type UpstreamError struct {
	Stage      string // channels / playlistItems / videos
	StatusCode int    // 0 表示未拿到响应（超时、连接失败）
	Reason     string // Google API 错误 reason，如 keyInvalid / quotaExceeded
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("上游请求失败[%s]: %v", e.Stage, e.Err)
	}
	if e.Reason != "" {
		return fmt.Sprintf("上游请求失败[%s]: status=%d reason=%s: %v", e.Stage, e.StatusCode, e.Reason, e.Err)
	}
	return fmt.Sprintf("上游请求失败[%s]: status=%d: %v", e.Stage, e.StatusCode, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StorageError 数仓写入失败，整次运行的事务已回滚
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("数仓写入失败[%s]: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Kind 返回错误种类名，用于日志字段、指标标签和HTTP响应
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var (
		upstream *UpstreamError
		storage  *StorageError
	)
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformedItem):
		return "malformed_item"
	case errors.As(err, &upstream):
		return "upstream"
	case errors.As(err, &storage):
		return "storage"
	default:
		return "unknown"
	}
}
