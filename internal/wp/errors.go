package wp

import (
	"errors"
	"fmt"
)

// ErrEndOfPages 表示集合已没有更多分页（干净结束，不是失败）。
var ErrEndOfPages = errors.New("wp: end of pages")

// HTTPStatusError 表示 API 返回了既非 2xx、也非“末页”约定的状态码。
// 分页抓取遇到该错误即整体失败。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d：%s", e.StatusCode, e.URL)
}

// DecodeError 表示某一页的响应不是预期的 JSON 数组。
type DecodeError struct {
	Collection string
	Page       int
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("解析 %s 第 %d 页失败：%v", e.Collection, e.Page, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SnapshotMissingError 表示 --offline 时找不到集合的首页快照（从未在 apply 模式下抓取过）。
type SnapshotMissingError struct {
	Collection string
	Path       string
}

func (e *SnapshotMissingError) Error() string {
	return fmt.Sprintf("离线快照不存在：%s（%s）；请先不带 --offline 运行一次", e.Collection, e.Path)
}
