package wp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/John-Robertt/wpmig/internal/infra/cache"
)

// Collection 描述一个可分页的 REST 集合。
type Collection struct {
	Name  string
	Query url.Values
}

var (
	// Posts 额外请求 _embed（与站点迁移前的抓取方式保持一致）。
	Posts      = Collection{Name: "posts", Query: url.Values{"_embed": {""}}}
	Categories = Collection{Name: "categories"}
)

// PageSource 返回集合第 page 页的原始 JSON body。
//
// 约束：
// - 到达末页时返回 ErrEndOfPages
// - 不做缓存、不做重试、不做限速（限速由 Fetcher 统一实现）
type PageSource interface {
	Page(ctx context.Context, c Collection, page int) ([]byte, error)
}

// Client 直接请求 WordPress REST API。
type Client struct {
	BaseURL string // 形如 https://example.com/wp-json/wp/v2
	HTTP    *http.Client
	PerPage int
	// EndStatuses 是被视为“没有更多分页”的状态码（WordPress 越界页返回 400）。
	EndStatuses []int
}

func (c *Client) Page(ctx context.Context, coll Collection, page int) ([]byte, error) {
	if c.HTTP == nil {
		return nil, fmt.Errorf("http client 不能为空")
	}
	u, err := url.Parse(strings.TrimRight(c.BaseURL, "/") + "/" + coll.Name)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	for k, v := range coll.Query {
		q[k] = append([]string(nil), v...)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(c.perPage()))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if c.isEnd(resp.StatusCode) {
		return nil, ErrEndOfPages
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{URL: u.String(), StatusCode: resp.StatusCode}
	}
	return b, nil
}

func (c *Client) perPage() int {
	if c.PerPage <= 0 {
		return 100
	}
	return c.PerPage
}

func (c *Client) isEnd(status int) bool {
	if len(c.EndStatuses) == 0 {
		return status == http.StatusBadRequest
	}
	for _, s := range c.EndStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Snapshot 从 <root>/cache/wp/ 重放此前记录的分页。
type Snapshot struct {
	Store cache.Store
}

func (s Snapshot) Page(ctx context.Context, coll Collection, page int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, ok, err := s.Store.ReadPage(coll.Name, page)
	if err != nil {
		return nil, err
	}
	if ok {
		return b, nil
	}
	if page == 1 {
		p, _ := s.Store.PagePath(coll.Name, page)
		return nil, &SnapshotMissingError{Collection: coll.Name, Path: p}
	}
	return nil, ErrEndOfPages
}

// Recorder 包装一个 PageSource，把成功取得的每一页原样写入快照。
// 第 1 页时先清空该集合的旧快照，保证快照总是一次完整抓取。
type Recorder struct {
	Source PageSource
	Store  cache.Store
}

func (r Recorder) Page(ctx context.Context, coll Collection, page int) ([]byte, error) {
	b, err := r.Source.Page(ctx, coll, page)
	if err != nil {
		// 第 1 页就结束：集合为空。旧快照同样要清掉，并记一页空数组，离线重放得到空集合。
		if page == 1 && errors.Is(err, ErrEndOfPages) {
			if rerr := r.Store.ResetCollection(coll.Name); rerr != nil {
				return nil, fmt.Errorf("清理快照失败：%w", rerr)
			}
			if werr := r.Store.WritePage(coll.Name, 1, []byte("[]")); werr != nil {
				return nil, fmt.Errorf("写入快照失败：%w", werr)
			}
		}
		return nil, err
	}
	if page == 1 {
		if err := r.Store.ResetCollection(coll.Name); err != nil {
			return nil, fmt.Errorf("清理快照失败：%w", err)
		}
	}
	if err := r.Store.WritePage(coll.Name, page, b); err != nil {
		return nil, fmt.Errorf("写入快照失败：%w", err)
	}
	return b, nil
}
