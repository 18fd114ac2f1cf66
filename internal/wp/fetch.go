package wp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/John-Robertt/wpmig/internal/domain"
)

// Fetcher 逐页拉取集合，直到空页或“末页”状态码。
//
// 约束：
// - 相邻两次请求之间至少间隔 Delay（固定间隔，不做自适应）
// - 每次 FetchAll 使用独立的限速器：posts 与 categories 并发时互不拖慢
// - 结果按请求顺序拼接
type Fetcher struct {
	Source PageSource
	Delay  time.Duration
	Logger *slog.Logger
}

// FetchAll 拉取 coll 的全部分页并把每页解码为 []T。
func FetchAll[T any](ctx context.Context, f Fetcher, coll Collection) ([]T, error) {
	if f.Source == nil {
		return nil, fmt.Errorf("page source 不能为空")
	}
	lim := newLimiter(f.Delay)
	log := f.logger().With("collection", coll.Name)

	var out []T
	for page := 1; ; page++ {
		if err := lim.Wait(ctx); err != nil {
			return nil, err
		}
		b, err := f.Source.Page(ctx, coll, page)
		if errors.Is(err, ErrEndOfPages) {
			log.Debug("分页结束", "page", page, "reason", "end_status")
			break
		}
		if err != nil {
			return nil, fmt.Errorf("抓取 %s 第 %d 页失败：%w", coll.Name, page, err)
		}

		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, &DecodeError{Collection: coll.Name, Page: page, Err: err}
		}
		log.Debug("抓取分页", "page", page, "items", len(items))
		if len(items) == 0 {
			break
		}
		out = append(out, items...)
	}
	return out, nil
}

// Posts 拉取全部文章。
func (f Fetcher) Posts(ctx context.Context) ([]domain.Post, error) {
	return FetchAll[domain.Post](ctx, f, Posts)
}

// Categories 拉取全部分类。
func (f Fetcher) Categories(ctx context.Context) ([]domain.Category, error) {
	return FetchAll[domain.Category](ctx, f, Categories)
}

func (f Fetcher) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// IndexCategories 按 id 建立分类索引；重复 id 以后出现者为准。
func IndexCategories(cats []domain.Category) map[int]domain.CategoryInfo {
	idx := make(map[int]domain.CategoryInfo, len(cats))
	for _, c := range cats {
		idx[c.ID] = domain.CategoryInfo{
			Name:        c.Name,
			Slug:        c.Slug,
			Parent:      c.Parent,
			Description: c.Description,
		}
	}
	return idx
}
