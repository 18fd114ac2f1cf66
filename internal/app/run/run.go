package run

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/wpmig/internal/app"
	"github.com/John-Robertt/wpmig/internal/app/planner"
	"github.com/John-Robertt/wpmig/internal/config"
	"github.com/John-Robertt/wpmig/internal/domain"
	"github.com/John-Robertt/wpmig/internal/extract"
	"github.com/John-Robertt/wpmig/internal/frontmatter"
	"github.com/John-Robertt/wpmig/internal/infra/fsx"
	"github.com/John-Robertt/wpmig/internal/schema"
	"github.com/John-Robertt/wpmig/internal/transform"
	"github.com/John-Robertt/wpmig/internal/wp"
)

// Result 是一次 run 的全部产出：对外稳定的 RunReport 与按文章顺序累积的 redirect 列表。
type Result struct {
	Report    domain.RunReport
	Redirects []domain.Redirect
}

// Execute 执行一次迁移，src 为 nil 时按配置自动组装（见 NewSource）。
//
// 单篇文章失败只记入 report（不影响其他文章）；
// 抓取失败、取消、redirect 清单写入失败属于致命错误：返回 error，report 中带一条合成失败条目。
func Execute(ctx context.Context, eff config.EffectiveConfig, src wp.PageSource) (Result, error) {
	return ExecuteWithObserver(ctx, eff, src, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息（由上层决定是否启用）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, src wp.PageSource, obs Observer) (Result, error) {
	started := time.Now().UTC()
	if obs != nil {
		obs.OnStart(eff)
	}

	res := Result{Report: domain.RunReport{
		Root:          eff.Root,
		APIBase:       eff.APIBase,
		ContentDir:    eff.ContentDir,
		RedirectsFile: eff.RedirectsFile,
		DryRun:        eff.DryRun,
		Offline:       eff.Offline,
		StartedAt:     started,
		Items:         make([]domain.ItemResult, 0, 128),
	}}
	rr := &res.Report

	fatal := func(code string, err error) (Result, error) {
		rr.Items = append(rr.Items, syntheticFailed(code, err.Error()))
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return res, err
	}

	if src == nil {
		s, err := NewSource(eff)
		if err != nil {
			return fatal(domain.ErrCodeConfigInvalid, err)
		}
		src = s
	}

	fetchStarted := time.Now()
	posts, cats, err := fetch(ctx, eff, src)
	if err != nil {
		return fatal(domain.ErrCodeFetchFailed, err)
	}
	categories := wp.IndexCategories(cats)
	rr.Summary.Posts = len(posts)
	rr.Summary.Categories = len(categories)
	if obs != nil {
		obs.OnPhaseDone("fetch", map[string]any{
			"posts":      len(posts),
			"categories": len(categories),
		}, time.Since(fetchStarted))
	}

	// 转换阶段：严格串行，一篇的写入与 redirect 记录完成后才处理下一篇。
	convertStarted := time.Now()
	tr := transform.New(transform.StepOrdinals(eff.StepOrdinals))
	for i, p := range posts {
		if err := ctx.Err(); err != nil {
			return fatal(domain.ErrCodeCanceled, fmt.Errorf("运行已取消：%w", err))
		}
		oneStarted := time.Now()
		it := convertOne(eff, tr, p)
		if it.Redirect != nil {
			res.Redirects = append(res.Redirects, *it.Redirect)
		}
		rr.Items = append(rr.Items, it)
		if obs != nil {
			obs.OnItemDone(i+1, len(posts), it, time.Since(oneStarted))
		}
	}
	rr.Collisions = app.GroupByTarget(rr.Items)
	if obs != nil {
		var ok, failed int
		for _, it := range rr.Items {
			if it.Status == domain.StatusConverted {
				ok++
			} else {
				failed++
			}
		}
		obs.OnPhaseDone("convert", map[string]any{
			"converted":  ok,
			"failed":     failed,
			"collisions": len(rr.Collisions),
		}, time.Since(convertStarted))
	}

	redirectsStarted := time.Now()
	if !eff.DryRun {
		if err := writeRedirects(eff.RedirectsFile, res.Redirects); err != nil {
			return fatal(domain.ErrCodeIOFailed, fmt.Errorf("写入 redirect 清单失败：%w", err))
		}
	}
	if obs != nil {
		obs.OnPhaseDone("redirects", map[string]any{
			"redirects": len(res.Redirects),
		}, time.Since(redirectsStarted))
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return res, nil
}

// fetch 并发拉取文章与分类；任一失败即取消另一个并返回该错误。
func fetch(ctx context.Context, eff config.EffectiveConfig, src wp.PageSource) ([]domain.Post, []domain.Category, error) {
	f := wp.Fetcher{Source: src, Delay: eff.PageDelay, Logger: slog.Default()}
	if eff.Offline {
		f.Delay = 0
	}

	var (
		posts []domain.Post
		cats  []domain.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = f.Posts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = f.Categories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return posts, cats, nil
}

// convertOne 处理一篇文章：extract -> transform -> assemble -> validate -> write -> redirect。
// 任一步失败都只影响本条目；redirect 只在写入成功（dry-run 下为“本应写入”）后记录。
func convertOne(eff config.EffectiveConfig, tr *transform.Transformer, p domain.Post) domain.ItemResult {
	it := domain.ItemResult{PostID: p.ID, Link: p.Link}

	meta := extract.Metadata(p, eff.SiteOrigin)
	target := extract.TargetFor(meta)
	if err := target.Validate(); err != nil {
		return failItem(it, domain.ErrCodeTargetConflict, err)
	}
	abs := filepath.Join(eff.ContentDir, target.RelPath())
	it.File = relOrAbs(eff.Root, abs)

	c, err := tr.Transform(p)
	if err != nil {
		return failItem(it, domain.ErrCodeTransformFailed, err)
	}
	it.Steps = len(c.Steps)

	data, err := frontmatter.Render(frontmatter.Build(meta, c, eff.Defaults, p.Link, eff.IncludeSteps))
	if err != nil {
		return failItem(it, domain.ErrCodeTransformFailed, err)
	}
	if err := schema.Check(data, eff.IncludeSteps); err != nil {
		return failItem(it, domain.ErrCodeContractInvalid, err)
	}

	state, err := planner.TargetState(abs, data)
	if err != nil {
		return failItem(it, writeErrCode(err), err)
	}
	it.TargetState = state

	if !eff.DryRun {
		if err := fsx.WriteFileAtomic(filepath.Dir(abs), filepath.Base(abs), data); err != nil {
			return failItem(it, writeErrCode(err), err)
		}
	}

	it.Status = domain.StatusConverted
	it.Redirect = &domain.Redirect{
		From: extract.OldPath(p.Link, eff.SiteOrigin),
		To:   target.URLPath(),
	}
	return it
}

func failItem(it domain.ItemResult, code string, err error) domain.ItemResult {
	slog.Warn("文章转换失败", "post_id", it.PostID, "link", it.Link, "error_code", code, "err", err)
	it.Status = domain.StatusFailed
	it.ErrorCode = code
	it.ErrorMsg = err.Error()
	return it
}

func writeErrCode(err error) string {
	switch {
	case fsx.IsPathTypeConflict(err):
		return domain.ErrCodeTargetConflict
	case fsx.IsCrossDevice(err):
		return domain.ErrCodeCrossDevice
	default:
		return domain.ErrCodeIOFailed
	}
}

func syntheticFailed(code, msg string) domain.ItemResult {
	return domain.ItemResult{
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}

// writeRedirects 整体覆盖写出 redirect 清单（JSON 数组，2 空格缩进）。
func writeRedirects(path string, redirects []domain.Redirect) error {
	if redirects == nil {
		redirects = []domain.Redirect{}
	}
	b, err := json.MarshalIndent(redirects, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomic(filepath.Dir(path), filepath.Base(path), b)
}

func relOrAbs(root, abs string) string {
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return rel
}
