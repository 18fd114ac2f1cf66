package run

import (
	"github.com/John-Robertt/wpmig/internal/config"
	"github.com/John-Robertt/wpmig/internal/infra/cache"
	"github.com/John-Robertt/wpmig/internal/infra/httpx"
	"github.com/John-Robertt/wpmig/internal/wp"
)

// NewSource 按配置组装分页来源。
//
// - offline：只重放 <root>/cache/wp/ 下的快照，不访问网络
// - apply：访问 API，并把每页原样记录为快照
// - dry-run：访问 API，不落盘
func NewSource(eff config.EffectiveConfig) (wp.PageSource, error) {
	store := cache.New(eff.Root, eff.DryRun || eff.Offline)
	if eff.Offline {
		return wp.Snapshot{Store: store}, nil
	}

	hc, err := httpx.NewAPIClient(eff.ProxyURL, eff.UserAgent, eff.Timeout)
	if err != nil {
		return nil, &config.Error{Code: config.ErrCodeInvalid, Path: "proxy.url", Err: err}
	}
	var src wp.PageSource = &wp.Client{
		BaseURL:     eff.APIBase,
		HTTP:        hc,
		PerPage:     eff.PerPage,
		EndStatuses: eff.EndStatuses,
	}
	if !eff.DryRun {
		src = wp.Recorder{Source: src, Store: store}
	}
	return src, nil
}
