package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/wpmig/internal/app/run"
	"github.com/John-Robertt/wpmig/internal/config"
	"github.com/John-Robertt/wpmig/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是一个“简洁版”的交互终端进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - keepalive：抓取阶段按固定间隔翻页，长时间无输出时定期打印一行
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	phase string
	total int
	done  int
	ok    int
	fail  int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	mode := "apply"
	modeHint := ""
	if eff.DryRun {
		mode = "dry-run"
		modeHint = " (不写入任何文件)"
	}
	source := eff.APIBase
	if eff.Offline {
		source = "offline (cache/wp/ 快照)"
	}

	fmt.Fprintf(p.w, "[%s] wpmig run (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  root: %s\n", eff.Root)
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  source: %s\n", truncate(source, 120))
	fmt.Fprintf(p.w, "  site_origin: %s\n", eff.SiteOrigin)
	fmt.Fprintf(p.w, "  per_page: %d  page_delay: %s\n", eff.PerPage, eff.PageDelay)
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	fmt.Fprintf(p.w, "  step_ordinals: %s  include_steps: %s\n", eff.StepOrdinals, onOff(eff.IncludeSteps))
	fmt.Fprintln(p.w, "输出:")
	fmt.Fprintf(p.w, "  content: %s\n", eff.ContentDir)
	fmt.Fprintf(p.w, "  redirects: %s\n", eff.RedirectsFile)
	fmt.Fprintln(p.w)

	p.phase = "fetch"
	p.lastPrinted = time.Now()
	if !p.tickerStarted {
		p.startTickerLocked()
	}
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "fetch":
		p.total = intField(fields, "posts")
		p.phase = "convert"
		fmt.Fprintf(p.w, "抓取: posts=%d categories=%d (%s)\n\n",
			p.total, intField(fields, "categories"), formatShortDuration(dur),
		)
	case "convert":
		p.phase = "redirects"
		fmt.Fprintf(p.w, "\n转换: converted=%d failed=%d collisions=%d (%s)\n",
			intField(fields, "converted"), intField(fields, "failed"), intField(fields, "collisions"), formatShortDuration(dur),
		)
	case "redirects":
		p.phase = "done"
		fmt.Fprintf(p.w, "redirects: %d (%s)\n", intField(fields, "redirects"), formatShortDuration(dur))
		p.stopTickerLocked()
	default:
		// 兜底：未知阶段也不要静默（便于调试/演进）。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = idx
	p.total = total

	switch res.Status {
	case domain.StatusConverted:
		p.ok++
		fmt.Fprintf(p.w, "[%d/%d] post %d OK %s (%s, steps=%d) (%s)\n",
			idx, total, res.PostID, res.File, res.TargetState, res.Steps, formatShortDuration(dur),
		)
	default:
		p.fail++
		fmt.Fprintf(p.w, "[%d/%d] post %d FAIL %s: %s (%s)\n",
			idx, total, res.PostID, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	}

	p.lastPrinted = time.Now()
}

// Stop 停止 keepalive（致命错误时 redirects 阶段不会到达）。
func (p *progressUI) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTickerLocked()
}

func (p *progressUI) stopTickerLocked() {
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true
	stopCh := p.stopCh

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if time.Since(p.lastPrinted) > threshold {
					p.printProgressLocked()
				}
				p.mu.Unlock()
			case <-stopCh:
				return
			}
		}
	}()
}

func (p *progressUI) printProgressLocked() {
	elapsed := time.Since(p.startedAt)
	if p.phase == "fetch" {
		fmt.Fprintf(p.w, "进度: 抓取中 elapsed=%s\n", formatElapsed(elapsed))
	} else {
		fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d fail=%d elapsed=%s\n",
			p.done, p.total, p.ok, p.fail, formatElapsed(elapsed),
		)
	}
	p.lastPrinted = time.Now()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	v, ok := fields[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}
