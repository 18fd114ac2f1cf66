package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

// FileName 是项目根目录下的（可选）配置文件名。
const FileName = "wpmig.json"

const (
	StepOrdinalsPerList    = "per_list"
	StepOrdinalsContinuous = "continuous"
)

const (
	DefaultSiteOrigin    = "https://programcarremotes.com"
	DefaultAPIPath       = "/wp-json/wp/v2"
	DefaultContentDir    = "src/content/instructions"
	DefaultRedirectsFile = "redirects.json"
	DefaultPerPage       = 100
	DefaultPageDelay     = 200 * time.Millisecond
	DefaultTimeout       = 30 * time.Second
)

// 环境变量覆盖（可写在 <root>/.env）。
const (
	EnvAPIBase    = "WPMIG_API_BASE"
	EnvSiteOrigin = "WPMIG_SITE_ORIGIN"
	EnvProxyURL   = "WPMIG_PROXY_URL"
)

// Defaults 是 frontmatter 中“无法从文章推断”的字段默认值表。
type Defaults struct {
	Difficulty          string
	TimeMinutes         int
	RequiresExistingKey bool
	RequiresLocksmith   bool
	Author              string
	// UnknownYear 在 slug 无年份时用于 yearStart/yearEnd。
	UnknownYear int
}

// BuiltinDefaults 返回内置默认值表（每次返回新值，调用方可自由修改）。
func BuiltinDefaults() Defaults {
	return Defaults{
		Difficulty:          "easy",
		TimeMinutes:         5,
		RequiresExistingKey: true,
		RequiresLocksmith:   false,
		Author:              "The Remote Guy",
		UnknownYear:         2000,
	}
}

// CLIArgs 只包含 CLI 暴露的入口；字符串为空表示“未指定”。
type CLIArgs struct {
	Path       string
	APIBase    string
	ContentDir string

	DryRun  bool
	Offline bool
}

// FileConfig 对应 wpmig.json 的解析结构。
type FileConfig struct {
	APIBase       string          `json:"api_base"`
	SiteOrigin    string          `json:"site_origin"`
	ContentDir    string          `json:"content_dir"`
	RedirectsFile string          `json:"redirects_file"`
	PerPage       int             `json:"per_page"`
	PageDelayMS   *int            `json:"page_delay_ms"`
	EndStatuses   []int           `json:"end_statuses"`
	TimeoutSec    int             `json:"timeout_sec"`
	Proxy         *ProxyConfig    `json:"proxy"`
	UserAgent     string          `json:"user_agent"`
	StepOrdinals  string          `json:"step_ordinals"`
	IncludeSteps  bool            `json:"include_steps"`
	Defaults      *DefaultsConfig `json:"defaults"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// DefaultsConfig 允许逐项覆盖 Defaults；指针为 nil 表示沿用内置值。
type DefaultsConfig struct {
	Difficulty          string `json:"difficulty"`
	TimeMinutes         *int   `json:"time_minutes"`
	RequiresExistingKey *bool  `json:"requires_existing_key"`
	RequiresLocksmith   *bool  `json:"requires_locksmith"`
	Author              string `json:"author"`
	UnknownYear         *int   `json:"unknown_year"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Root string

	APIBase    string
	SiteOrigin string

	// ContentDir / RedirectsFile 均为绝对路径。
	ContentDir    string
	RedirectsFile string

	PerPage     int
	PageDelay   time.Duration
	EndStatuses []int
	Timeout     time.Duration
	ProxyURL    string
	UserAgent   string

	StepOrdinals string
	IncludeSteps bool

	DryRun  bool
	Offline bool

	Defaults Defaults
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置，然后与环境变量、CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// - 根目录：CLI path > cwd
// - <root>/wpmig.json 可选；存在则必须可解析
// - <root>/.env 可选；只补充尚未设置的环境变量
//
// 覆盖优先级（固定）：CLI > 环境变量 > wpmig.json > 内置默认。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	root := cwdAbs
	if strings.TrimSpace(cli.Path) != "" {
		root = absCleanFrom(cwdAbs, cli.Path)
	}

	cfgPath := filepath.Join(root, FileName)
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	if err := loadDotEnv(filepath.Join(root, ".env")); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: filepath.Join(root, ".env"), Err: err}
	}

	return merge(root, cli, fc, cfgPath)
}

func merge(root string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	origin := firstNonEmpty(os.Getenv(EnvSiteOrigin), fc.SiteOrigin)
	apiBase := firstNonEmpty(cli.APIBase, os.Getenv(EnvAPIBase), fc.APIBase)

	// site_origin 与 api_base 互相推导：只给一个时另一个按 WordPress 约定补齐。
	switch {
	case origin == "" && apiBase == "":
		origin = DefaultSiteOrigin
		apiBase = DefaultSiteOrigin + DefaultAPIPath
	case apiBase == "":
		apiBase = strings.TrimRight(origin, "/") + DefaultAPIPath
	case origin == "":
		u, err := parseHTTPURL(apiBase)
		if err != nil {
			return invalid(fmt.Errorf("api_base 无效：%w", err))
		}
		origin = u.Scheme + "://" + u.Host
	}
	if _, err := parseHTTPURL(apiBase); err != nil {
		return invalid(fmt.Errorf("api_base 无效：%w", err))
	}
	if _, err := parseHTTPURL(origin); err != nil {
		return invalid(fmt.Errorf("site_origin 无效：%w", err))
	}

	contentDir := firstNonEmpty(cli.ContentDir, fc.ContentDir, DefaultContentDir)
	redirects := firstNonEmpty(fc.RedirectsFile, DefaultRedirectsFile)

	perPage := fc.PerPage
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	// WordPress REST 的 per_page 上限是 100；超出截断。
	if perPage < 1 {
		perPage = 1
	}
	if perPage > 100 {
		perPage = 100
	}

	delay := DefaultPageDelay
	if fc.PageDelayMS != nil {
		if *fc.PageDelayMS < 0 {
			return invalid(fmt.Errorf("page_delay_ms 不能为负数：%d", *fc.PageDelayMS))
		}
		delay = time.Duration(*fc.PageDelayMS) * time.Millisecond
	}

	endStatuses := []int{400}
	if len(fc.EndStatuses) > 0 {
		for _, s := range fc.EndStatuses {
			if s < 400 || s > 499 {
				return invalid(fmt.Errorf("end_statuses 只能包含 4xx，实际是 %d", s))
			}
		}
		endStatuses = append([]int(nil), fc.EndStatuses...)
	}

	timeout := DefaultTimeout
	if fc.TimeoutSec > 0 {
		timeout = time.Duration(fc.TimeoutSec) * time.Second
	}

	proxyURL := os.Getenv(EnvProxyURL)
	if proxyURL == "" && fc.Proxy != nil {
		proxyURL = fc.Proxy.URL
	}
	proxyURL = strings.TrimSpace(proxyURL)
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return invalid(fmt.Errorf("proxy.url 无效：%w", err))
		}
	}

	ordinals := firstNonEmpty(fc.StepOrdinals, StepOrdinalsPerList)
	if ordinals != StepOrdinalsPerList && ordinals != StepOrdinalsContinuous {
		return invalid(fmt.Errorf("step_ordinals 只能是 per_list 或 continuous，实际是 %q", ordinals))
	}

	defaults, err := mergeDefaults(fc.Defaults)
	if err != nil {
		return invalid(err)
	}

	return EffectiveConfig{
		Root:          root,
		APIBase:       strings.TrimRight(apiBase, "/"),
		SiteOrigin:    strings.TrimRight(origin, "/"),
		ContentDir:    absCleanFrom(root, contentDir),
		RedirectsFile: absCleanFrom(root, redirects),
		PerPage:       perPage,
		PageDelay:     delay,
		EndStatuses:   endStatuses,
		Timeout:       timeout,
		ProxyURL:      proxyURL,
		UserAgent:     strings.TrimSpace(fc.UserAgent),
		StepOrdinals:  ordinals,
		IncludeSteps:  fc.IncludeSteps,
		DryRun:        cli.DryRun,
		Offline:       cli.Offline,
		Defaults:      defaults,
	}, nil
}

func mergeDefaults(dc *DefaultsConfig) (Defaults, error) {
	d := BuiltinDefaults()
	if dc == nil {
		return d, nil
	}
	if v := strings.TrimSpace(dc.Difficulty); v != "" {
		switch v {
		case "easy", "medium", "hard":
			d.Difficulty = v
		default:
			return Defaults{}, fmt.Errorf("defaults.difficulty 只能是 easy|medium|hard，实际是 %q", v)
		}
	}
	if dc.TimeMinutes != nil {
		if *dc.TimeMinutes < 0 {
			return Defaults{}, fmt.Errorf("defaults.time_minutes 不能为负数：%d", *dc.TimeMinutes)
		}
		d.TimeMinutes = *dc.TimeMinutes
	}
	if dc.RequiresExistingKey != nil {
		d.RequiresExistingKey = *dc.RequiresExistingKey
	}
	if dc.RequiresLocksmith != nil {
		d.RequiresLocksmith = *dc.RequiresLocksmith
	}
	if v := strings.TrimSpace(dc.Author); v != "" {
		d.Author = v
	}
	if dc.UnknownYear != nil {
		d.UnknownYear = *dc.UnknownYear
	}
	return d, nil
}

func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("必须是 http/https：%q", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("缺少 host：%q", raw)
	}
	return u, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// loadDotEnv 读取 .env（可选）。已存在的环境变量不会被覆盖。
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}
