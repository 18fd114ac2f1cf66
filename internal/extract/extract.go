package extract

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/John-Robertt/wpmig/internal/domain"
)

// 年份只认 slug 开头的 4 位数字 + 连字符，例如 "2019-honda-civic-remote-programming"。
var yearRE = regexp.MustCompile(`^(\d{4})-`)

var spaceRE = regexp.MustCompile(`\s+`)

const unknown = "unknown"

// Metadata 从文章链接与 slug 推断 make/model/year。
//
// 规则：
// - 链接以 <origin>/ 开头时去掉该前缀；否则取 URL path
// - 第 1 段为 make，第 2 段为 model；缺失时为 "unknown"
// - make 只大写首字母；model 按 "-" 拆词后逐词首字母大写，再用空格连接
//
// 总是返回结果，没有错误分支。
func Metadata(p domain.Post, origin string) domain.VehicleMeta {
	segs := pathSegments(p.Link, origin)

	mk, model := unknown, unknown
	if len(segs) > 0 {
		mk = segs[0]
	}
	if len(segs) > 1 {
		model = segs[1]
	}

	var year string
	if m := yearRE.FindStringSubmatch(p.Slug); len(m) == 2 {
		year = m[1]
	}

	words := strings.Split(model, "-")
	for i, w := range words {
		words[i] = upperFirst(w)
	}
	return domain.VehicleMeta{
		Make:  upperFirst(mk),
		Model: strings.Join(words, " "),
		Year:  year,
	}
}

// OldPath 返回去掉站点 origin 后的旧链接路径（用于 redirect.from）。
func OldPath(link, origin string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin != "" && strings.HasPrefix(link, origin+"/") {
		return strings.TrimPrefix(link, origin)
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return link
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	return p
}

func pathSegments(link, origin string) []string {
	var out []string
	for _, s := range strings.Split(OldPath(link, origin), "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// Slug 生成路径段：小写，连续空白替换为 "-"。
func Slug(s string) string {
	return spaceRE.ReplaceAllString(strings.ToLower(s), "-")
}

// Target 是一篇文章在新站点中的位置。
type Target struct {
	Make  string
	Model string
	Year  string // 年份缺失时为 "unknown"
}

// TargetFor 按 make/model/year 计算输出位置。
func TargetFor(m domain.VehicleMeta) Target {
	year := m.Year
	if year == "" {
		year = unknown
	}
	return Target{Make: Slug(m.Make), Model: Slug(m.Model), Year: year}
}

// RelPath 返回相对 content_dir 的文件路径：<make>/<model>/<year>.md
func (t Target) RelPath() string {
	return filepath.Join(t.Make, t.Model, t.Year+".md")
}

// URLPath 返回新站点路径：/<make>/<model>/<year>/
func (t Target) URLPath() string {
	return "/" + t.Make + "/" + t.Model + "/" + t.Year + "/"
}

// InvalidTargetError 表示由 URL 推断出的路径段无法安全落盘（例如 ".."）。
type InvalidTargetError struct {
	Segment string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("非法输出路径段：%q", e.Segment)
}

// Validate 确保每个路径段都留在 content_dir 之内。
func (t Target) Validate() error {
	for _, s := range []string{t.Make, t.Model, t.Year} {
		if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
			return &InvalidTargetError{Segment: s}
		}
	}
	return nil
}
