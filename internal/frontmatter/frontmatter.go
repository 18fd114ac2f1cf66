package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/wpmig/internal/config"
	"github.com/John-Robertt/wpmig/internal/domain"
	"github.com/John-Robertt/wpmig/internal/transform"
)

const (
	delim   = "---\n"
	unknown = "unknown"
)

// Build 合并元数据、转换后的内容与默认值表，得到完整的文档。
//
// 规则：
// - 所有固定字段总是赋值；无法推断的字段取 defaults
// - years 为年份字符串或 "unknown"；yearStart/yearEnd 为年份整数或 defaults.UnknownYear
// - includeSteps=false 时不输出 steps（基础 schema 不接受该字段）
func Build(meta domain.VehicleMeta, c transform.Content, d config.Defaults, link string, includeSteps bool) domain.Document {
	years := unknown
	start, end := d.UnknownYear, d.UnknownYear
	if meta.HasYear() {
		if y, err := strconv.Atoi(meta.Year); err == nil {
			years = meta.Year
			start, end = y, y
		}
	}

	fm := domain.Frontmatter{
		Title:               c.Title,
		Description:         c.Description,
		Make:                meta.Make,
		Model:               meta.Model,
		Years:               years,
		YearStart:           start,
		YearEnd:             end,
		Difficulty:          d.Difficulty,
		TimeMinutes:         d.TimeMinutes,
		RequiresExistingKey: d.RequiresExistingKey,
		RequiresLocksmith:   d.RequiresLocksmith,
		Author:              d.Author,
		PubDate:             c.PubDate,
		OldURL:              link,
	}
	if includeSteps {
		fm.Steps = c.Steps
	}
	return domain.Document{Frontmatter: fm, Body: c.Body}
}

// Render 输出 "---\n" + YAML + "---\n\n" + 正文。
//
// 约束：
// - 字段顺序固定，输出与输入逐字节确定（同一输入多次渲染结果相同）
// - 字符串一律双引号，由 YAML 编码器负责转义；布尔与整数不加引号
func Render(doc domain.Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delim)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node(doc.Frontmatter)); err != nil {
		return nil, fmt.Errorf("编码 frontmatter 失败：%w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("编码 frontmatter 失败：%w", err)
	}

	buf.WriteString(delim)
	buf.WriteString("\n")
	buf.WriteString(doc.Body)
	return buf.Bytes(), nil
}

func node(fm domain.Frontmatter) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	add := func(k string, v *yaml.Node) {
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, v)
	}
	add("title", str(fm.Title))
	add("description", str(fm.Description))
	add("make", str(fm.Make))
	add("model", str(fm.Model))
	add("years", str(fm.Years))
	add("yearStart", num(fm.YearStart))
	add("yearEnd", num(fm.YearEnd))
	add("difficulty", str(fm.Difficulty))
	add("timeMinutes", num(fm.TimeMinutes))
	add("requiresExistingKey", boolean(fm.RequiresExistingKey))
	add("requiresLocksmith", boolean(fm.RequiresLocksmith))
	add("author", str(fm.Author))
	add("pubDate", str(fm.PubDate))
	add("oldUrl", str(fm.OldURL))

	if len(fm.Steps) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, s := range fm.Steps {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: "step"}, num(s.Step),
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: "title"}, str(s.Title),
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: "description"}, str(s.Description),
			}})
		}
		add("steps", seq)
	}
	return m
}

func str(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: s}
}

func num(n int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(n)}
}

func boolean(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

// ErrNoFrontmatter 表示文件不以 "---" 行开头，或缺少结束分隔行。
var ErrNoFrontmatter = errors.New("缺少 frontmatter 分隔行")

// Split 把文档拆成 frontmatter YAML 与正文（正文去掉分隔行后紧跟的一个空行）。
func Split(data []byte) (head, body []byte, err error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, []byte(delim)) {
		return nil, nil, ErrNoFrontmatter
	}
	rest := data[len(delim):]

	var end int
	switch {
	case bytes.HasPrefix(rest, []byte(delim)):
		end = 0
	default:
		i := bytes.Index(rest, []byte("\n"+delim))
		if i < 0 {
			if bytes.HasSuffix(rest, []byte("\n---")) {
				return rest[:len(rest)-len("---")], nil, nil
			}
			return nil, nil, ErrNoFrontmatter
		}
		end = i + 1
	}
	head = rest[:end]
	body = rest[end+len(delim):]
	body = bytes.TrimPrefix(body, []byte("\n"))
	return head, body, nil
}

// Decode 把 frontmatter 解码到 v，并返回正文。
func Decode(data []byte, v any) ([]byte, error) {
	head, body, err := Split(data)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(head, v); err != nil {
		return nil, fmt.Errorf("解析 frontmatter 失败：%w", err)
	}
	return body, nil
}

// Parse 读回本工具生成的文档。
func Parse(data []byte) (domain.Document, error) {
	var fm domain.Frontmatter
	body, err := Decode(data, &fm)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{Frontmatter: fm, Body: string(body)}, nil
}
