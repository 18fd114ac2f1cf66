package transform

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DescriptionLimit 是 description 的最大字符数（按 rune 计，硬截断）。
const DescriptionLimit = 200

// 标题只解码站点实际出现的几个实体，按顺序逐个替换：
// "&amp;lt;" 先变成 "&lt;" 再变成 "<"。
var titleEntities = [][2]string{
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&#8211;", "-"},
	{"&#8217;", "'"},
}

// CleanTitle 解码标题中的实体。引号转义交给 YAML 序列化。
func CleanTitle(rendered string) string {
	s := rendered
	for _, e := range titleEntities {
		s = strings.ReplaceAll(s, e[0], e[1])
	}
	return s
}

var strict = bluemonday.StrictPolicy()

// Description 把摘要 HTML 转为纯文本：去标签、解码实体、换行变空格、去首尾空白，最多 200 字符。
func Description(excerpt string) string {
	s := html.UnescapeString(strict.Sanitize(excerpt))
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > DescriptionLimit {
		s = string(r[:DescriptionLimit])
	}
	return s
}
