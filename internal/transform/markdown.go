package transform

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

// Markdown 把文章正文 HTML 转为 Markdown：ATX 标题、``` 代码块、"-" 列表标记。
// 转换器无状态，可在整个 run 内复用。
type Markdown struct {
	conv *converter.Converter
}

func NewMarkdown() *Markdown {
	return &Markdown{conv: converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
				commonmark.WithBulletListMarker("-"),
				commonmark.WithCodeBlockFence("```"),
			),
		),
	)}
}

func (m *Markdown) Convert(html string) (string, error) {
	md, err := m.conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("HTML 转 Markdown 失败：%w", err)
	}
	return strings.TrimSpace(md) + "\n", nil
}
