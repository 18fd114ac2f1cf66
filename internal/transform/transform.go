package transform

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/wpmig/internal/domain"
)

// Content 是一篇文章转换后的内容部分（与 URL 推断的元数据无关）。
type Content struct {
	Title       string
	Description string
	PubDate     string // date 中 "T" 之前的部分，通常为 YYYY-MM-DD
	Body        string // Markdown
	Steps       []domain.Step
}

// Error 表示单篇文章的内容转换失败；由编排层记为 transform_failed。
type Error struct {
	PostID int
	Field  string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("post %d 的 %s 无法转换：%v", e.PostID, e.Field, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transformer 组合 Markdown 转换、文本清理与步骤提取。
type Transformer struct {
	Markdown *Markdown
	Ordinals StepOrdinals
}

func New(ordinals StepOrdinals) *Transformer {
	if ordinals == "" {
		ordinals = OrdinalsPerList
	}
	return &Transformer{Markdown: NewMarkdown(), Ordinals: ordinals}
}

func (t *Transformer) Transform(p domain.Post) (Content, error) {
	body, err := t.Markdown.Convert(p.Content.Rendered)
	if err != nil {
		return Content{}, &Error{PostID: p.ID, Field: "content", Err: err}
	}
	steps, err := ExtractSteps(p.Content.Rendered, t.Ordinals)
	if err != nil {
		return Content{}, &Error{PostID: p.ID, Field: "content", Err: err}
	}
	return Content{
		Title:       CleanTitle(p.Title.Rendered),
		Description: Description(p.Excerpt.Rendered),
		PubDate:     PubDate(p.Date),
		Body:        body,
		Steps:       steps,
	}, nil
}

// PubDate 取 ISO-8601 时间中 "T" 之前的部分，原样写入 frontmatter（不做日历校验）。
func PubDate(date string) string {
	d, _, _ := strings.Cut(strings.TrimSpace(date), "T")
	return d
}
