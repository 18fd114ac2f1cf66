package transform

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/wpmig/internal/domain"
)

// StepOrdinals 控制多段有序列表时步骤序号的计算方式。
type StepOrdinals string

const (
	// OrdinalsPerList：每个 <ol> 内从 1 重新计数（迁移前的行为）。
	OrdinalsPerList StepOrdinals = "per_list"
	// OrdinalsContinuous：整篇文章连续计数。
	OrdinalsContinuous StepOrdinals = "continuous"
)

// ExtractSteps 按文档顺序遍历最外层的 <ol>，取每个直接子 <li> 的文本作为一个步骤。
//
// 规则：
// - 只看有序列表；文本去首尾空白后为空的 <li> 跳过
// - 嵌套在另一个 <ol> 里的 <ol> 不单独成步骤，其文本并入外层 <li>
// - per_list：序号是 <li> 在所在列表中的位置（跳过的空项也占位）
// - continuous：序号跨列表递增，只对保留下来的步骤计数
func ExtractSteps(body string, mode StepOrdinals) ([]domain.Step, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("解析正文 HTML 失败：%w", err)
	}

	var steps []domain.Step
	doc.Find("ol").FilterFunction(func(_ int, ol *goquery.Selection) bool {
		return ol.ParentsFiltered("ol").Length() == 0
	}).Each(func(_ int, ol *goquery.Selection) {
		ol.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
			text := strings.TrimSpace(li.Text())
			if text == "" {
				return
			}
			n := i + 1
			if mode == OrdinalsContinuous {
				n = len(steps) + 1
			}
			steps = append(steps, domain.Step{
				Step:        n,
				Title:       fmt.Sprintf("Step %d", n),
				Description: text,
			})
		})
	})
	return steps, nil
}
