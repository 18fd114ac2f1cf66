package transform

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/wpmig/internal/domain"
)

func TestExtractSteps_SingleList(t *testing.T) {
	steps, err := ExtractSteps(`<p>intro</p><ol><li>Insert key</li><li> Turn to ON </li><li>Press <b>lock</b></li></ol>`, OrdinalsPerList)
	require.NoError(t, err)
	require.Equal(t, []domain.Step{
		{Step: 1, Title: "Step 1", Description: "Insert key"},
		{Step: 2, Title: "Step 2", Description: "Turn to ON"},
		{Step: 3, Title: "Step 3", Description: "Press lock"},
	}, steps)
}

func TestExtractSteps_NoOrderedList(t *testing.T) {
	steps, err := ExtractSteps(`<ul><li>a</li><li>b</li></ul><p>text</p>`, OrdinalsPerList)
	require.NoError(t, err)
	require.Empty(t, steps)
}

func TestExtractSteps_SkipsEmptyItems(t *testing.T) {
	steps, err := ExtractSteps(`<ol><li>a</li><li>  </li><li>c</li></ol>`, OrdinalsPerList)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	require.Equal(t, 1, steps[0].Step)
	require.Equal(t, 3, steps[1].Step, "per_list 序号是 <li> 在列表中的位置")
}

func TestExtractSteps_MultipleLists(t *testing.T) {
	body := `<ol><li>a</li><li>b</li></ol><p>x</p><ol><li>c</li><li>d</li></ol>`

	perList, err := ExtractSteps(body, OrdinalsPerList)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 1, 2}, ordinals(perList))

	cont, err := ExtractSteps(body, OrdinalsContinuous)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4}, ordinals(cont))
	require.Equal(t, "Step 4", cont[3].Title)
	require.Equal(t, "d", cont[3].Description)
}

func TestExtractSteps_NestedListFoldsIntoParent(t *testing.T) {
	steps, err := ExtractSteps(`<ol><li>a<ol><li>inner</li></ol></li><li>b</li></ol>`, OrdinalsPerList)
	require.NoError(t, err)
	require.Equal(t, []domain.Step{
		{Step: 1, Title: "Step 1", Description: "ainner"},
		{Step: 2, Title: "Step 2", Description: "b"},
	}, steps)

	// <ul> 里的 <ol> 不在其他有序列表中，仍是步骤列表。
	steps, err = ExtractSteps(`<ul><li>x<ol><li>y</li></ol></li></ul><ol><li>z</li></ol>`, OrdinalsContinuous)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, ordinals(steps))
	require.Equal(t, "y", steps[0].Description)
	require.Equal(t, "z", steps[1].Description)
}

func ordinals(steps []domain.Step) []int {
	out := make([]int, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Step)
	}
	return out
}

func TestCleanTitle(t *testing.T) {
	require.Equal(t, `2019 Honda Civic - Remote & Key's <Guide>`,
		CleanTitle(`2019 Honda Civic &#8211; Remote &amp; Key&#8217;s &lt;Guide&gt;`))
	// 顺序替换：&amp;lt; 先变为 &lt; 再变为 <。
	require.Equal(t, "<", CleanTitle("&amp;lt;"))
	require.Equal(t, `Say "hi"`, CleanTitle(`Say "hi"`))
}

func TestDescription(t *testing.T) {
	got := Description("<p>Program your\nremote &amp; save</p>\n")
	require.Equal(t, "Program your remote & save", got)
}

func TestDescription_DecodesEntities(t *testing.T) {
	got := Description("<p>Pair the fob in minutes. Don&#8217;t skip step two [&hellip;]</p>\n")
	require.Equal(t, "Pair the fob in minutes. Don\u2019t skip step two [\u2026]", got)
}

func TestDescription_TruncatesTo200(t *testing.T) {
	long := "<p>" + strings.Repeat("é", 150) + strings.Repeat("a", 150) + "</p>"
	got := Description(long)
	require.Equal(t, DescriptionLimit, utf8.RuneCountInString(got))
	require.True(t, strings.HasPrefix(got, strings.Repeat("é", 150)))
}

func TestMarkdown_Convert(t *testing.T) {
	md, err := NewMarkdown().Convert(`<h2>Steps</h2><ul><li>one</li></ul><pre><code>x := 1</code></pre><p><strong>Done</strong></p>`)
	require.NoError(t, err)
	require.Contains(t, md, "## Steps")
	require.Contains(t, md, "- one")
	require.Contains(t, md, "```")
	require.Contains(t, md, "**Done**")
	require.True(t, strings.HasSuffix(md, "\n"))
}

func TestTransform(t *testing.T) {
	tr := New("")
	c, err := tr.Transform(domain.Post{
		ID:      7,
		Date:    "2021-04-09T12:30:00",
		Title:   domain.Rendered{Rendered: "Civic &amp; Accord"},
		Content: domain.Rendered{Rendered: "<ol><li>a</li></ol>"},
		Excerpt: domain.Rendered{Rendered: "<p>short</p>"},
	})
	require.NoError(t, err)
	require.Equal(t, "Civic & Accord", c.Title)
	require.Equal(t, "short", c.Description)
	require.Equal(t, "2021-04-09", c.PubDate)
	require.Len(t, c.Steps, 1)
}

func TestTransform_DateWrittenAsIs(t *testing.T) {
	c, err := New(OrdinalsPerList).Transform(domain.Post{ID: 3, Date: "yesterday"})
	require.NoError(t, err)
	require.Equal(t, "yesterday", c.PubDate)
}

func TestPubDate(t *testing.T) {
	require.Equal(t, "2020-02-29", PubDate("2020-02-29T00:00:00"))
	require.Equal(t, "2021-02-30", PubDate("2021-02-30T00:00:00"))
	require.Equal(t, "", PubDate(""))
}
