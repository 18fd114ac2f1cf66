package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/wpmig/internal/config"
	"github.com/John-Robertt/wpmig/internal/domain"
	"github.com/John-Robertt/wpmig/internal/frontmatter"
	"github.com/John-Robertt/wpmig/internal/transform"
)

func rendered(t *testing.T, includeSteps bool) []byte {
	t.Helper()
	doc := frontmatter.Build(
		domain.VehicleMeta{Make: "Honda", Model: "Civic"},
		transform.Content{Title: "t", PubDate: "2021-04-09", Body: "x\n", Steps: []domain.Step{{Step: 1, Title: "Step 1", Description: "a"}}},
		config.BuiltinDefaults(),
		"https://example.com/honda/civic/x/",
		includeSteps,
	)
	b, err := frontmatter.Render(doc)
	require.NoError(t, err)
	return b
}

func violations(t *testing.T, err error) []Violation {
	t.Helper()
	var ce *ContractError
	require.True(t, errors.As(err, &ce), "期望 ContractError，实际=%v", err)
	return ce.Violations
}

func TestCheck_AcceptsRenderedDocuments(t *testing.T) {
	require.NoError(t, Check(rendered(t, false), false))
	require.NoError(t, Check(rendered(t, true), true))
	// 基础变体忽略未声明的 steps。
	require.NoError(t, Check(rendered(t, true), false))
}

func TestCheck_EmptyStringsArePresent(t *testing.T) {
	doc := []byte("---\ntitle: \"\"\ndescription: \"\"\nmake: \"\"\nmodel: \"\"\nyears: \"\"\nyearStart: 0\nyearEnd: 0\npubDate: \"\"\n---\n")
	require.NoError(t, Check(doc, false))
}

func TestCheck_MissingAndBadFields(t *testing.T) {
	doc := []byte("---\ntitle: \"t\"\ndescription: \"d\"\nmake: \"m\"\nmodel: \"m\"\nyears: \"unknown\"\nyearStart: 2000\nyearEnd: 2000\ndifficulty: \"extreme\"\n---\n\nbody")
	vs := violations(t, Check(doc, false))
	require.Len(t, vs, 2)
	require.Equal(t, Violation{Field: "difficulty", Rule: "oneof", Message: "取值必须为 easy/medium/hard 之一"}, vs[0])
	require.Equal(t, "pubDate", vs[1].Field)
	require.Equal(t, "required", vs[1].Rule)
}

func TestCheck_TypeMismatch(t *testing.T) {
	doc := []byte("---\ntitle: \"t\"\ndescription: \"d\"\nmake: \"m\"\nmodel: \"m\"\nyears: \"2019\"\nyearStart: \"soon\"\nyearEnd: 2019\npubDate: \"2019-01-01\"\n---\n")
	vs := violations(t, Check(doc, false))
	rules := map[string]bool{}
	for _, v := range vs {
		rules[v.Rule] = true
	}
	require.True(t, rules["type"], "期望类型错误：%+v", vs)
}

func TestCheck_ExtendedNestedArrays(t *testing.T) {
	doc := []byte("---\ntitle: \"t\"\ndescription: \"d\"\nmake: \"m\"\nmodel: \"m\"\nyears: \"2019\"\nyearStart: 2019\nyearEnd: 2019\npubDate: \"2019-01-01\"\n" +
		"compatibleFobs:\n  - partNumber: \"72147-TR0-A11\"\n" +
		"troubleshooting:\n  - problem: \"no response\"\n    solution: \"replace battery\"\n" +
		"steps:\n  - step: 0\n    title: \"Step 0\"\n    description: \"x\"\n" +
		"---\n")
	vs := violations(t, Check(doc, true))
	fields := make([]string, 0, len(vs))
	for _, v := range vs {
		fields = append(fields, v.Field)
	}
	require.ElementsMatch(t, []string{"compatibleFobs[0].name", "steps[0].step"}, fields)
}

func TestCheck_StructuralErrors(t *testing.T) {
	err := Check([]byte("# just markdown"), false)
	require.ErrorIs(t, err, frontmatter.ErrNoFrontmatter)

	err = Check([]byte("---\ntitle: [unclosed\n---\n"), false)
	require.Error(t, err)
	var ce *ContractError
	require.False(t, errors.As(err, &ce))
}
