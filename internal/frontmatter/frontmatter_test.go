package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/wpmig/internal/config"
	"github.com/John-Robertt/wpmig/internal/domain"
	"github.com/John-Robertt/wpmig/internal/transform"
)

const link = "https://programcarremotes.com/honda/civic/2019-honda-civic/"

func sampleContent() transform.Content {
	return transform.Content{
		Title:       `Civic "Remote" & Key`,
		Description: "d",
		PubDate:     "2021-04-09",
		Body:        "body\n",
		Steps:       []domain.Step{{Step: 1, Title: "Step 1", Description: "a"}},
	}
}

func TestRender_Golden(t *testing.T) {
	doc := Build(domain.VehicleMeta{Make: "Honda", Model: "Civic", Year: "2019"}, sampleContent(), config.BuiltinDefaults(), link, false)

	got, err := Render(doc)
	require.NoError(t, err)
	want := "---\n" +
		"title: \"Civic \\\"Remote\\\" & Key\"\n" +
		"description: \"d\"\n" +
		"make: \"Honda\"\n" +
		"model: \"Civic\"\n" +
		"years: \"2019\"\n" +
		"yearStart: 2019\n" +
		"yearEnd: 2019\n" +
		"difficulty: \"easy\"\n" +
		"timeMinutes: 5\n" +
		"requiresExistingKey: true\n" +
		"requiresLocksmith: false\n" +
		"author: \"The Remote Guy\"\n" +
		"pubDate: \"2021-04-09\"\n" +
		"oldUrl: \"" + link + "\"\n" +
		"---\n\n" +
		"body\n"
	require.Equal(t, want, string(got))
}

func TestBuild_UnknownYearUsesDefaults(t *testing.T) {
	d := config.BuiltinDefaults()
	doc := Build(domain.VehicleMeta{Make: "Unknown", Model: "Unknown"}, sampleContent(), d, link, false)

	fm := doc.Frontmatter
	require.Equal(t, "unknown", fm.Years)
	require.Equal(t, 2000, fm.YearStart)
	require.Equal(t, 2000, fm.YearEnd)
	require.Equal(t, "easy", fm.Difficulty)
	require.Equal(t, 5, fm.TimeMinutes)
	require.True(t, fm.RequiresExistingKey)
	require.False(t, fm.RequiresLocksmith)
	require.Equal(t, "The Remote Guy", fm.Author)
	require.Equal(t, link, fm.OldURL)
	require.Empty(t, fm.Steps)
}

func TestRender_RoundTripWithSteps(t *testing.T) {
	c := sampleContent()
	c.Title = "tricky: \"quotes\" \\ backslash\n#hash"
	c.Steps = append(c.Steps, domain.Step{Step: 2, Title: "Step 2", Description: `say "ok"`})
	doc := Build(domain.VehicleMeta{Make: "Ford", Model: "F 150", Year: "2015"}, c, config.BuiltinDefaults(), link, true)

	b, err := Render(doc)
	require.NoError(t, err)
	back, err := Parse(b)
	require.NoError(t, err)
	require.Equal(t, doc, back)
}

func TestRender_Deterministic(t *testing.T) {
	doc := Build(domain.VehicleMeta{Make: "Kia", Model: "Soul"}, sampleContent(), config.BuiltinDefaults(), link, true)
	a, err := Render(doc)
	require.NoError(t, err)
	b, err := Render(doc)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestSplit(t *testing.T) {
	head, body, err := Split([]byte("---\r\na: 1\r\n---\r\n\r\nhello\r\n"))
	require.NoError(t, err)
	require.Equal(t, "a: 1\n", string(head))
	require.Equal(t, "hello\n", string(body))

	head, body, err = Split([]byte("---\n---\nx"))
	require.NoError(t, err)
	require.Empty(t, head)
	require.Equal(t, "x", string(body))

	_, _, err = Split([]byte("no frontmatter"))
	require.True(t, errors.Is(err, ErrNoFrontmatter))

	_, _, err = Split([]byte("---\na: 1\n"))
	require.True(t, errors.Is(err, ErrNoFrontmatter))
}
