package run

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/wpmig/internal/config"
	"github.com/John-Robertt/wpmig/internal/domain"
)

const origin = "https://programcarremotes.com"

// fakeWP 模拟 WordPress REST 分页：越界页返回 400（rest_post_invalid_page_number）。
type fakeWP struct {
	mu     sync.Mutex
	posts  []domain.Post
	cats   []domain.Category
	status map[string]int // collection -> 强制返回的状态码
	hits   int
}

func (f *fakeWP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits++

	coll := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	if st, ok := f.status[coll]; ok {
		w.WriteHeader(st)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	per, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 || per < 1 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var items []any
	switch coll {
	case "posts":
		for _, p := range f.posts {
			items = append(items, p)
		}
	case "categories":
		for _, c := range f.cats {
			items = append(items, c)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	start := (page - 1) * per
	if start >= len(items) && page > 1 {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"rest_post_invalid_page_number"}`))
		return
	}
	end := start + per
	if end > len(items) {
		end = len(items)
	}
	out := items[start:end]
	if out == nil {
		out = []any{}
	}
	_ = json.NewEncoder(w).Encode(out)
}

func newFakeWP(t *testing.T, posts []domain.Post) (*fakeWP, *httptest.Server) {
	t.Helper()
	f := &fakeWP{
		posts: posts,
		cats: []domain.Category{
			{ID: 1, Name: "Honda", Slug: "honda"},
			{ID: 2, Name: "Civic", Slug: "civic", Parent: 1},
			{ID: 3, Name: "Kia", Slug: "kia"},
		},
		status: map[string]int{},
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func post(id int, mk, model, slug string) domain.Post {
	return domain.Post{
		ID:         id,
		Link:       origin + "/" + mk + "/" + model + "/" + slug + "/",
		Slug:       slug,
		Date:       "2021-04-09T12:30:00",
		Title:      domain.Rendered{Rendered: "Post " + strconv.Itoa(id) + " &#8211; Remote &amp; Key"},
		Content:    domain.Rendered{Rendered: "<h2>How to</h2><ol><li>Insert key</li><li>Press lock</li></ol>"},
		Excerpt:    domain.Rendered{Rendered: "<p>Program the remote for post " + strconv.Itoa(id) + "</p>\n"},
		Categories: []int{1, 2},
	}
}

func testConfig(root, apiBase string) config.EffectiveConfig {
	return config.EffectiveConfig{
		Root:          root,
		APIBase:       apiBase,
		SiteOrigin:    origin,
		ContentDir:    filepath.Join(root, "src", "content", "instructions"),
		RedirectsFile: filepath.Join(root, "redirects.json"),
		PerPage:       2,
		EndStatuses:   []int{400},
		Timeout:       5 * time.Second,
		StepOrdinals:  config.StepOrdinalsPerList,
		Defaults:      config.BuiltinDefaults(),
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

// snapshotTree 返回 dir 下所有文件的 rel -> 内容。
func snapshotTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[rel] = string(b)
		return nil
	})
	require.NoError(t, err)
	return out
}
