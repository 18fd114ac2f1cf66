package wp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/wpmig/internal/domain"
	"github.com/John-Robertt/wpmig/internal/infra/cache"
)

// pagedServer 按 sizes[page-1] 返回对应数量的文章；超出 sizes 的页返回 endStatus。
func pagedServer(t *testing.T, sizes []int, endStatus int) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if page > len(sizes) {
			w.WriteHeader(endStatus)
			_, _ = w.Write([]byte(`{"code":"rest_post_invalid_page_number"}`))
			return
		}
		offset := 0
		for _, n := range sizes[:page-1] {
			offset += n
		}
		posts := make([]domain.Post, 0, sizes[page-1])
		for i := 0; i < sizes[page-1]; i++ {
			posts = append(posts, domain.Post{ID: offset + i + 1, Slug: "p" + strconv.Itoa(offset+i+1)})
		}
		_ = json.NewEncoder(w).Encode(posts)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newFetcher(srv *httptest.Server) Fetcher {
	return Fetcher{Source: &Client{BaseURL: srv.URL, HTTP: srv.Client(), PerPage: 100}}
}

func TestFetchAll_StopsOnEmptyPage(t *testing.T) {
	srv, hits := pagedServer(t, []int{100, 100, 37, 0}, http.StatusBadRequest)

	posts, err := newFetcher(srv).Posts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 237)
	require.Equal(t, int32(4), atomic.LoadInt32(hits))
	for i, p := range posts {
		require.Equal(t, i+1, p.ID, "结果应保持请求顺序")
	}
}

func TestFetchAll_EndStatusIsCleanEnd(t *testing.T) {
	srv, _ := pagedServer(t, []int{100, 100}, http.StatusBadRequest)

	posts, err := newFetcher(srv).Posts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 200)
}

func TestFetchAll_OtherStatusIsFatal(t *testing.T) {
	srv, _ := pagedServer(t, []int{100}, http.StatusInternalServerError)

	_, err := newFetcher(srv).Posts(context.Background())
	require.Error(t, err)
	var se *HTTPStatusError
	require.True(t, errors.As(err, &se), "期望 HTTPStatusError，实际=%v", err)
	require.Equal(t, http.StatusInternalServerError, se.StatusCode)
}

func TestFetchAll_ConfiguredEndStatuses(t *testing.T) {
	srv, _ := pagedServer(t, []int{3}, http.StatusNotFound)
	f := Fetcher{Source: &Client{BaseURL: srv.URL, HTTP: srv.Client(), EndStatuses: []int{400, 404}}}

	posts, err := f.Posts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 3)
}

func TestFetchAll_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	_, err := newFetcher(srv).Categories(context.Background())
	var de *DecodeError
	require.True(t, errors.As(err, &de), "期望 DecodeError，实际=%v", err)
	require.Equal(t, "categories", de.Collection)
	require.Equal(t, 1, de.Page)
}

func TestClient_QueryParameters(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.URL.Path+"?"+r.URL.RawQuery)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := Fetcher{Source: &Client{BaseURL: srv.URL + "/wp-json/wp/v2/", HTTP: srv.Client(), PerPage: 100}}
	_, err := f.Posts(context.Background())
	require.NoError(t, err)
	_, err = f.Categories(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{
		"/wp-json/wp/v2/posts?_embed=&page=1&per_page=100",
		"/wp-json/wp/v2/categories?page=1&per_page=100",
	}, got)
}

func TestFetchAll_DelayBetweenPages(t *testing.T) {
	srv, _ := pagedServer(t, []int{1, 1, 1}, http.StatusBadRequest)
	f := newFetcher(srv)
	f.Delay = 20 * time.Millisecond

	start := time.Now()
	posts, err := f.Posts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 3)
	// 4 次请求 => 至少 3 个间隔。
	require.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestFetchAll_ContextCanceled(t *testing.T) {
	srv, _ := pagedServer(t, []int{1, 1, 1}, http.StatusBadRequest)
	f := newFetcher(srv)
	f.Delay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := f.Posts(ctx)
	require.Error(t, err)
}

func TestRecorderAndSnapshot_RoundTrip(t *testing.T) {
	srv, hits := pagedServer(t, []int{2, 1}, http.StatusBadRequest)
	store := cache.New(t.TempDir(), false)

	// 旧快照中多余的第 9 页应在第 1 页时被清理。
	require.NoError(t, store.WritePage("posts", 9, []byte(`[{"id":999}]`)))

	rec := Fetcher{Source: Recorder{Source: &Client{BaseURL: srv.URL, HTTP: srv.Client()}, Store: store}}
	online, err := rec.Posts(context.Background())
	require.NoError(t, err)
	require.Len(t, online, 3)

	_, ok, err := store.ReadPage("posts", 9)
	require.NoError(t, err)
	require.False(t, ok)

	before := atomic.LoadInt32(hits)
	offline, err := Fetcher{Source: Snapshot{Store: cache.New(store.Root, true)}}.Posts(context.Background())
	require.NoError(t, err)
	require.Equal(t, online, offline)
	require.Equal(t, before, atomic.LoadInt32(hits), "离线模式不应访问网络")
}

func TestRecorder_EmptyCollectionClearsStaleSnapshot(t *testing.T) {
	srv, _ := pagedServer(t, nil, http.StatusBadRequest)
	store := cache.New(t.TempDir(), false)
	require.NoError(t, store.WritePage("categories", 1, []byte(`[{"id":42,"name":"stale"}]`)))
	require.NoError(t, store.WritePage("categories", 2, []byte(`[{"id":43,"name":"stale"}]`)))

	rec := Fetcher{Source: Recorder{Source: &Client{BaseURL: srv.URL, HTTP: srv.Client()}, Store: store}}
	online, err := rec.Categories(context.Background())
	require.NoError(t, err)
	require.Empty(t, online)

	_, ok, err := store.ReadPage("categories", 2)
	require.NoError(t, err)
	require.False(t, ok)

	offline, err := Fetcher{Source: Snapshot{Store: cache.New(store.Root, true)}}.Categories(context.Background())
	require.NoError(t, err)
	require.Empty(t, offline, "离线重放不应读到旧快照")
}

func TestSnapshot_MissingFirstPage(t *testing.T) {
	f := Fetcher{Source: Snapshot{Store: cache.New(t.TempDir(), true)}}

	_, err := f.Categories(context.Background())
	var me *SnapshotMissingError
	require.True(t, errors.As(err, &me), "期望 SnapshotMissingError，实际=%v", err)
	require.Equal(t, "categories", me.Collection)
}

func TestIndexCategories(t *testing.T) {
	idx := IndexCategories([]domain.Category{
		{ID: 3, Name: "Honda", Slug: "honda"},
		{ID: 7, Name: "Civic", Slug: "civic", Parent: 3, Description: "d"},
	})
	require.Len(t, idx, 2)
	require.Equal(t, domain.CategoryInfo{Name: "Civic", Slug: "civic", Parent: 3, Description: "d"}, idx[7])
}
