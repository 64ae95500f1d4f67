package cms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rootJSON = `{"refs":[{"id":"preview","ref":"PREVIEW","isMasterRef":false},{"id":"master","ref":"MASTER","isMasterRef":true}]}`

func listDoc(uid, title string) string {
	return fmt.Sprintf(`{"id":"id-%[1]s","uid":"%[1]s","type":"post","first_publication_date":"2021-03-25T19:25:28+0000","last_publication_date":null,"data":{"title":%[2]q,"subtitle":"sub %[1]s","author":"Ana","extra":"dropped"}}`, uid, title)
}

type fakeAPI struct {
	srv      *httptest.Server
	searches atomic.Int32
	lastPath atomic.Value
}

func newFakeAPI(t *testing.T, search func(w http.ResponseWriter, r *http.Request, base string)) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(rootJSON))
	})
	mux.HandleFunc("/api/v2/documents/search", func(w http.ResponseWriter, r *http.Request) {
		f.searches.Add(1)
		f.lastPath.Store(r.URL.RequestURI())
		w.Header().Set("Content-Type", "application/json")
		search(w, r, f.srv.URL)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) client(opts ...ClientOption) *Client {
	return NewClient(f.srv.URL+"/api/v2", "secret-token", opts...)
}

func TestQueryBuildsSearchRequest(t *testing.T) {
	var got *http.Request
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, base string) {
		got = r
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"next_page":null,"results":[]}`))
	})

	_, err := api.client().Query(context.Background(), Query{
		Predicates: []string{At("document.type", "post")},
		Fetch:      []string{"post.title", "post.author"},
		PageSize:   1,
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	q := got.URL.Query()
	assert.Equal(t, "MASTER", q.Get("ref"))
	assert.Equal(t, `[[at(document.type,"post")]]`, q.Get("q"))
	assert.Equal(t, "post.title,post.author", q.Get("fetch"))
	assert.Equal(t, "1", q.Get("pageSize"))
	assert.Equal(t, "secret-token", q.Get("access_token"))
}

func TestListPostsProjectsListView(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, base string) {
		fmt.Fprintf(w, `{"page":1,"total_pages":2,"next_page":"%s/api/v2/documents/search?ref=MASTER&page=2&pageSize=1","results":[%s]}`,
			base, listDoc("first-post", "First"))
	})

	page, err := api.client().ListPosts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)

	p := page.Results[0]
	assert.Equal(t, "first-post", p.UID)
	assert.Equal(t, "First", p.Data.Title)
	assert.Equal(t, "sub first-post", p.Data.Subtitle)
	assert.Equal(t, "Ana", p.Data.Author)
	require.NotNil(t, p.FirstPublicationDate)
	assert.Equal(t, 2021, p.FirstPublicationDate.Year())
	assert.True(t, strings.HasSuffix(page.NextPage, "page=2&pageSize=1"))
}

func TestNextPostsUsesCursorVerbatim(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, base string) {
		_, _ = w.Write([]byte(`{"page":2,"total_pages":2,"next_page":null,"results":[` + listDoc("second", "Second") + `]}`))
	})

	cursor := api.srv.URL + "/api/v2/documents/search?ref=MASTER&page=2&pageSize=1&zzz=kept"
	page, err := api.client().NextPosts(context.Background(), cursor)
	require.NoError(t, err)

	assert.Equal(t, "/api/v2/documents/search?ref=MASTER&page=2&pageSize=1&zzz=kept", api.lastPath.Load())
	assert.Empty(t, page.NextPage)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "second", page.Results[0].UID)
}

func TestFetchPageRejectsEmptyCursor(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, base string) {})

	_, err := api.client().FetchPage(context.Background(), "")
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.Equal(t, int32(0), api.searches.Load())
}

func TestPostDecodesDetailView(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, base string) {
		assert.Equal(t, `[[at(my.post.uid,"hello")]]`, r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"page":1,"next_page":null,"results":[{
			"id":"X","uid":"hello","type":"post","first_publication_date":"2021-03-25T19:25:28+0000",
			"data":{"title":"Hello","author":"Ana","banner":{"url":"https://images.example.com/b.png","dimensions":{"width":1}},
			"content":[{"heading":"Intro","body":[{"type":"paragraph","text":"one two","spans":[]}]}]}}]}`))
	})

	post, err := api.client().Post(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", post.UID)
	assert.Equal(t, "Hello", post.Data.Title)
	assert.Equal(t, "https://images.example.com/b.png", post.Data.Banner.URL)
	require.Len(t, post.Data.Content, 1)
	assert.Equal(t, "Intro", post.Data.Content[0].Heading)
	require.Len(t, post.Data.Content[0].Body, 1)
	assert.Equal(t, "one two", post.Data.Content[0].Body[0].Text)
}

func TestPostNotFound(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, base string) {
		_, _ = w.Write([]byte(`{"page":1,"next_page":null,"results":[]}`))
	})

	_, err := api.client().Post(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrNetwork))
}

func TestPostRejectsContentWithoutHeading(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, base string) {
		_, _ = w.Write([]byte(`{"page":1,"next_page":null,"results":[{"uid":"bad","type":"post",
			"data":{"title":"Bad","content":[{"body":[]}]}}]}`))
	})

	_, err := api.client().Post(context.Background(), "bad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.Contains(t, err.Error(), "missing heading")
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", http.StatusInternalServerError, `{}`, ErrStatus},
		{"not found status", http.StatusNotFound, `{}`, ErrNotFound},
		{"invalid json", http.StatusOK, `{"results":`, ErrMalformed},
		{"missing results", http.StatusOK, `{"page":1}`, ErrMalformed},
		{"bad timestamp", http.StatusOK, `{"results":[{"uid":"x","first_publication_date":"yesterday","data":{}}]}`, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, base string) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := api.client().ListPosts(context.Background(), 1)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNetworkError(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, base string) {})
	c := api.client()
	api.srv.Close()

	_, err := c.ListPosts(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestErrorRedactsAccessToken(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, base string) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := api.client().ListPosts(context.Background(), 1)
	var cmsErr *Error
	require.True(t, errors.As(err, &cmsErr))
	assert.Equal(t, http.StatusBadGateway, cmsErr.StatusCode)
	assert.NotContains(t, cmsErr.URL, "secret-token")
}

func TestPostUIDs(t *testing.T) {
	api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request, base string) {
		assert.Empty(t, r.URL.Query().Get("fetch"))
		_, _ = w.Write([]byte(`{"results":[` + listDoc("a", "A") + `,` + listDoc("b", "B") + `]}`))
	})

	uids, err := api.client().PostUIDs(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, uids)
}
