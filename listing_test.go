package folio

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/cms"
)

type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]cms.PostPagination
	err     error
	cursors []string
	gate    chan struct{} // when set, NextPosts blocks until it is closed
	entered chan struct{}
}

func (f *fakeFetcher) NextPosts(ctx context.Context, nextPage string) (cms.PostPagination, error) {
	f.mu.Lock()
	f.cursors = append(f.cursors, nextPage)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return cms.PostPagination{}, f.err
	}
	return f.pages[nextPage], nil
}

func (f *fakeFetcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cursors...)
}

func listPost(uid string) cms.ListPost {
	return cms.ListPost{UID: uid, Data: cms.ListPostData{Title: "Title " + uid}}
}

func uids(posts []cms.ListPost) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.UID
	}
	return out
}

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetLevel(log.OFF)
	return l
}

func TestLoadMoreAppendsAndAdvancesCursor(t *testing.T) {
	f := &fakeFetcher{pages: map[string]cms.PostPagination{
		"cursor-2": {NextPage: "cursor-3", Results: []cms.ListPost{listPost("b"), listPost("c")}},
		"cursor-3": {NextPage: "", Results: []cms.ListPost{listPost("d")}},
	}}
	l := NewListing(cms.PostPagination{NextPage: "cursor-2", Results: []cms.ListPost{listPost("a")}}, f, quietLogger())

	added, err := l.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, uids(added))
	assert.Equal(t, []string{"a", "b", "c"}, uids(l.Posts()))
	assert.Equal(t, "cursor-3", l.NextPage())
	assert.True(t, l.HasMore())

	added, err = l.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, uids(added))
	assert.Equal(t, []string{"a", "b", "c", "d"}, uids(l.Posts()))
	assert.Empty(t, l.NextPage())
	assert.False(t, l.HasMore())

	assert.Equal(t, []string{"cursor-2", "cursor-3"}, f.calls())
}

func TestLoadMoreWithoutCursorIsNoop(t *testing.T) {
	f := &fakeFetcher{}
	l := NewListing(cms.PostPagination{Results: []cms.ListPost{listPost("a")}}, f, quietLogger())

	added, err := l.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, added)
	assert.Equal(t, []string{"a"}, uids(l.Posts()))
	assert.Empty(t, f.calls())
}

func TestLoadMoreEmptyPageEndsPagination(t *testing.T) {
	f := &fakeFetcher{pages: map[string]cms.PostPagination{"c2": {}}}
	l := NewListing(cms.PostPagination{NextPage: "c2", Results: []cms.ListPost{listPost("a")}}, f, quietLogger())

	added, err := l.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.Equal(t, []string{"a"}, uids(l.Posts()))
	assert.False(t, l.HasMore())

	_, err = l.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.calls(), 1)
}

func TestLoadMoreFailureLeavesStateUnchanged(t *testing.T) {
	f := &fakeFetcher{err: &cms.Error{Kind: cms.KindNetwork, Op: "fetch page"}}
	l := NewListing(cms.PostPagination{NextPage: "c2", Results: []cms.ListPost{listPost("a")}}, f, quietLogger())

	added, err := l.LoadMore(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, cms.ErrNetwork))
	assert.Nil(t, added)
	assert.Equal(t, []string{"a"}, uids(l.Posts()))
	assert.Equal(t, "c2", l.NextPage())

	// A later attempt retries the same cursor.
	f.err = nil
	f.pages = map[string]cms.PostPagination{"c2": {Results: []cms.ListPost{listPost("b")}}}
	_, err = l.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, uids(l.Posts()))
	assert.Equal(t, []string{"c2", "c2"}, f.calls())
}

func TestLoadMoreRejectsConcurrentCall(t *testing.T) {
	f := &fakeFetcher{
		pages:   map[string]cms.PostPagination{"c2": {Results: []cms.ListPost{listPost("b")}}},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	l := NewListing(cms.PostPagination{NextPage: "c2", Results: []cms.ListPost{listPost("a")}}, f, quietLogger())

	done := make(chan error, 1)
	go func() {
		_, err := l.LoadMore(context.Background())
		done <- err
	}()
	<-f.entered

	added, err := l.LoadMore(context.Background())
	assert.ErrorIs(t, err, ErrLoadInFlight)
	assert.Nil(t, added)
	assert.Equal(t, []string{"a"}, uids(l.Posts()))

	close(f.gate)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"a", "b"}, uids(l.Posts()))
	assert.Len(t, f.calls(), 1)
}

func TestListingCopiesInitialPage(t *testing.T) {
	first := cms.PostPagination{NextPage: "c2", Results: []cms.ListPost{listPost("a")}}
	l := NewListing(first, &fakeFetcher{}, nil)

	first.Results[0].UID = "changed"
	posts := l.Posts()
	posts[0].UID = "changed too"

	assert.Equal(t, []string{"a"}, uids(l.Posts()))
}
