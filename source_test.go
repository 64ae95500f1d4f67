package folio

import (
	"context"
	"sort"
	"sync"

	"github.com/eringen/folio/cms"
)

// fakeSource is an in-memory ContentSource. pages[""] is the first listing
// page; other keys are cursors.
type fakeSource struct {
	mu      sync.Mutex
	pages   map[string]cms.PostPagination
	posts   map[string]cms.Post
	listErr error
	nextErr error
	postErr error

	listCalls int
	nextCalls int
	postCalls int
	pageSizes []int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages: map[string]cms.PostPagination{},
		posts: map[string]cms.Post{},
	}
}

func (f *fakeSource) ListPosts(ctx context.Context, pageSize int) (cms.PostPagination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.pageSizes = append(f.pageSizes, pageSize)
	if f.listErr != nil {
		return cms.PostPagination{}, f.listErr
	}
	return f.pages[""], nil
}

func (f *fakeSource) NextPosts(ctx context.Context, nextPage string) (cms.PostPagination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextCalls++
	if f.nextErr != nil {
		return cms.PostPagination{}, f.nextErr
	}
	page, ok := f.pages[nextPage]
	if !ok {
		return cms.PostPagination{}, &cms.Error{Kind: cms.KindNotFound, Op: "fetch page"}
	}
	return page, nil
}

func (f *fakeSource) PostUIDs(ctx context.Context, pageSize int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var uids []string
	for uid := range f.posts {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	if len(uids) > pageSize {
		uids = uids[:pageSize]
	}
	return uids, nil
}

func (f *fakeSource) Post(ctx context.Context, uid string) (cms.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.postCalls++
	if f.postErr != nil {
		return cms.Post{}, f.postErr
	}
	p, ok := f.posts[uid]
	if !ok {
		return cms.Post{}, &cms.Error{Kind: cms.KindNotFound, Op: "get by uid"}
	}
	return p, nil
}

func (f *fakeSource) counts() (list, next, post int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.nextCalls, f.postCalls
}
