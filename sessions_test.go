package folio

import (
	"fmt"
	"testing"
	"time"

	"github.com/eringen/folio/cms"
)

func emptyListing() *Listing {
	return NewListing(cms.PostPagination{}, &fakeFetcher{}, quietLogger())
}

func TestListingRegistryPutGet(t *testing.T) {
	r := NewListingRegistry(time.Minute)
	defer r.Stop()

	l := emptyListing()
	r.Put("visitor-1", "view-1", l)

	got, ok := r.Get("visitor-1", "view-1")
	if !ok || got != l {
		t.Fatalf("Get returned %v, %v; want the stored listing", got, ok)
	}
	if _, ok := r.Get("visitor-1", "view-2"); ok {
		t.Fatal("unknown view should not have a listing")
	}
	if _, ok := r.Get("visitor-2", "view-1"); ok {
		t.Fatal("a listing must not be visible to another session")
	}
	if _, ok := r.Get("", ""); ok {
		t.Fatal("empty ids should not have a listing")
	}
}

func TestListingRegistryKeepsViewsApart(t *testing.T) {
	r := NewListingRegistry(time.Minute)
	defer r.Stop()

	first, second := emptyListing(), emptyListing()
	r.Put("visitor", "tab-a", first)
	r.Put("visitor", "tab-b", second)

	if got, _ := r.Get("visitor", "tab-a"); got != first {
		t.Fatal("opening a second view replaced the first one")
	}
	if got, _ := r.Get("visitor", "tab-b"); got != second {
		t.Fatal("second view not stored")
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

func TestListingRegistryCapsViewsPerSession(t *testing.T) {
	r := NewListingRegistry(time.Minute)
	defer r.Stop()

	r.Put("visitor", "oldest", emptyListing())
	time.Sleep(time.Millisecond)
	for i := 1; i < maxListingsPerSession; i++ {
		r.Put("visitor", fmt.Sprintf("view-%d", i), emptyListing())
		time.Sleep(time.Millisecond)
	}
	// Touch the oldest so view-1 becomes the least recently used.
	if _, ok := r.Get("visitor", "oldest"); !ok {
		t.Fatal("oldest view missing before the cap is reached")
	}
	r.Put("visitor", "newest", emptyListing())

	if r.Len() != maxListingsPerSession {
		t.Fatalf("Len = %d, want %d", r.Len(), maxListingsPerSession)
	}
	if _, ok := r.Get("visitor", "view-1"); ok {
		t.Error("least recently used view should have been dropped")
	}
	if _, ok := r.Get("visitor", "oldest"); !ok {
		t.Error("recently used view was dropped")
	}
	r.Put("other", "view-1", emptyListing())
	if r.Len() != maxListingsPerSession+1 {
		t.Errorf("cap should be per session: Len = %d", r.Len())
	}
}

func TestListingRegistryExpiresIdleListings(t *testing.T) {
	r := NewListingRegistry(50 * time.Millisecond)
	defer r.Stop()

	r.Put("idle", "view", emptyListing())
	time.Sleep(80 * time.Millisecond)

	if _, ok := r.Get("idle", "view"); ok {
		t.Fatal("idle listing should have expired")
	}
}

func TestListingRegistrySweep(t *testing.T) {
	r := NewListingRegistry(time.Hour)
	defer r.Stop()

	r.Put("a", "view", emptyListing())
	r.Put("b", "view", emptyListing())

	r.sweep(time.Now())
	if r.Len() != 2 {
		t.Fatalf("fresh listings swept: Len = %d, want 2", r.Len())
	}
	r.sweep(time.Now().Add(2 * time.Hour))
	if r.Len() != 0 {
		t.Fatalf("stale listings kept: Len = %d, want 0", r.Len())
	}
}
