package folio

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const listingSessionName = "listing_session"

// maxListingsPerSession bounds the page views one visitor keeps alive. The
// least recently used listing is dropped first.
const maxListingsPerSession = 16

// ListingRegistry keeps the Listing of every home page view, grouped by
// visitor session, and drops listings that have been idle longer than the
// TTL. Each view has its own cursor, so tabs sharing a cookie do not
// interfere.
type ListingRegistry struct {
	mu       sync.Mutex
	sessions map[string]map[string]*listingEntry
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

type listingEntry struct {
	listing  *Listing
	lastSeen time.Time
}

// NewListingRegistry creates a registry and starts its sweeper.
func NewListingRegistry(ttl time.Duration) *ListingRegistry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	r := &ListingRegistry{
		sessions: make(map[string]map[string]*listingEntry),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go r.cleanup()
	return r
}

func (r *ListingRegistry) cleanup() {
	ticker := time.NewTicker(r.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.sweep(time.Now())
		case <-r.stop:
			return
		}
	}
}

func (r *ListingRegistry) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sid, views := range r.sessions {
		for id, e := range views {
			if now.Sub(e.lastSeen) >= r.ttl {
				delete(views, id)
			}
		}
		if len(views) == 0 {
			delete(r.sessions, sid)
		}
	}
}

// Put registers l as listing id of session sid. When the session already
// holds maxListingsPerSession listings the least recently used one goes.
func (r *ListingRegistry) Put(sid, id string, l *Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	views := r.sessions[sid]
	if views == nil {
		views = make(map[string]*listingEntry)
		r.sessions[sid] = views
	}
	if _, ok := views[id]; !ok && len(views) >= maxListingsPerSession {
		var oldest string
		var oldestSeen time.Time
		for vid, e := range views {
			if oldest == "" || e.lastSeen.Before(oldestSeen) {
				oldest, oldestSeen = vid, e.lastSeen
			}
		}
		delete(views, oldest)
	}
	views[id] = &listingEntry{listing: l, lastSeen: time.Now()}
}

// Get returns listing id of session sid and marks it as used. A listing is
// only visible to the session that created it.
func (r *ListingRegistry) Get(sid, id string) (*Listing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	views, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	e, ok := views[id]
	if !ok {
		return nil, false
	}
	now := time.Now()
	if now.Sub(e.lastSeen) >= r.ttl {
		delete(views, id)
		if len(views) == 0 {
			delete(r.sessions, sid)
		}
		return nil, false
	}
	e.lastSeen = now
	return e.listing, true
}

// Len returns the number of live listings across all sessions.
func (r *ListingRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, views := range r.sessions {
		n += len(views)
	}
	return n
}

// Stop ends the sweeper. It is safe to call more than once.
func (r *ListingRegistry) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(a.Config.ListingSessionTTL / time.Second),
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// listingSessionID returns the visitor's session id, or "" when the request
// carries no valid listing session.
func listingSessionID(c echo.Context) string {
	sess, err := session.Get(listingSessionName, c)
	if err != nil {
		return ""
	}
	id, _ := sess.Values["id"].(string)
	return id
}

// ensureListingSession returns the visitor's session id, creating the session
// cookie when there is none yet. The cookie is refreshed on every call.
func ensureListingSession(c echo.Context) (string, error) {
	sess, err := session.Get(listingSessionName, c)
	if err != nil {
		return "", err
	}
	id, _ := sess.Values["id"].(string)
	if id == "" {
		id = uuid.NewString()
		sess.Values["id"] = id
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return "", err
	}
	return id, nil
}
