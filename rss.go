package folio

import (
	"net/http"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/cms"
)

func (a *App) buildFeed(posts []cms.ListPost) *feeds.Feed {
	base := a.Config.URL
	feed := &feeds.Feed{
		Title:       a.Config.Name,
		Link:        &feeds.Link{Href: BuildURL(base)},
		Description: a.Config.Description,
		Id:          BuildURL(base),
	}
	if a.Config.Author != "" {
		feed.Author = &feeds.Author{Name: a.Config.Author}
	}

	var newest time.Time
	for _, p := range posts {
		postURL := BuildURL(base, "post", p.UID)
		item := &feeds.Item{
			Title:       p.Data.Title,
			Link:        &feeds.Link{Href: postURL},
			Description: p.Data.Subtitle,
			Id:          postURL,
		}
		if p.Data.Author != "" {
			item.Author = &feeds.Author{Name: p.Data.Author}
		}
		if p.FirstPublicationDate != nil {
			item.Created = *p.FirstPublicationDate
			if item.Created.After(newest) {
				newest = item.Created
			}
		}
		feed.Items = append(feed.Items, item)
	}
	feed.Created = newest
	feed.Updated = newest
	return feed
}

func (a *App) renderRSS(c echo.Context, posts []cms.ListPost) error {
	out, err := a.buildFeed(posts).ToRss()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(out))
}

func (a *App) renderAtom(c echo.Context, posts []cms.ListPost) error {
	out, err := a.buildFeed(posts).ToAtom()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/atom+xml; charset=utf-8", []byte(out))
}
