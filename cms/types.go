package cms

import (
	"encoding/json"
	"time"

	"github.com/eringen/folio/richtext"
)

// Document is a raw content document as returned by the search API.
type Document struct {
	ID                   string
	UID                  string
	Type                 string
	FirstPublicationDate *time.Time
	LastPublicationDate  *time.Time
	Data                 json.RawMessage
}

// Response is one page of search results.
type Response struct {
	Page             int
	ResultsPerPage   int
	ResultsSize      int
	TotalResultsSize int
	TotalPages       int
	NextPage         string // empty when there are no more pages
	PrevPage         string
	Results          []Document
}

// ListPost is the list-view projection of a post.
type ListPost struct {
	UID                  string       `json:"uid"`
	FirstPublicationDate *time.Time   `json:"first_publication_date"`
	Data                 ListPostData `json:"data"`
}

type ListPostData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
}

// PostPagination is a page of list-view posts plus the cursor for the next
// one. An empty NextPage ends pagination.
type PostPagination struct {
	NextPage string     `json:"next_page"`
	Results  []ListPost `json:"results"`
}

// Post is the detail-view projection of a post.
type Post struct {
	UID                  string     `json:"uid"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	Data                 PostData   `json:"data"`
}

type PostData struct {
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Author   string         `json:"author"`
	Banner   Banner         `json:"banner"`
	Content  []ContentGroup `json:"content"`
}

type Banner struct {
	URL string `json:"url"`
}

// ContentGroup is a titled section of a post body.
type ContentGroup struct {
	Heading string           `json:"heading"`
	Body    []richtext.Block `json:"body"`
}
