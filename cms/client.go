// Package cms is a client for a headless content API exposing a ref-based
// document search endpoint (Prismic REST API v2 style).
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single request to the content API.
const DefaultTimeout = 10 * time.Second

const timestampLayout = "2006-01-02T15:04:05-0700"

// Client talks to one content repository. Create it once per process and
// share it; it is safe for concurrent use.
type Client struct {
	endpoint    string
	accessToken string
	http        *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// NewClient creates a Client for the API root at endpoint
// (e.g. "https://repo.cdn.prismic.io/api/v2").
func NewClient(endpoint, accessToken string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    strings.TrimRight(endpoint, "/"),
		accessToken: accessToken,
		http:        &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query describes a document search.
type Query struct {
	Predicates []string // e.g. At("document.type", "post")
	Fetch      []string // fields to project, e.g. "post.title"; empty fetches all
	PageSize   int
	Page       int
	Orderings  string // e.g. "[document.first_publication_date desc]"
}

// At builds an equality predicate.
func At(path, value string) string {
	return "at(" + path + "," + strconv.Quote(value) + ")"
}

func (q Query) values() url.Values {
	v := url.Values{}
	if len(q.Predicates) > 0 {
		var b strings.Builder
		b.WriteString("[")
		for _, p := range q.Predicates {
			b.WriteString("[" + p + "]")
		}
		b.WriteString("]")
		v.Set("q", b.String())
	}
	if len(q.Fetch) > 0 {
		v.Set("fetch", strings.Join(q.Fetch, ","))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Orderings != "" {
		v.Set("orderings", q.Orderings)
	}
	return v
}

// Query runs a search against the master ref.
func (c *Client) Query(ctx context.Context, q Query) (Response, error) {
	ref, err := c.masterRef(ctx)
	if err != nil {
		return Response{}, err
	}
	v := q.values()
	v.Set("ref", ref)
	if c.accessToken != "" {
		v.Set("access_token", c.accessToken)
	}
	return c.search(ctx, "query", c.endpoint+"/documents/search?"+v.Encode())
}

// FetchPage dereferences a next-page URL exactly as the API issued it.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (Response, error) {
	if pageURL == "" {
		return Response{}, malformed("fetch page", "", errors.New("empty page url"))
	}
	return c.search(ctx, "fetch page", pageURL)
}

// GetByUID returns the single document of docType with the given uid.
func (c *Client) GetByUID(ctx context.Context, docType, uid string) (Document, error) {
	resp, err := c.Query(ctx, Query{
		Predicates: []string{At("my."+docType+".uid", uid)},
		PageSize:   1,
	})
	if err != nil {
		return Document{}, err
	}
	if len(resp.Results) == 0 {
		return Document{}, &Error{Kind: KindNotFound, Op: "get by uid", Err: fmt.Errorf("%s %q", docType, uid)}
	}
	return resp.Results[0], nil
}

type apiRoot struct {
	Refs []struct {
		ID          string `json:"id"`
		Ref         string `json:"ref"`
		IsMasterRef bool   `json:"isMasterRef"`
	} `json:"refs"`
}

func (c *Client) masterRef(ctx context.Context) (string, error) {
	rawURL := c.endpoint
	if c.accessToken != "" {
		rawURL += "?" + url.Values{"access_token": {c.accessToken}}.Encode()
	}
	var root apiRoot
	if err := c.getJSON(ctx, "api root", rawURL, &root); err != nil {
		return "", err
	}
	for _, r := range root.Refs {
		if r.IsMasterRef {
			return r.Ref, nil
		}
	}
	return "", malformed("api root", redact(rawURL), errors.New("no master ref"))
}

type searchResponse struct {
	Page             int             `json:"page"`
	ResultsPerPage   int             `json:"results_per_page"`
	ResultsSize      int             `json:"results_size"`
	TotalResultsSize int             `json:"total_results_size"`
	TotalPages       int             `json:"total_pages"`
	NextPage         *string         `json:"next_page"`
	PrevPage         *string         `json:"prev_page"`
	Results          *[]wireDocument `json:"results"`
}

type wireDocument struct {
	ID                   string          `json:"id"`
	UID                  *string         `json:"uid"`
	Type                 string          `json:"type"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

func (c *Client) search(ctx context.Context, op, rawURL string) (Response, error) {
	var sr searchResponse
	if err := c.getJSON(ctx, op, rawURL, &sr); err != nil {
		return Response{}, err
	}
	if sr.Results == nil {
		return Response{}, malformed(op, redact(rawURL), errors.New("missing results"))
	}
	resp := Response{
		Page:             sr.Page,
		ResultsPerPage:   sr.ResultsPerPage,
		ResultsSize:      sr.ResultsSize,
		TotalResultsSize: sr.TotalResultsSize,
		TotalPages:       sr.TotalPages,
		Results:          make([]Document, 0, len(*sr.Results)),
	}
	if sr.NextPage != nil {
		resp.NextPage = *sr.NextPage
	}
	if sr.PrevPage != nil {
		resp.PrevPage = *sr.PrevPage
	}
	for i, wd := range *sr.Results {
		doc, err := wd.document()
		if err != nil {
			return Response{}, malformed(op, redact(rawURL), fmt.Errorf("results[%d]: %w", i, err))
		}
		resp.Results = append(resp.Results, doc)
	}
	return resp, nil
}

func (wd wireDocument) document() (Document, error) {
	doc := Document{ID: wd.ID, Type: wd.Type, Data: wd.Data}
	if wd.UID != nil {
		doc.UID = *wd.UID
	}
	var err error
	if doc.FirstPublicationDate, err = parseTimestamp(wd.FirstPublicationDate); err != nil {
		return Document{}, fmt.Errorf("first_publication_date: %w", err)
	}
	if doc.LastPublicationDate, err = parseTimestamp(wd.LastPublicationDate); err != nil {
		return Document{}, fmt.Errorf("last_publication_date: %w", err)
	}
	return doc, nil
}

func parseTimestamp(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(timestampLayout, *s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, *s)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func (c *Client) getJSON(ctx context.Context, op, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return malformed(op, redact(rawURL), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, URL: redact(rawURL), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Op: op, URL: redact(rawURL), StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &Error{Kind: KindStatus, Op: op, URL: redact(rawURL), StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return malformed(op, redact(rawURL), err)
	}
	return nil
}

// redact strips the access token so URLs can be logged.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	if q.Has("access_token") {
		q.Del("access_token")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
