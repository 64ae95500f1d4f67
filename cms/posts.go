package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eringen/folio/richtext"
)

// PostType is the custom type of blog posts.
const PostType = "post"

var listFields = []string{"post.title", "post.subtitle", "post.author"}

// ListPosts returns the first page of posts projected to the list view.
func (c *Client) ListPosts(ctx context.Context, pageSize int) (PostPagination, error) {
	resp, err := c.Query(ctx, Query{
		Predicates: []string{At("document.type", PostType)},
		Fetch:      listFields,
		PageSize:   pageSize,
	})
	if err != nil {
		return PostPagination{}, err
	}
	return toPagination("list posts", resp)
}

// NextPosts follows an opaque next-page cursor.
func (c *Client) NextPosts(ctx context.Context, nextPage string) (PostPagination, error) {
	resp, err := c.FetchPage(ctx, nextPage)
	if err != nil {
		return PostPagination{}, err
	}
	return toPagination("next posts", resp)
}

// PostUIDs returns the uids of the first pageSize posts.
func (c *Client) PostUIDs(ctx context.Context, pageSize int) ([]string, error) {
	resp, err := c.Query(ctx, Query{
		Predicates: []string{At("document.type", PostType)},
		PageSize:   pageSize,
	})
	if err != nil {
		return nil, err
	}
	uids := make([]string, 0, len(resp.Results))
	for _, d := range resp.Results {
		if d.UID != "" {
			uids = append(uids, d.UID)
		}
	}
	return uids, nil
}

// Post returns the detail view of the post with the given uid.
func (c *Client) Post(ctx context.Context, uid string) (Post, error) {
	doc, err := c.GetByUID(ctx, PostType, uid)
	if err != nil {
		return Post{}, err
	}
	post, err := DecodePost(doc)
	if err != nil {
		return Post{}, malformed("post", "", err)
	}
	return post, nil
}

func toPagination(op string, resp Response) (PostPagination, error) {
	p := PostPagination{
		NextPage: resp.NextPage,
		Results:  make([]ListPost, 0, len(resp.Results)),
	}
	for i, d := range resp.Results {
		lp, err := DecodeListPost(d)
		if err != nil {
			return PostPagination{}, malformed(op, "", fmt.Errorf("results[%d]: %w", i, err))
		}
		p.Results = append(p.Results, lp)
	}
	return p, nil
}

// DecodeListPost projects a document to the list view. Fields beyond title,
// subtitle and author are dropped.
func DecodeListPost(d Document) (ListPost, error) {
	if isEmptyData(d.Data) {
		return ListPost{}, errors.New("missing data")
	}
	var data ListPostData
	if err := json.Unmarshal(d.Data, &data); err != nil {
		return ListPost{}, err
	}
	return ListPost{
		UID:                  d.UID,
		FirstPublicationDate: d.FirstPublicationDate,
		Data:                 data,
	}, nil
}

type wirePostData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
	Banner   struct {
		URL string `json:"url"`
	} `json:"banner"`
	Content []wireContentGroup `json:"content"`
}

type wireContentGroup struct {
	Heading *string           `json:"heading"`
	Body    *[]richtext.Block `json:"body"`
}

// DecodePost projects a document to the detail view. Content groups without
// a heading or body are rejected.
func DecodePost(d Document) (Post, error) {
	if isEmptyData(d.Data) {
		return Post{}, errors.New("missing data")
	}
	var data wirePostData
	if err := json.Unmarshal(d.Data, &data); err != nil {
		return Post{}, err
	}
	groups := make([]ContentGroup, 0, len(data.Content))
	for i, g := range data.Content {
		if g.Heading == nil {
			return Post{}, fmt.Errorf("content[%d]: missing heading", i)
		}
		if g.Body == nil {
			return Post{}, fmt.Errorf("content[%d]: missing body", i)
		}
		groups = append(groups, ContentGroup{Heading: *g.Heading, Body: *g.Body})
	}
	return Post{
		UID:                  d.UID,
		FirstPublicationDate: d.FirstPublicationDate,
		Data: PostData{
			Title:    data.Title,
			Subtitle: data.Subtitle,
			Author:   data.Author,
			Banner:   Banner{URL: data.Banner.URL},
			Content:  groups,
		},
	}, nil
}

func isEmptyData(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
