package applications

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bafcc/camp-admin/internal/restclient"
)

const (
	basePath = "/api/v1/applications/"

	DefaultPage     = 1
	DefaultPageSize = 100
)

// Client reads and writes player applications.
type Client struct {
	rest *restclient.Client
}

// NewClient sends requests through httpClient, normally the session's
// authorizing client.
func NewClient(httpClient *http.Client, apiURL string) *Client {
	return &Client{rest: restclient.New(httpClient, apiURL)}
}

// List returns one page. Non-positive arguments fall back to the defaults.
func (c *Client) List(ctx context.Context, page, size int) (*Page, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var out Page
	if err := c.rest.Get(ctx, basePath, q, &out); err != nil {
		return nil, fmt.Errorf("applications: list: %w", err)
	}
	return &out, nil
}

func (c *Client) Get(ctx context.Context, id int) (*Application, error) {
	var out Application
	if err := c.rest.Get(ctx, itemPath(id), nil, &out); err != nil {
		return nil, fmt.Errorf("applications: get %d: %w", id, err)
	}
	return &out, nil
}

// Create submits a registration. The backend assigns the id and
// registration number.
func (c *Client) Create(ctx context.Context, form Form) (*Application, error) {
	var out Application
	if err := c.rest.Post(ctx, basePath, form, &out); err != nil {
		return nil, fmt.Errorf("applications: create: %w", err)
	}
	return &out, nil
}

func (c *Client) Update(ctx context.Context, id int, app Application) (*Application, error) {
	var out Application
	if err := c.rest.Put(ctx, itemPath(id), app, &out); err != nil {
		return nil, fmt.Errorf("applications: update %d: %w", id, err)
	}
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, id int) error {
	if err := c.rest.Delete(ctx, itemPath(id)); err != nil {
		return fmt.Errorf("applications: delete %d: %w", id, err)
	}
	return nil
}

// WithImages returns the application with the images of its printable form.
func (c *Client) WithImages(ctx context.Context, id int) (*WithImages, error) {
	var out WithImages
	if err := c.rest.Get(ctx, itemPath(id)+"/pdf-images", nil, &out); err != nil {
		return nil, fmt.Errorf("applications: images %d: %w", id, err)
	}
	return &out, nil
}

// Names lists every player for pickers.
func (c *Client) Names(ctx context.Context) ([]PlayerName, error) {
	var out []PlayerName
	if err := c.rest.Get(ctx, basePath+"names/", nil, &out); err != nil {
		return nil, fmt.Errorf("applications: names: %w", err)
	}
	return out, nil
}

func itemPath(id int) string {
	return basePath + strconv.Itoa(id)
}
