// Package restclient sends JSON requests to the BAFCC backend and maps its
// status codes onto the shared error taxonomy.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/bafcc/camp-admin/internal/errors"
	"github.com/bafcc/camp-admin/oauthmodel"
)

const maxErrorBody = 64 << 10

// StatusError is a non-2xx backend answer.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
}

// Unwrap lets callers test the error with errors.Is against the taxonomy.
func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden:
		return apperrors.ErrUnauthorized
	case e.Code == http.StatusNotFound:
		return apperrors.ErrNotFound
	case e.Code == http.StatusBadRequest || e.Code == http.StatusUnprocessableEntity || e.Code == http.StatusConflict:
		return apperrors.ErrBadRequest
	case e.Code >= 500:
		return apperrors.ErrTransport
	default:
		return nil
	}
}

// Client is bound to one backend base URL. The http.Client decides how
// requests are authorized.
type Client struct {
	http    *http.Client
	baseURL string
}

func New(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, in, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do sends in as JSON and decodes the answer into out. A nil out, a 204 or an
// empty body leave out untouched.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("restclient: encode %s %s: %w", method, path, err)
		}
		// bytes.Reader lets the request be replayed after a token refresh.
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("restclient: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTransport) {
			return err
		}
		return apperrors.Transport(fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || resp.ContentLength == 0 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.Transport(fmt.Errorf("%s %s: decode json: %w", method, path, err))
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	se := &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		var body oauthmodel.ErrorResponse
		if json.Unmarshal(data, &body) == nil {
			se.Detail = body.Message()
		}
	}
	return se
}
