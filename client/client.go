// Package client talks to the inkblog API. Every write operation answers
// with a models.Result envelope; transport failures are returned as errors.
package client

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
	"time"

	"inkblog/models"
	"inkblog/submit"
)

var ErrNotFound = errors.New("client: not found")

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// WithToken returns a copy of c that authenticates as the holder of token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

var _ submit.Dispatcher = (*Client)(nil)

func (c *Client) Register(ctx context.Context, req models.RegisterReq) (models.Result, error) {
	return c.sendJSON(ctx, http.MethodPost, "/api/auth/register", req)
}

func (c *Client) SignIn(ctx context.Context, req models.LoginReq) (models.Result, error) {
	return c.sendJSON(ctx, http.MethodPost, "/api/auth/login", req)
}

func (c *Client) PatchUser(ctx context.Context, req models.PatchUserReq) (models.Result, error) {
	return c.sendJSON(ctx, http.MethodPatch, "/api/users/me", req)
}

func (c *Client) ChangeAvatar(ctx context.Context, body submit.Multipart) (models.Result, error) {
	return c.send(ctx, http.MethodPatch, "/api/users/me/avatar", body.ContentType, body.Body)
}

func (c *Client) CreatePost(ctx context.Context, body submit.Multipart) (models.Result, error) {
	return c.send(ctx, http.MethodPost, "/api/posts", body.ContentType, body.Body)
}

func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	res, err := c.send(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), "", nil)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("get user %s: %w", id, ErrNotFound)
	}
	var u models.User
	if err := res.Decode(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]models.Post, error) {
	res, err := c.send(ctx, http.MethodGet, "/api/posts", "", nil)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("list posts: %s", res.Message)
	}
	var posts []models.Post
	if err := res.Decode(&posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

// ListPostsByAuthor returns ErrNotFound for an unknown author.
func (c *Client) ListPostsByAuthor(ctx context.Context, userID string) ([]models.Post, error) {
	res, err := c.send(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/posts", "", nil)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("list posts of %s: %w", userID, ErrNotFound)
	}
	var posts []models.Post
	if err := res.Decode(&posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body any) (models.Result, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return models.Result{}, err
	}
	return c.send(ctx, method, path, "application/json", b)
}

// send decodes the envelope whatever the status code; the API uses the
// status for the HTTP side and the envelope for the form side.
func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte) (models.Result, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return models.Result{}, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Result{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var res models.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return models.Result{}, fmt.Errorf("%s %s: status %d: decode: %w", method, path, resp.StatusCode, err)
	}
	return res, nil
}
