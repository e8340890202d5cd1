// Package client is a Go client for the user management API.
//
// A Client carries no global state: the login it authenticates with lives in
// the Session it was built with, and authenticated requests pick the token up
// from that Session through an oauth2.Transport.
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
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultTimeout bounds every request unless overridden with WithTimeout.
const DefaultTimeout = 30 * time.Second

type Client struct {
	baseURL string
	session *Session
	timeout time.Duration
	base    http.RoundTripper

	anon   *http.Client
	authed *http.Client
}

type Option func(*Client)

// WithTimeout replaces DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTransport sets the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.base = rt
		}
	}
}

// New builds a Client for baseURL. A nil session gets a fresh one.
func New(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = NewSession()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		timeout: DefaultTimeout,
		base:    http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.anon = &http.Client{Timeout: c.timeout, Transport: c.base}
	c.authed = &http.Client{
		Timeout:   c.timeout,
		Transport: &oauth2.Transport{Source: session, Base: c.base},
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

// Login authenticates and stores the result in the session, replacing any
// previous login.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, false, http.MethodPost, "/api/auth", nil, req, &out); err != nil {
		return nil, err
	}
	c.session.Set(out)
	return &out, nil
}

// Logout forgets the session. Issued tokens stay valid until they expire.
func (c *Client) Logout() {
	c.session.Clear()
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	var out messageResponse
	if err := c.do(ctx, false, http.MethodPost, "/api/auth/register", nil, req, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, true, http.MethodGet, "/api/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMe(ctx context.Context, update ProfileUpdate) (*User, error) {
	var out User
	if err := c.do(ctx, true, http.MethodPut, "/api/users/me", nil, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) (string, error) {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	var out messageResponse
	if err := c.do(ctx, true, http.MethodPut, "/api/users/me/password", nil, body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) ListUsers(ctx context.Context, opts ListOptions) (*UserPage, error) {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Size > 0 {
		q.Set("size", strconv.Itoa(opts.Size))
	}
	if opts.SortBy != "" {
		q.Set("sortBy", opts.SortBy)
	}
	if opts.SortDir != "" {
		q.Set("sortDir", opts.SortDir)
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	var out UserPage
	if err := c.do(ctx, true, http.MethodGet, "/api/users", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUserByID(ctx context.Context, id string) (*User, error) {
	var out User
	if err := c.do(ctx, true, http.MethodGet, "/api/users/id/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, username string) (*User, error) {
	var out User
	if err := c.do(ctx, true, http.MethodGet, "/api/users/"+url.PathEscape(username), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, update ProfileUpdate) (*User, error) {
	var out User
	if err := c.do(ctx, true, http.MethodPut, "/api/users/"+url.PathEscape(id), nil, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) (string, error) {
	return c.message(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil)
}

func (c *Client) SetRole(ctx context.Context, id, role string) (string, error) {
	return c.message(ctx, http.MethodPatch, "/api/users/"+url.PathEscape(id)+"/role", url.Values{"role": {role}})
}

func (c *Client) SetEnabled(ctx context.Context, id string, enabled bool) (string, error) {
	q := url.Values{"enabled": {strconv.FormatBool(enabled)}}
	return c.message(ctx, http.MethodPatch, "/api/users/"+url.PathEscape(id)+"/status", q)
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.do(ctx, true, http.MethodGet, "/api/stats/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Import uploads a JSON array of user records.
func (c *Client) Import(ctx context.Context, records io.Reader) (*ImportResult, error) {
	resp, err := c.send(ctx, true, http.MethodPost, "/api/users/batch", nil, records, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out ImportResult
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportCSV streams the CSV export into w.
func (c *Client) ExportCSV(ctx context.Context, search string, w io.Writer) error {
	var q url.Values
	if search != "" {
		q = url.Values{"search": {search}}
	}
	resp, err := c.send(ctx, true, http.MethodGet, "/api/users/export/csv", q, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return apiError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return &ConnectionError{Op: "export", Err: err}
	}
	return nil
}

func (c *Client) message(ctx context.Context, method, path string, q url.Values) (string, error) {
	var out messageResponse
	if err := c.do(ctx, true, method, path, q, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// do sends in as JSON and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, authed bool, method, path string, q url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	resp, err := c.send(ctx, authed, method, path, q, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, out)
}

func (c *Client) send(ctx context.Context, authed bool, method, path string, q url.Values, body io.Reader, contentType string) (*http.Response, error) {
	if authed && !c.session.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}

	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	hc := c.anon
	if authed {
		hc = c.authed
	}
	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return nil, ErrUnauthenticated
		}
		return nil, &ConnectionError{Op: method + " " + path, Err: err}
	}
	return resp, nil
}

func decode(resp *http.Response, out any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	e := &APIError{Status: resp.StatusCode}
	var env errorEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err == nil {
		e.Code, e.Message = env.Code, env.Error
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
