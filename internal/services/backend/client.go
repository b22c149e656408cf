// Package backend is the typed client of the retailer's REST backend.
package backend

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// AuthHeader carries the bearer token issued by the auth service.
const AuthHeader = "x-auth-token"

// ErrUnavailable wraps transport failures (DNS, refused, timeout).
var ErrUnavailable = errors.New("backend unavailable")

// Error is a non-2xx answer from the backend.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("backend %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var be *Error
	if errors.As(err, &be) {
		return be.Status
	}
	return 0
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

type request struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   any
}

func (c *Client) do(ctx context.Context, r request, dest any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", r.path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("build request %s: %w", r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("backend call failed", zap.String("method", r.method), zap.String("path", r.path), zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrUnavailable, r.path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := &Error{Method: r.method, Path: r.path, Status: resp.StatusCode, Message: errorMessage(data)}
		c.log.Warn("backend returned error", zap.String("method", r.method), zap.String("path", r.path),
			zap.Int("status", resp.StatusCode), zap.String("message", e.Message))
		return e
	}

	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := dest.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s response: %w", r.path, err)
	}
	return nil
}

func authed(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set(AuthHeader, token)
	}
	return h
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Msg     string `json:"msg"`
	}
	if json.Unmarshal(body, &payload) == nil {
		for _, m := range []string{payload.Message, payload.Error, payload.Msg} {
			if m != "" {
				return m
			}
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
