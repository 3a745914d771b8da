// SPDX-License-Identifier: EPL-2.0

// Package tfserving is a predict.Model backed by the TensorFlow Serving REST
// API, the usual way to host a Keras model outside Python:
//
//	POST {endpoint}/v1/models/{name}[/versions/{v}]:predict
//	{"instances": [...]}  ->  {"predictions": [[...]]}
package tfserving

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

	"github.com/ik5/cryfeat/tensor"
)

var (
	ErrInvalidEndpoint = errors.New("invalid serving endpoint")
	ErrServing         = errors.New("serving request failed")
)

// DefaultTimeout bounds a request when the context has no earlier deadline.
const DefaultTimeout = 10 * time.Second

// maxResponse caps how much of a response body is read.
const maxResponse = 1 << 20

// Client calls one model on one TensorFlow Serving instance. It is safe for
// concurrent use.
type Client struct {
	url     string
	http    *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request deadline; 0 disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithVersion pins a model version instead of the latest one.
func WithVersion(v int) Option {
	return func(c *Client) {
		base, _, _ := strings.Cut(c.url, ":predict")
		c.url = fmt.Sprintf("%s/versions/%d:predict", base, v)
	}
}

// New builds a client for model name served at endpoint, e.g.
// http://localhost:8501.
func New(endpoint, name string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}
	if name == "" || strings.ContainsAny(name, "/:") {
		return nil, fmt.Errorf("%w: model name %q", ErrInvalidEndpoint, name)
	}

	c := &Client{
		url:     strings.TrimSuffix(u.String(), "/") + "/v1/models/" + url.PathEscape(name) + ":predict",
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// URL returns the predict endpoint.
func (c *Client) URL() string { return c.url }

type request struct {
	Instances []any `json:"instances"`
}

type response struct {
	Predictions [][]float32 `json:"predictions"`
	Error       string      `json:"error"`
}

// Predict sends a tensor whose leading axis is the batch and returns the
// probabilities of the first instance.
func (c *Client) Predict(ctx context.Context, in tensor.Tensor) ([]float32, error) {
	if in.Rank() < 2 || in.Shape[0] != 1 {
		return nil, fmt.Errorf("%w: want a batch of one, got %v", tensor.ErrShapeMismatch, in)
	}

	body, err := json.Marshal(request{Instances: []any{nest(in.Shape[1:], in.Data)}})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServing, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrServing, err)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: status %d: decoding response: %w", ErrServing, resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || out.Error != "" {
		return nil, fmt.Errorf("%w: status %d: %s", ErrServing, resp.StatusCode, out.Error)
	}
	if len(out.Predictions) != 1 {
		return nil, fmt.Errorf("%w: %d predictions for one instance", ErrServing, len(out.Predictions))
	}

	return out.Predictions[0], nil
}

// nest turns row-major data into nested slices following shape.
func nest(shape []int, data []float32) any {
	if len(shape) == 0 {
		return data[0]
	}
	if len(shape) == 1 {
		return data[:shape[0]]
	}

	stride := len(data) / shape[0]
	out := make([]any, shape[0])
	for i := range out {
		out[i] = nest(shape[1:], data[i*stride:(i+1)*stride])
	}

	return out
}
