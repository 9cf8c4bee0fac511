// Package client talks to a Chronik indexer over HTTP and WebSocket. Requests
// and responses are protobuf bodies handled by the descriptor-driven codec of
// the latest schema generation; results are converted to display types with
// hex encoded hashes and scripts.
package client

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	chronik "github.com/givelotus/chronik-go"
	"github.com/givelotus/chronik-go/protos"
)

const contentTypeProtobuf = "application/x-protobuf"

// Client is a plain object; creating one opens no connection.
type Client struct {
	url        string
	wsURL      string
	httpClient *http.Client
	codec      *chronik.Codec
	logger     *zap.Logger
	metrics    *Metrics
	timeout    time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics registers the client metrics with registerer.
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(c *Client) { c.metrics = NewMetrics(registerer) }
}

// WithTimeout bounds every HTTP request and websocket dial.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the Chronik instance at url, which must include
// the scheme and must not end with a slash, e.g. https://chronik.be.cash/xec.
func New(url string, opts ...Option) (*Client, error) {
	if strings.HasSuffix(url, "/") {
		return nil, errors.Wrapf(ErrTrailingSlash, "got: %s", url)
	}
	var wsURL string
	switch {
	case strings.HasPrefix(url, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(url, "http://")
	default:
		return nil, errors.Wrapf(ErrInvalidURLScheme, "got: %s", url)
	}

	c := &Client{
		url:        url,
		wsURL:      wsURL + "/ws",
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
		timeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.timeout > 0 && c.httpClient.Timeout == 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	codec, err := chronik.New(protos.GenerationV2, chronik.WithLogger(c.logger))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create codec")
	}
	c.codec = codec

	return c, nil
}

// URL is the HTTP base url of the Chronik instance.
func (c *Client) URL() string { return c.url }

// WsURL is the websocket url derived from the HTTP url.
func (c *Client) WsURL() string { return c.wsURL }

// get fetches url+path and decodes the response as messageType. route is
// the path template used as the metrics label.
func (c *Client) get(ctx context.Context, route, path, messageType string) (map[string]interface{}, error) {
	body, err := c.do(ctx, http.MethodGet, route, path, nil)
	if err != nil {
		return nil, err
	}
	return c.decode(messageType, body)
}

// post encodes request as requestType, posts it and decodes the response as
// responseType.
func (c *Client) post(ctx context.Context, path, requestType string, request map[string]interface{}, responseType string) (map[string]interface{}, error) {
	payload, err := c.codec.Encode(requestType, request)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s", requestType)
	}
	body, err := c.do(ctx, http.MethodPost, path, path, payload)
	if err != nil {
		return nil, err
	}
	return c.decode(responseType, body)
}

func (c *Client) do(ctx context.Context, method, route, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url+path, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", contentTypeProtobuf)

	c.logger.Sugar().Debugw("Making Chronik request",
		zap.String("method", method),
		zap.String("url", req.URL.String()),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.OnRequest(method, route, "error")
		return nil, errors.Wrapf(err, "failed to request %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response body of %s", path)
	}
	c.metrics.OnRequest(method, route, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return nil, c.responseError(resp.StatusCode, path, body)
	}
	return body, nil
}

func (c *Client) responseError(status int, path string, body []byte) error {
	msg, err := c.codec.Decode("Error", body)
	if err != nil {
		return errors.Wrapf(ErrInvalidProtobuf, "status %d getting %s: %s", status, path, hex.EncodeToString(body))
	}
	return &ChronikError{
		StatusCode:  status,
		Path:        path,
		ErrorCode:   getString(msg, "error_code"),
		Msg:         getString(msg, "msg"),
		IsUserError: getBool(msg, "is_user_error"),
	}
}

func (c *Client) decode(messageType string, body []byte) (map[string]interface{}, error) {
	msg, err := c.codec.Decode(messageType, body)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidProtobuf, "%v: %s", err, hex.EncodeToString(body))
	}
	return msg, nil
}
