package woocommerce

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
)

// maxResponseSize is the maximum allowed response size from the store API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// apiBasePath is the REST API root of a WooCommerce store
const apiBasePath = "/wp-json/wc/v3/"

var (
	// ErrUnavailable indicates the store could not be reached
	ErrUnavailable = errors.New("woocommerce: store unavailable")
	// ErrRequestFailed indicates the store rejected the request
	ErrRequestFailed = errors.New("woocommerce: request failed")
	// ErrInvalidResponse indicates a response body that is not valid JSON
	ErrInvalidResponse = errors.New("woocommerce: invalid response")
)

// Result carries the outcome of one store API exchange. A successful
// exchange exposes the parsed JSON body; a failed one keeps the raw body
// for the operation log.
type Result struct {
	// OK is true when the store answered 200 or 201
	OK bool
	// StatusCode is the HTTP status of the response
	StatusCode int
	// JSON is the response body, only set when OK
	JSON json.RawMessage
	// Raw is the unparsed response body, kept when the exchange failed
	Raw string
	// NextPage is the follow-up URL from the Link header, empty on the
	// last page
	NextPage string
}

// Decode unmarshals the successful body into out
func (r *Result) Decode(out any) error {
	if !r.OK {
		return fmt.Errorf("%w: HTTP %d", ErrRequestFailed, r.StatusCode)
	}
	if err := json.Unmarshal(r.JSON, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// Error formats a failed exchange for logs and queue line messages
func (r *Result) Error() string {
	body := r.Raw
	if len(body) > 512 {
		body = body[:512]
	}
	return fmt.Sprintf("HTTP %d: %s", r.StatusCode, body)
}

// Client talks to the REST API of one WooCommerce store instance.
// Authentication is HTTP basic with the instance consumer key and secret.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient builds a client for the given store instance
func NewClient(instance *store.Instance, logger *zap.Logger) *Client {
	transport := http.DefaultTransport
	if instance.InsecureSkipTLSVerify {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		transport = t
	}

	timeout := instance.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	credentials := instance.ConsumerKey + ":" + instance.ConsumerSecret

	return &Client{
		baseURL:    strings.TrimRight(instance.BaseURL, "/") + apiBasePath,
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials)),
		httpClient: &http.Client{Transport: transport},
		timeout:    timeout,
		logger:     logger.Named("woocommerce"),
	}
}

// Call performs one API exchange against the store. Transport failures
// return an error; HTTP-level failures return a Result with OK false so
// the caller can record the raw response.
func (c *Client) Call(ctx context.Context, method, path string, query url.Values, body any) (*Result, error) {
	target, err := c.resolve(path, query)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("woocommerce: failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to read response: %w", err)
	}

	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	result := &Result{StatusCode: resp.StatusCode}
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		if !json.Valid(raw) {
			result.Raw = string(raw)
			return result, fmt.Errorf("%w: body is not JSON", ErrInvalidResponse)
		}
		result.OK = true
		result.JSON = json.RawMessage(raw)
		result.NextPage = nextPageURL(resp.Header.Get("Link"))
		return result, nil
	}

	result.Raw = string(raw)
	return result, nil
}

// CallAll walks the Link header pagination of a collection endpoint,
// invoking fn with the parsed body of every page
func (c *Client) CallAll(ctx context.Context, path string, query url.Values, fn func(page json.RawMessage) error) error {
	result, err := c.Call(ctx, http.MethodGet, path, query, nil)
	for {
		if err != nil {
			return err
		}
		if !result.OK {
			return fmt.Errorf("%w: %s", ErrRequestFailed, result.Error())
		}
		if err := fn(result.JSON); err != nil {
			return err
		}
		if result.NextPage == "" {
			return nil
		}
		result, err = c.callURL(ctx, result.NextPage)
	}
}

// callURL performs a GET against an absolute URL, used for pagination links
func (c *Client) callURL(ctx context.Context, target string) (*Result, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: bad pagination link: %w", err)
	}
	path := strings.TrimPrefix(u.Path, apiBasePath)
	return c.Call(ctx, http.MethodGet, path, u.Query(), nil)
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("woocommerce: bad request path %q: %w", path, err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// linkNextPattern extracts the rel="next" target from a Link header
var linkNextPattern = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="next"`)

func nextPageURL(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	for _, part := range strings.Split(linkHeader, ",") {
		if m := linkNextPattern.FindStringSubmatch(part); m != nil {
			return m[1]
		}
	}
	return ""
}
