package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/logging"
)

const (
	baseURL = "https://www.strava.com/api/v3"

	// PerPage is the Strava API's hard maximum page size.
	PerPage = 200

	requestTimeout = 30 * time.Second
)

// TokenProvider supplies a valid bearer token for outbound API calls. It is
// consulted on every page request; token loading, expiry detection and
// refresh live entirely behind it.
type TokenProvider interface {
	GetValidAccessToken() (string, error)
}

// ErrRateLimited indicates the API returned a 429 rate limit error
var ErrRateLimited = fmt.Errorf("strava: rate limited")

// FetchOptions bound a fetch by unix timestamps. Zero values mean unbounded.
type FetchOptions struct {
	Before int64
	After  int64
}

// Client is a Strava API client. Failed requests are not retried: upstream
// failures abort the in-progress fetch and propagate to the caller.
type Client struct {
	httpClient *retryablehttp.Client
	tokens     TokenProvider
	baseURL    string
}

// NewClient creates a Strava API client backed by the given token provider.
func NewClient(tokens TokenProvider) *Client {
	return newClient(tokens, baseURL)
}

// NewClientWithBaseURL creates a client against a custom base URL (for testing).
func NewClientWithBaseURL(tokens TokenProvider, customBaseURL string) *Client {
	return newClient(tokens, customBaseURL)
}

func newClient(tokens TokenProvider, baseURL string) *Client {
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = requestTimeout
	client.RetryMax = 0
	client.Logger = &logging.LeveledLogger{}

	// Never re-issue a request the core didn't ask for. Auth and upstream
	// failures surface to the caller unchanged.
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}

	return &Client{
		httpClient: client,
		tokens:     tokens,
		baseURL:    baseURL,
	}
}

// FetchAll retrieves the complete activity history, page by page, in remote
// page order (typically reverse-chronological). Pagination stops on an empty
// page or on a page shorter than PerPage; the short page already proves the
// history is exhausted, so the trailing empty request is skipped.
//
// Page requests are strictly sequential: the termination condition depends on
// observing each page's exact size before asking for the next. The context is
// checked between pages, so a long-running full sync is cancellable.
func (c *Client) FetchAll(ctx context.Context, opts FetchOptions) ([]Activity, error) {
	var all []Activity

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		activities, err := c.FetchPage(ctx, PerPage, page, opts)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}

		all = append(all, activities...)
		logging.Debug("fetched activity page", "page", page, "page_size", len(activities), "total", len(all))

		if len(activities) < PerPage {
			break
		}
	}

	logging.Info("activity fetch complete", "total", len(all))
	return all, nil
}

// FetchPage retrieves a single page of activities.
func (c *Client) FetchPage(ctx context.Context, perPage, page int, opts FetchOptions) ([]Activity, error) {
	token, err := c.tokens.GetValidAccessToken()
	if err != nil {
		return nil, fmt.Errorf("obtaining access token: %w", err)
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	if opts.Before > 0 {
		q.Set("before", strconv.FormatInt(opts.Before, 10))
	}
	if opts.After > 0 {
		q.Set("after", strconv.FormatInt(opts.After, 10))
	}

	reqURL := fmt.Sprintf("%s/athlete/activities?%s", c.baseURL, q.Encode())
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("strava rejected the access token (401): re-authenticate and try again")
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var activities []Activity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return activities, nil
}

// readErrorBody returns a short excerpt of an error response body so the
// upstream message survives verbatim in the wrapped error.
func readErrorBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(b) == 0 {
		return "<no body>"
	}
	return string(b)
}
