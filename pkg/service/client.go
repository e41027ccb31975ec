// Package service is the client of the remote summarization endpoint.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/mycrub/daysum/pkg/models"
)

// DefaultURL is the public summarization endpoint.
const DefaultURL = "https://ivc6ivtvmg.execute-api.eu-west-3.amazonaws.com/devo/summarize"

// maxBodySize bounds how much of a response is read.
const maxBodySize = 4 << 20

// ErrMalformed is returned when the endpoint answers with something that is
// not a JSON object.
var ErrMalformed = errors.New("malformed response")

// Client queries the summarization endpoint. The endpoint is idempotent and
// safe to re-poll.
type Client struct {
	http    *http.Client
	baseURL string
}

// New creates a Client for baseURL using hc.
func New(hc *http.Client, baseURL string) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{http: hc, baseURL: baseURL}
}

// Fetch asks for the summary of topic on date. Any reported status,
// including "error" and unknown ones, is returned as a Summary; an error is
// returned only when the exchange itself failed.
func (c *Client) Fetch(ctx context.Context, topic, date string) (models.Summary, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return models.Summary{}, fmt.Errorf("invalid service URL: %w", err)
	}
	q := u.Query()
	q.Set("topic_id", topic)
	q.Set("date", date)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.Summary{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Summary{}, fmt.Errorf("summarize request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return models.Summary{}, fmt.Errorf("read response: %w", err)
	}

	return Decode(body, resp.StatusCode)
}

// Decode classifies a response body. The body is trusted over the HTTP status
// code: the service reports failures as {"status":"error"}.
func Decode(body []byte, statusCode int) (models.Summary, error) {
	if !gjson.ValidBytes(body) {
		return models.Summary{}, fmt.Errorf("%w: HTTP %d, invalid JSON", ErrMalformed, statusCode)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return models.Summary{}, fmt.Errorf("%w: HTTP %d, not an object", ErrMalformed, statusCode)
	}

	s := models.Summary{Status: models.Status(root.Get("status").String())}
	if s.Completed() {
		summary := root.Get("summary")
		if summary.Type != gjson.String {
			return models.Summary{}, fmt.Errorf("%w: completed without summary", ErrMalformed)
		}
		s.Summary = summary.String()
	}
	return s, nil
}
