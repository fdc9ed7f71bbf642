// Package feed fetches the published power-outage dataset. The upstream
// document groups raw entries into "today" and "future" buckets; the client
// flattens them into one batch per poll. The feed is read-only, gives no
// ordering guarantee across polls, and repeats entries between polls, so
// the reconciler is expected to tolerate duplicates.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Record is one raw outage entry as published by the feed. Locality and
// district are free-text names; From/To are ISO-8601 timestamps left
// unparsed so that malformed values can be rejected per record instead of
// failing the whole document.
type Record struct {
	ID       string `json:"id"`
	Locality string `json:"locality"`
	District string `json:"district"`
	Streets  string `json:"streets"`
	Date     string `json:"date"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// document is the upstream JSON shape.
type document struct {
	Today  []Record `json:"today"`
	Future []Record `json:"future"`
}

// Client fetches outage records over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient builds a feed client for the given dataset URL.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads and decodes the current dataset, returning today's and
// future entries as a single batch in document order.
func (c *Client) Fetch(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch outage feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch outage feed: unexpected status %d", resp.StatusCode)
	}

	var doc document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode outage feed: %w", err)
	}

	out := make([]Record, 0, len(doc.Today)+len(doc.Future))
	out = append(out, doc.Today...)
	out = append(out, doc.Future...)
	return out, nil
}
