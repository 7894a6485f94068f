// Package fx converts amounts between currencies via a frankfurter-style
// HTTP rate API. Any failure at all — network, bad code, non-success
// status, malformed body — comes back as a ConversionError so callers
// can treat "conversion unavailable" uniformly.
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://api.frankfurter.dev/v1"

// ConversionError reports a failed currency lookup.
type ConversionError struct {
	From string
	To   string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("fx: convert %s to %s: %v", e.From, e.To, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a converter against baseURL. The timeout is applied
// to every request; the upstream API defines none of its own.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type latestResponse struct {
	Rates map[string]json.Number `json:"rates"`
}

// Convert returns amount expressed in the target currency. Identical
// source and target short-circuit without a request.
func (c *Client) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	addr := fmt.Sprintf("%s/latest?amount=%s&base=%s&symbols=%s",
		c.baseURL, url.QueryEscape(amount.String()), url.QueryEscape(from), url.QueryEscape(to))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return decimal.Zero, &ConversionError{From: from, To: to, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, &ConversionError{From: from, To: to, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, &ConversionError{From: from, To: to, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, &ConversionError{From: from, To: to, Err: err}
	}

	rate, ok := body.Rates[to]
	if !ok {
		return decimal.Zero, &ConversionError{From: from, To: to, Err: fmt.Errorf("no rate for %s in response", to)}
	}
	converted, err := decimal.NewFromString(rate.String())
	if err != nil {
		return decimal.Zero, &ConversionError{From: from, To: to, Err: fmt.Errorf("bad rate %q: %w", rate, err)}
	}
	return converted, nil
}
