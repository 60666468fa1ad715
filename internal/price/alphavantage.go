package price

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

var (
	ErrNoCredential = errors.New("alpha vantage api key not set")
	ErrRateLimited  = errors.New("alpha vantage rate limit hit")
	ErrNoQuote      = errors.New("no quote in alpha vantage response")
)

const DefaultTimeout = 5 * time.Second

// globalQuoteResponse mirrors the GLOBAL_QUOTE payload; the provider quotes numbers as strings
type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	Information string            `json:"Information"`
}

// AlphaVantage queries the GLOBAL_QUOTE endpoint
type AlphaVantage struct {
	client *resty.Client
	apiKey string
}

// NewAlphaVantage creates a quoter against baseURL (e.g. https://www.alphavantage.co/query)
func NewAlphaVantage(baseURL, apiKey string, timeout time.Duration) *AlphaVantage {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &AlphaVantage{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		apiKey: apiKey,
	}
}

func (a *AlphaVantage) Quote(ctx context.Context, ticker string) (float64, error) {
	if a.apiKey == "" {
		return 0, ErrNoCredential
	}

	var result globalQuoteResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "GLOBAL_QUOTE",
			"symbol":   ticker,
			"apikey":   a.apiKey,
		}).
		SetResult(&result).
		Get("")
	if err != nil {
		return 0, errors.Wrapf(err, "request quote for %s", ticker)
	}
	if resp.IsError() {
		return 0, errors.Errorf("alpha vantage returned status %d", resp.StatusCode())
	}

	raw, ok := result.GlobalQuote["05. price"]
	if !ok {
		if result.Note != "" || result.Information != "" {
			return 0, ErrRateLimited
		}
		return 0, ErrNoQuote
	}

	p, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, errors.Wrapf(ErrNoQuote, "malformed price %q", raw)
	}
	if p <= 0 {
		return 0, errors.Wrapf(ErrNoQuote, "non-positive price %v", p)
	}
	return p, nil
}
