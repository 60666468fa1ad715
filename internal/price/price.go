package price

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrEmptyTicker is the only failure GetPrice surfaces; every provider error falls back to synthetic data
var ErrEmptyTicker = errors.New("ticker must not be empty")

const (
	SourceAlphaVantage = "alphavantage"
	SourceSynthetic    = "synthetic"
)

// Quoter fetches a live quote from an external market data provider
type Quoter interface {
	Quote(ctx context.Context, ticker string) (float64, error)
}

// Recorder is notified of every successful lookup with the source that served it
type Recorder interface {
	PriceLookup(source string)
}

// Adapter resolves a price for a ticker, preferring the live quoter and falling back to synthetic data
type Adapter struct {
	quoter    Quoter
	synthetic *Synthetic
	recorder  Recorder
}

type Option func(a *Adapter)

func WithRecorder(r Recorder) Option {
	return func(a *Adapter) {
		a.recorder = r
	}
}

func WithSynthetic(s *Synthetic) Option {
	return func(a *Adapter) {
		a.synthetic = s
	}
}

// NewAdapter builds an adapter. A nil quoter means every lookup is served synthetically.
func NewAdapter(quoter Quoter, opts ...Option) *Adapter {
	a := &Adapter{
		quoter:    quoter,
		synthetic: NewSynthetic(nil),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetPrice returns a positive price for ticker
func (a *Adapter) GetPrice(ctx context.Context, ticker string) (float64, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return 0, ErrEmptyTicker
	}

	if a.quoter != nil {
		p, err := a.quoter.Quote(ctx, ticker)
		if err == nil {
			log.WithFields(log.Fields{"ticker": ticker, "price": p}).Info("live quote")
			a.record(SourceAlphaVantage)
			return p, nil
		}
		if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrNoCredential) {
			log.WithField("ticker", ticker).Warnf("%v, using synthetic price", err)
		} else {
			log.WithField("ticker", ticker).Errorf("quote failed, using synthetic price: %v", err)
		}
	}

	a.record(SourceSynthetic)
	return a.synthetic.Price(ticker), nil
}

func (a *Adapter) record(source string) {
	if a.recorder != nil {
		a.recorder.PriceLookup(source)
	}
}
