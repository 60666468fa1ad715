package price

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// basePrices anchors the synthetic generator for well known tickers
var basePrices = map[string]float64{
	"AAPL":  175.50,
	"MSFT":  380.20,
	"GOOGL": 142.30,
	"AMZN":  178.90,
	"TSLA":  190.45,
	"NVDA":  720.80,
	"META":  468.35,
	"NFLX":  610.20,
	"AMD":   152.70,
	"SPY":   485.60,
	"QQQ":   415.30,
	"IWM":   198.40,
}

const (
	maxVariation = 0.02
	unknownMin   = 50.0
	unknownMax   = 300.0
)

// Synthetic produces plausible prices when no live quote is available
type Synthetic struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSynthetic uses rnd as its random source, or a time seeded one when rnd is nil
func NewSynthetic(rnd *rand.Rand) *Synthetic {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Synthetic{rnd: rnd}
}

// BasePrice reports the anchor price of a known ticker
func BasePrice(ticker string) (float64, bool) {
	p, ok := basePrices[strings.ToUpper(ticker)]
	return p, ok
}

// Price never fails and always returns a positive value rounded to cents
func (s *Synthetic) Price(ticker string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if base, ok := BasePrice(ticker); ok {
		variation := (s.rnd.Float64()*2 - 1) * maxVariation
		return round2(base * (1 + variation))
	}
	return round2(unknownMin + s.rnd.Float64()*(unknownMax-unknownMin))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
