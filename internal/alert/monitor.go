package alert

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"options-tracker/internal/database"
	"options-tracker/internal/types"
)

const DefaultInterval = 30 * time.Second

var ErrAlreadyRunning = errors.New("monitor already running")

type TradeLister interface {
	ListTrades(ctx context.Context) ([]types.Trade, error)
}

type UserGetter interface {
	GetUser(ctx context.Context, id string) (*types.User, error)
}

type PriceSource interface {
	GetPrice(ctx context.Context, ticker string) (float64, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, user *types.User, a types.Alert) error
}

// Clock abstracts the wait between cycles
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Observer receives cycle outcomes, typically to feed metrics
type Observer interface {
	CycleCompleted(report CycleReport)
	CycleFailed()
	AlertRaised(a types.Alert)
}

// CycleReport summarises one pass over all trades
type CycleReport struct {
	Trades     int `json:"trades"`
	Lookups    int `json:"lookups"`
	Alerts     int `json:"alerts"`
	Dispatched int `json:"dispatched"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// Monitor periodically evaluates every trade against the current price of its ticker
// and notifies the trade owner. One Monitor runs at most one loop at a time.
type Monitor struct {
	trades     TradeLister
	users      UserGetter
	prices     PriceSource
	dispatcher Dispatcher
	clock      Clock
	observer   Observer
	interval   time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

type Option func(m *Monitor)

func WithClock(c Clock) Option {
	return func(m *Monitor) {
		m.clock = c
	}
}

func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithObserver(o Observer) Option {
	return func(m *Monitor) {
		m.observer = o
	}
}

func NewMonitor(trades TradeLister, users UserGetter, prices PriceSource, dispatcher Dispatcher, opts ...Option) *Monitor {
	m := &Monitor{
		trades:     trades,
		users:      users,
		prices:     prices,
		dispatcher: dispatcher,
		clock:      realClock{},
		interval:   DefaultInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the background loop. It is stopped by Stop or by cancelling ctx.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	m.running = true
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.loop(ctx, m.done)

	log.WithField("interval", m.interval).Info("🚀 Alert monitor started.")
	return nil
}

// Stop cancels the loop and waits for the cycle in flight to finish
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done
	log.Info("Alert monitor stopped.")
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		m.mu.Lock()
		if m.done == done {
			m.running = false
		}
		m.mu.Unlock()
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		// in-flight lookups and pushes finish even when shutdown begins mid-cycle
		m.safeCycle(context.WithoutCancel(ctx))

		select {
		case <-ctx.Done():
			return
		case <-m.clock.After(m.interval):
		}
	}
}

func (m *Monitor) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("🔥 Panic recovered in alert monitor: %v\n%s", r, debug.Stack())
			m.cycleFailed()
		}
	}()

	if _, err := m.RunCycle(ctx); err != nil {
		log.WithError(err).Error("❌ Alert check failed, retrying next cycle")
		m.cycleFailed()
	}
}

func (m *Monitor) cycleFailed() {
	if m.observer != nil {
		m.observer.CycleFailed()
	}
}

// RunCycle performs a single evaluation pass. Only a failure to load trades is returned,
// per-ticker and per-recipient problems are logged and counted in the report.
func (m *Monitor) RunCycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport

	log.Debug("🔄 Checking alerts...")

	trades, err := m.trades.ListTrades(ctx)
	if err != nil {
		return report, errors.Wrap(err, "load trades")
	}
	report.Trades = len(trades)

	prices := make(map[string]float64)
	failed := make(map[string]struct{})

	for _, trade := range trades {
		current, ok := m.lookup(ctx, trade.Ticker, prices, failed, &report)
		if !ok {
			continue
		}

		a := Evaluate(trade, current)
		if a == nil {
			continue
		}
		report.Alerts++
		if m.observer != nil {
			m.observer.AlertRaised(*a)
		}

		m.notify(ctx, *a, &report)
	}

	log.WithFields(log.Fields{
		"trades":     report.Trades,
		"lookups":    report.Lookups,
		"alerts":     report.Alerts,
		"dispatched": report.Dispatched,
		"failed":     report.Failed,
	}).Info("✅ Alert check completed.")

	if m.observer != nil {
		m.observer.CycleCompleted(report)
	}
	return report, nil
}

// lookup resolves a ticker once per cycle, remembering failures so they are not retried
func (m *Monitor) lookup(ctx context.Context, ticker string, prices map[string]float64, failed map[string]struct{}, report *CycleReport) (float64, bool) {
	if p, ok := prices[ticker]; ok {
		return p, true
	}
	if _, ok := failed[ticker]; ok {
		return 0, false
	}

	report.Lookups++
	p, err := m.prices.GetPrice(ctx, ticker)
	if err != nil || p <= 0 {
		log.WithField("ticker", ticker).Warnf("⚠️ No price for ticker: %v", err)
		failed[ticker] = struct{}{}
		return 0, false
	}
	prices[ticker] = p
	return p, true
}

func (m *Monitor) notify(ctx context.Context, a types.Alert, report *CycleReport) {
	fields := log.Fields{"ticker": a.Ticker, "trade_id": a.TradeID, "user_id": a.UserID}

	user, err := m.users.GetUser(ctx, a.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			log.WithFields(fields).Debug("alert owner has no account record, skipping")
		} else {
			log.WithFields(fields).WithError(err).Error("❌ Failed to load alert owner")
			report.Failed++
			return
		}
		report.Skipped++
		return
	}

	if err := m.dispatcher.Dispatch(ctx, user, a); err != nil {
		log.WithFields(fields).WithError(err).Error("❌ Failed to send alert notification")
		report.Failed++
		return
	}
	report.Dispatched++
}
