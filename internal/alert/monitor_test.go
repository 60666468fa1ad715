package alert

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-tracker/internal/database"
	"options-tracker/internal/types"
)

type fakeStore struct {
	mu     sync.Mutex
	trades []types.Trade
	users  map[string]*types.User
	err    error
	calls  int
	// failFirst makes only the first ListTrades call fail
	failFirst bool
}

func (f *fakeStore) ListTrades(context.Context) ([]types.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil && (!f.failFirst || f.calls == 1) {
		return nil, f.err
	}
	return f.trades, nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*types.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "user %s", id)
	}
	return u, nil
}

func (f *fakeStore) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type countingPrices struct {
	mu      sync.Mutex
	prices  map[string]float64
	lookups map[string]int
}

func newCountingPrices(prices map[string]float64) *countingPrices {
	return &countingPrices{prices: prices, lookups: make(map[string]int)}
}

func (c *countingPrices) GetPrice(_ context.Context, ticker string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups[ticker]++
	p, ok := c.prices[ticker]
	if !ok {
		return 0, errors.New("no quote")
	}
	return p, nil
}

func (c *countingPrices) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.lookups {
		n += v
	}
	return n
}

type recordingDispatcher struct {
	mu     sync.Mutex
	failed map[string]bool
	sent   []types.Alert
	panics bool
}

func (d *recordingDispatcher) Dispatch(_ context.Context, user *types.User, a types.Alert) error {
	if d.panics {
		panic("dispatcher exploded")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failed[user.ID] {
		return errors.New("push endpoint gone")
	}
	d.sent = append(d.sent, a)
	return nil
}

func (d *recordingDispatcher) alerts() []types.Alert {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]types.Alert(nil), d.sent...)
}

// manualClock fires After channels only when advanced by the test
type manualClock struct {
	mu        sync.Mutex
	waits     chan time.Duration
	pending   []chan time.Time
	durations []time.Duration
}

func newManualClock() *manualClock {
	return &manualClock{waits: make(chan time.Duration, 16)}
}

func (c *manualClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	c.mu.Lock()
	c.pending = append(c.pending, ch)
	c.durations = append(c.durations, d)
	c.mu.Unlock()
	c.waits <- d
	return ch
}

func (c *manualClock) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.pending {
		ch <- time.Now()
	}
	c.pending = nil
}

type countingObserver struct {
	mu        sync.Mutex
	completed []CycleReport
	failed    int
	raised    []types.Alert
}

func (o *countingObserver) CycleCompleted(r CycleReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, r)
}

func (o *countingObserver) CycleFailed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed++
}

func (o *countingObserver) AlertRaised(a types.Alert) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.raised = append(o.raised, a)
}

func loopTrade(id, user, ticker string, strike float64) types.Trade {
	return types.Trade{ID: id, UserID: user, Ticker: ticker, StrikePrice: strike, TradeType: types.Put}
}

func userWithPush(id string) *types.User {
	return &types.User{ID: id, PushRegistration: &types.PushRegistration{Endpoint: "https://push.example.com/" + id}}
}

func waitForCycle(t *testing.T, clock *manualClock) time.Duration {
	t.Helper()
	select {
	case d := <-clock.waits:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not finish a cycle")
	}
	return 0
}

func TestRunCycle_DeduplicatesTickerLookups(t *testing.T) {
	store := &fakeStore{users: map[string]*types.User{}}
	for i := 0; i < 5; i++ {
		store.trades = append(store.trades, loopTrade("aapl", "u1", "AAPL", 100))
	}
	for i := 0; i < 3; i++ {
		store.trades = append(store.trades, loopTrade("tsla", "u2", "TSLA", 100))
	}
	prices := newCountingPrices(map[string]float64{"AAPL": 175, "TSLA": 190})

	m := NewMonitor(store, store, prices, &recordingDispatcher{})
	report, err := m.RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 8, report.Trades)
	assert.Equal(t, 2, report.Lookups)
	assert.Equal(t, 1, prices.lookups["AAPL"])
	assert.Equal(t, 1, prices.lookups["TSLA"])
	assert.Zero(t, report.Alerts)
}

func TestRunCycle_FailedLookupIsNotRetriedWithinCycle(t *testing.T) {
	store := &fakeStore{trades: []types.Trade{
		loopTrade("1", "u1", "GONE", 100),
		loopTrade("2", "u1", "GONE", 100),
		loopTrade("3", "u1", "AAPL", 200),
	}, users: map[string]*types.User{"u1": userWithPush("u1")}}
	prices := newCountingPrices(map[string]float64{"AAPL": 150})
	dispatcher := &recordingDispatcher{}

	report, err := NewMonitor(store, store, prices, dispatcher).RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, prices.lookups["GONE"])
	assert.Equal(t, 2, report.Lookups)
	assert.Equal(t, 1, report.Alerts)
	require.Len(t, dispatcher.alerts(), 1)
	assert.Equal(t, "3", dispatcher.alerts()[0].TradeID)
}

func TestRunCycle_DispatchIsolation(t *testing.T) {
	store := &fakeStore{
		trades: []types.Trade{
			loopTrade("a", "broken", "AAPL", 200),
			loopTrade("b", "healthy", "AAPL", 200),
			loopTrade("c", "missing", "AAPL", 200),
		},
		users: map[string]*types.User{
			"broken":  userWithPush("broken"),
			"healthy": userWithPush("healthy"),
		},
	}
	prices := newCountingPrices(map[string]float64{"AAPL": 150})
	dispatcher := &recordingDispatcher{failed: map[string]bool{"broken": true}}
	observer := &countingObserver{}

	report, err := NewMonitor(store, store, prices, dispatcher, WithObserver(observer)).RunCycle(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, report.Alerts)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Dispatched)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, dispatcher.alerts(), 1)
	assert.Equal(t, "healthy", dispatcher.alerts()[0].UserID)
	assert.Len(t, observer.raised, 3)
	require.Len(t, observer.completed, 1)
	assert.Equal(t, report, observer.completed[0])
}

func TestRunCycle_AlertCarriesEvaluation(t *testing.T) {
	store := &fakeStore{
		trades: []types.Trade{{ID: "c1", UserID: "u1", Ticker: "NVDA", StrikePrice: 100, TradeType: types.Call}},
		users:  map[string]*types.User{"u1": userWithPush("u1")},
	}
	prices := newCountingPrices(map[string]float64{"NVDA": 99})
	dispatcher := &recordingDispatcher{}

	_, err := NewMonitor(store, store, prices, dispatcher).RunCycle(context.Background())

	require.NoError(t, err)
	require.Len(t, dispatcher.alerts(), 1)
	a := dispatcher.alerts()[0]
	assert.Equal(t, types.SeverityCritical, a.Severity)
	assert.Equal(t, "NVDA is within 1% of CALL strike $100.00. Current: $99.00", a.Message)
}

func TestRunCycle_LoadFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	_, err := NewMonitor(store, store, newCountingPrices(nil), &recordingDispatcher{}).RunCycle(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load trades")
}

func TestMonitor_ContinuesAfterFailingRead(t *testing.T) {
	store := &fakeStore{
		err:       errors.New("connection refused"),
		failFirst: true,
		trades:    []types.Trade{loopTrade("1", "u1", "AAPL", 200)},
		users:     map[string]*types.User{"u1": userWithPush("u1")},
	}
	prices := newCountingPrices(map[string]float64{"AAPL": 150})
	dispatcher := &recordingDispatcher{}
	observer := &countingObserver{}
	clock := newManualClock()

	m := NewMonitor(store, store, prices, dispatcher, WithClock(clock), WithObserver(observer), WithInterval(time.Minute))
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	assert.Equal(t, time.Minute, waitForCycle(t, clock))
	assert.Empty(t, dispatcher.alerts())

	clock.Advance()
	waitForCycle(t, clock)

	assert.Equal(t, 2, store.listCalls())
	assert.Len(t, dispatcher.alerts(), 1)
	observer.mu.Lock()
	assert.Equal(t, 1, observer.failed)
	assert.Len(t, observer.completed, 1)
	observer.mu.Unlock()
}

func TestMonitor_RecoversFromPanic(t *testing.T) {
	store := &fakeStore{
		trades: []types.Trade{loopTrade("1", "u1", "AAPL", 200)},
		users:  map[string]*types.User{"u1": userWithPush("u1")},
	}
	observer := &countingObserver{}
	clock := newManualClock()

	m := NewMonitor(store, store, newCountingPrices(map[string]float64{"AAPL": 150}), &recordingDispatcher{panics: true},
		WithClock(clock), WithObserver(observer))
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	waitForCycle(t, clock)
	clock.Advance()
	waitForCycle(t, clock)

	assert.True(t, m.Running())
	observer.mu.Lock()
	assert.Equal(t, 2, observer.failed)
	observer.mu.Unlock()
}

func TestMonitor_StartTwice(t *testing.T) {
	store := &fakeStore{}
	clock := newManualClock()
	m := NewMonitor(store, store, newCountingPrices(nil), &recordingDispatcher{}, WithClock(clock))

	require.NoError(t, m.Start(context.Background()))
	assert.ErrorIs(t, m.Start(context.Background()), ErrAlreadyRunning)
	assert.True(t, m.Running())

	m.Stop()
	assert.False(t, m.Running())

	// a stopped monitor can be started again
	require.NoError(t, m.Start(context.Background()))
	m.Stop()
}

func TestMonitor_StopWaitsForLoop(t *testing.T) {
	store := &fakeStore{}
	clock := newManualClock()
	m := NewMonitor(store, store, newCountingPrices(nil), &recordingDispatcher{}, WithClock(clock))

	require.NoError(t, m.Start(context.Background()))
	waitForCycle(t, clock)

	m.mu.Lock()
	done := m.done
	m.mu.Unlock()

	m.Stop()

	select {
	case <-done:
	default:
		t.Fatal("Stop returned before the loop exited")
	}
	assert.Equal(t, 1, store.listCalls())

	// second Stop is a no-op
	m.Stop()
}

func TestMonitor_ParentContextCancelStopsLoop(t *testing.T) {
	store := &fakeStore{}
	clock := newManualClock()
	m := NewMonitor(store, store, newCountingPrices(nil), &recordingDispatcher{}, WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx))
	waitForCycle(t, clock)
	cancel()

	assert.Eventually(t, func() bool { return !m.Running() }, 2*time.Second, 10*time.Millisecond)
}

func TestWithInterval_IgnoresNonPositive(t *testing.T) {
	m := NewMonitor(nil, nil, nil, nil, WithInterval(0))
	assert.Equal(t, DefaultInterval, m.interval)

	m = NewMonitor(nil, nil, nil, nil, WithInterval(-time.Second))
	assert.Equal(t, DefaultInterval, m.interval)
}
