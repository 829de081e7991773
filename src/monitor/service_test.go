package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"shadowmonitor/src/apperrors"
	"shadowmonitor/src/candles"
	"shadowmonitor/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticConfigs []model.MonitorConfig

func (s staticConfigs) List() []model.MonitorConfig { return s }

type fakeSource struct {
	mu       sync.Mutex
	calls    int
	failures int // first n calls fail
	series   []model.Candle
	block    chan struct{}
}

func (f *fakeSource) Fetch(ctx context.Context, symbol string, _ candles.Interval, _ float64) ([]model.Candle, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	if n <= f.failures {
		return nil, &apperrors.FetchError{Op: "candles " + symbol, Err: errors.New("gateway timeout")}
	}
	return f.series, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSignals struct {
	mu   sync.Mutex
	seen map[string]model.Signal
}

func newFakeSignals() *fakeSignals { return &fakeSignals{seen: map[string]model.Signal{}} }

func signalKey(symbol, interval string, ts int64) string {
	return fmt.Sprintf("%s|%s|%d", symbol, interval, ts)
}

func (f *fakeSignals) Exists(_ context.Context, symbol, interval string, ts int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[signalKey(symbol, interval, ts)]
	return ok, nil
}

func (f *fakeSignals) Append(_ context.Context, sig *model.Signal) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := signalKey(sig.Symbol, sig.IntervalType, sig.Timestamp)
	if _, ok := f.seen[k]; ok {
		return false, nil
	}
	sig.ID = uint(len(f.seen) + 1)
	f.seen[k] = *sig
	return true, nil
}

func (f *fakeSignals) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.seen)), nil
}

type fakeOrders struct{ n int64 }

func (f fakeOrders) Count(context.Context) (int64, error) { return f.n, nil }

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []model.Signal
	err   error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, sig model.Signal, cfg model.MonitorConfig) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sig)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Order{Symbol: cfg.Symbol, Side: model.SideBuy}, nil
}

func (f *fakeDispatcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeAlerter struct {
	mu      sync.Mutex
	signals int
	orders  int
}

func (f *fakeAlerter) NotifySignal(context.Context, model.MonitorConfig, model.Signal) {
	f.mu.Lock()
	f.signals++
	f.mu.Unlock()
}

func (f *fakeAlerter) NotifyOrder(context.Context, model.MonitorConfig, model.Order) {
	f.mu.Lock()
	f.orders++
	f.mu.Unlock()
}

type fakeContracts int

func (f fakeContracts) Len() int { return int(f) }

type fakeExceptions struct {
	mu   sync.Mutex
	list []model.Exception
}

func (f *fakeExceptions) Create(_ context.Context, exc *model.Exception) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = append(f.list, *exc)
	return nil
}

func (f *fakeExceptions) Recent(_ context.Context, limit int) ([]model.Exception, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Exception, 0, limit)
	for i := len(f.list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.list[i])
	}
	return out, nil
}

func (f *fakeExceptions) Snapshot() []model.Exception {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Exception(nil), f.list...)
}

// three quiet candles followed by a long lower shadow on high volume
func shadowSeries() []model.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var out []model.Candle
	for i := 0; i < 3; i++ {
		out = append(out, model.Candle{OpenTime: base.Add(time.Duration(i) * time.Hour), Open: 100, Close: 101, High: 102, Low: 99, Volume: 100})
	}
	out = append(out, model.Candle{OpenTime: base.Add(3 * time.Hour), Open: 100, Close: 101, High: 101.5, Low: 90, Volume: 500})
	return out
}

func activeConfig(symbol string) model.MonitorConfig {
	return model.MonitorConfig{
		Symbol:              symbol,
		IntervalType:        "1h",
		Frequency:           3,
		HistoryHours:        3,
		ShadowRatio:         0.6,
		MainShadowBodyRatio: 2,
		VolumeMultiplier:    2,
		OrderSize:           1,
		RiskRewardRatio:     2,
		IsActive:            true,
		EnableAutoTrading:   true,
		EnableDingtalk:      true,
	}
}

type harness struct {
	svc        *Service
	source     *fakeSource
	signals    *fakeSignals
	dispatcher *fakeDispatcher
	alerter    *fakeAlerter
	exceptions *fakeExceptions
}

func newHarness(t *testing.T, configs []model.MonitorConfig, source *fakeSource) *harness {
	t.Helper()
	h := &harness{
		source:     source,
		signals:    newFakeSignals(),
		dispatcher: &fakeDispatcher{},
		alerter:    &fakeAlerter{},
		exceptions: &fakeExceptions{},
	}
	h.svc = NewService(Deps{
		Configs:    staticConfigs(configs),
		Candles:    source,
		Signals:    h.signals,
		Orders:     fakeOrders{n: 4},
		Dispatcher: h.dispatcher,
		Notifier:   h.alerter,
		Contracts:  fakeContracts(12),
		Exceptions: h.exceptions,
	}, Config{StopTimeout: time.Second, TickTimeout: time.Second, RecentErrors: 5})
	h.svc.unit = time.Millisecond
	t.Cleanup(func() { h.svc.Stop() })
	return h
}

func TestStartStopLifecycle(t *testing.T) {
	h := newHarness(t, []model.MonitorConfig{activeConfig("BTC_USDT")}, &fakeSource{series: shadowSeries()})

	res := h.svc.Start()
	require.True(t, res.Success, res.Message)
	assert.True(t, h.svc.IsRunning())

	again := h.svc.Start()
	assert.False(t, again.Success)
	assert.True(t, h.svc.IsRunning(), "a rejected start leaves the state unchanged")

	stopped := h.svc.Stop()
	assert.True(t, stopped.Success)
	assert.Equal(t, "monitor stopped", stopped.Message)
	assert.False(t, h.svc.IsRunning())

	assert.False(t, h.svc.Stop().Success)
}

func TestStartWithoutActiveConfigs(t *testing.T) {
	inactive := activeConfig("BTC_USDT")
	inactive.IsActive = false
	h := newHarness(t, []model.MonitorConfig{inactive}, &fakeSource{})

	res := h.svc.Start()
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "no active")
	assert.False(t, h.svc.IsRunning())
	assert.Zero(t, h.source.Calls())
}

func TestLoopSurvivesFetchErrors(t *testing.T) {
	h := newHarness(t, []model.MonitorConfig{activeConfig("BTC_USDT")}, &fakeSource{failures: 2, series: shadowSeries()})

	require.True(t, h.svc.Start().Success)
	require.Eventually(t, func() bool { return h.dispatcher.Calls() == 1 }, 2*time.Second, 5*time.Millisecond)
	h.svc.Stop()

	excs := h.exceptions.Snapshot()
	require.Len(t, excs, 2)
	for _, e := range excs {
		assert.Equal(t, "fetch", e.Kind)
		assert.Equal(t, "fetch_candles", e.Method)
		assert.Equal(t, "BTC_USDT_1h", e.Context)
	}
}

func TestSignalIsLoggedAndTradedOnce(t *testing.T) {
	h := newHarness(t, []model.MonitorConfig{activeConfig("BTC_USDT")}, &fakeSource{series: shadowSeries()})

	require.True(t, h.svc.Start().Success)
	require.Eventually(t, func() bool { return h.source.Calls() >= 5 }, 2*time.Second, 5*time.Millisecond)
	h.svc.Stop()

	n, _ := h.signals.Count(context.Background())
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, h.dispatcher.Calls())
	assert.Equal(t, 1, h.alerter.signals)
	assert.Equal(t, 1, h.alerter.orders)

	sig := h.dispatcher.calls[0]
	assert.Equal(t, model.ShadowTypeLower, sig.ShadowType)
	assert.Equal(t, "BTC_USDT", sig.Symbol)
	assert.Equal(t, "1h", sig.IntervalType)
}

func TestDetectionOnlyConfigNeverDispatches(t *testing.T) {
	cfg := activeConfig("BTC_USDT")
	cfg.EnableAutoTrading = false
	h := newHarness(t, []model.MonitorConfig{cfg}, &fakeSource{series: shadowSeries()})

	require.True(t, h.svc.Start().Success)
	require.Eventually(t, func() bool { return h.source.Calls() >= 2 }, 2*time.Second, 5*time.Millisecond)
	h.svc.Stop()

	n, _ := h.signals.Count(context.Background())
	assert.Equal(t, int64(1), n)
	assert.Zero(t, h.dispatcher.Calls())
}

func TestDispatchFailureIsRecorded(t *testing.T) {
	h := newHarness(t, []model.MonitorConfig{activeConfig("BTC_USDT")}, &fakeSource{series: shadowSeries()})
	h.dispatcher.err = &apperrors.OrderError{Symbol: "BTC_USDT", Err: errors.New("INSUFFICIENT_AVAILABLE")}

	require.True(t, h.svc.Start().Success)
	require.Eventually(t, func() bool { return len(h.exceptions.Snapshot()) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return h.source.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)
	h.svc.Stop()

	exc := h.exceptions.Snapshot()[0]
	assert.Equal(t, "order", exc.Kind)
	assert.Equal(t, "dispatch_order", exc.Method)
	assert.Zero(t, h.alerter.orders)
}

func TestNoFetchAfterStop(t *testing.T) {
	h := newHarness(t, []model.MonitorConfig{activeConfig("BTC_USDT"), activeConfig("ETH_USDT")}, &fakeSource{series: shadowSeries()})

	require.True(t, h.svc.Start().Success)
	require.Eventually(t, func() bool { return h.source.Calls() >= 4 }, 2*time.Second, 5*time.Millisecond)
	require.True(t, h.svc.Stop().Success)

	calls := h.source.Calls()
	dispatched := h.dispatcher.Calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, h.source.Calls())
	assert.Equal(t, dispatched, h.dispatcher.Calls())
}

func TestStopForceTerminatesStuckLoop(t *testing.T) {
	source := &fakeSource{series: shadowSeries(), block: make(chan struct{})}
	h := newHarness(t, []model.MonitorConfig{activeConfig("BTC_USDT")}, source)
	h.svc.cfg.StopTimeout = 20 * time.Millisecond

	require.True(t, h.svc.Start().Success)
	require.Eventually(t, func() bool { return source.Calls() == 1 }, time.Second, time.Millisecond)

	res := h.svc.Stop()
	close(source.block)

	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "force-terminated: BTC_USDT_1h")
	assert.False(t, h.svc.IsRunning())
}

func TestStatusRespondsWhileStopping(t *testing.T) {
	source := &fakeSource{series: shadowSeries(), block: make(chan struct{})}
	h := newHarness(t, []model.MonitorConfig{activeConfig("BTC_USDT")}, source)
	h.svc.cfg.StopTimeout = 5 * time.Second

	require.True(t, h.svc.Start().Success)
	require.Eventually(t, func() bool { return source.Calls() == 1 }, time.Second, time.Millisecond)

	stopped := make(chan model.OperationResult, 1)
	go func() { stopped <- h.svc.Stop() }()

	require.Eventually(t, func() bool {
		st, err := h.svc.Status(context.Background())
		return err == nil && st.Stopping
	}, time.Second, time.Millisecond)

	begin := time.Now()
	st, err := h.svc.Status(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(begin), time.Second)
	assert.True(t, st.IsRunning)
	assert.True(t, h.svc.IsRunning())

	res := h.svc.Start()
	assert.False(t, res.Success)
	assert.Equal(t, "monitor is stopping", res.Message)
	res = h.svc.Stop()
	assert.False(t, res.Success)
	assert.Equal(t, "monitor is stopping", res.Message)

	close(source.block)

	select {
	case res = <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("stop did not return")
	}
	assert.True(t, res.Success)
	assert.Equal(t, "monitor stopped", res.Message)
	assert.False(t, h.svc.IsRunning())

	st, err = h.svc.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Stopping)
}

func TestStatus(t *testing.T) {
	h := newHarness(t, []model.MonitorConfig{activeConfig("ETH_USDT"), activeConfig("BTC_USDT")}, &fakeSource{failures: 1, series: shadowSeries()})

	st, err := h.svc.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, st.IsRunning)
	assert.Empty(t, st.ActiveSymbols)
	assert.Equal(t, 12, st.TotalContracts)
	assert.Zero(t, st.LastCheck)

	require.True(t, h.svc.Start().Success)
	require.Eventually(t, func() bool {
		n, _ := h.signals.Count(context.Background())
		return n == 2
	}, 2*time.Second, 5*time.Millisecond)

	st, err = h.svc.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.IsRunning)
	assert.Equal(t, []string{"BTC_USDT", "ETH_USDT"}, st.ActiveSymbols)
	assert.Equal(t, int64(2), st.TotalSignals)
	assert.Equal(t, int64(4), st.TotalOrders)
	assert.Positive(t, st.LastCheck)
	require.Len(t, st.RecentErrors, 1)
	assert.Equal(t, "fetch", st.RecentErrors[0].Kind)

	h.svc.Stop()
	st, err = h.svc.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, st.IsRunning)
	assert.Empty(t, st.ActiveSymbols)
}
