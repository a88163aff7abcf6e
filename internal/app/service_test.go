package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"silverSignalBot/config"
	"silverSignalBot/internal/domain"
	"silverSignalBot/internal/indicator"
	"silverSignalBot/internal/ports"
	"silverSignalBot/internal/signal"
	"silverSignalBot/internal/trade"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type mockSource struct {
	series *domain.CandleSeries
	err    error
}

func (m *mockSource) FetchCandles(ctx context.Context, symbol string, lookbackDays int, intervals []string) (*domain.CandleSeries, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.series, nil
}

type mockCandleStore struct {
	appended int
	trimmed  bool
}

func (m *mockCandleStore) LastTimestamp(ctx context.Context) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

func (m *mockCandleStore) Append(ctx context.Context, candles []domain.Candle) (int, error) {
	m.appended += len(candles)
	return len(candles), nil
}

func (m *mockCandleStore) TrimTo(ctx context.Context, max int) (int, error) {
	m.trimmed = true
	return 0, nil
}

func (m *mockCandleStore) Count(ctx context.Context) (int, error) {
	return m.appended, nil
}

type mockMessenger struct {
	mu   sync.Mutex
	sent []string // recipient
	fail bool
}

func (m *mockMessenger) SendText(ctx context.Context, recipient, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("%w: network down", ports.ErrDeliveryFailed)
	}
	m.sent = append(m.sent, recipient)
	return nil
}

type memPositionStore struct {
	mu        sync.Mutex
	positions map[string]*domain.TradePosition
}

func newMemPositionStore() *memPositionStore {
	return &memPositionStore{positions: make(map[string]*domain.TradePosition)}
}

func (s *memPositionStore) Get(ctx context.Context, userID string) (*domain.TradePosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.positions[userID]
	if !ok {
		return nil, nil
	}
	cp := *pos
	return &cp, nil
}

func (s *memPositionStore) Put(ctx context.Context, pos *domain.TradePosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *pos
	s.positions[pos.UserID] = &cp
	return nil
}

func (s *memPositionStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.positions, userID)
	return nil
}

func risingSeries(t *testing.T, n int) *domain.CandleSeries {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]domain.Candle, n)
	for i := range candles {
		price := 100 + float64(i)*0.05
		candles[i] = domain.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      price + 0.5,
			Low:       price - 0.5,
			Close:     price,
		}
	}
	series, err := domain.NewCandleSeries(candles)
	require.NoError(t, err)
	return series
}

type testHarness struct {
	svc       *Service
	source    *mockSource
	candles   *mockCandleStore
	messenger *mockMessenger
	positions *memPositionStore
}

func newTestService(t *testing.T, recipients []string) *testHarness {
	t.Helper()
	log := &mockLogger{}

	cfg := &config.Config{
		Symbol:        "SI=F",
		LookbackDays:  60,
		Intervals:     []string{"15m", "1d"},
		Recipients:    recipients,
		MaxStoredRows: 60,
	}

	engine, err := indicator.NewEngine(indicator.DefaultConfig(), log)
	require.NoError(t, err)
	classifier, err := signal.NewClassifier(signal.DefaultClassifierConfig(), log)
	require.NoError(t, err)
	reporter, err := signal.NewTrendReporter(signal.DefaultTrendConfig(), log)
	require.NoError(t, err)

	positions := newMemPositionStore()
	machine, err := trade.NewMachine(positions, trade.NewParser(""), log)
	require.NoError(t, err)

	source := &mockSource{series: risingSeries(t, 250)}
	candles := &mockCandleStore{}
	messenger := &mockMessenger{}

	svc, err := New(cfg, log, source, candles, engine, classifier, reporter, machine, messenger)
	require.NoError(t, err)

	return &testHarness{
		svc:       svc,
		source:    source,
		candles:   candles,
		messenger: messenger,
		positions: positions,
	}
}

func TestService_RunCycle(t *testing.T) {
	h := newTestService(t, []string{"alice", "bob"})

	err := h.svc.RunCycle(context.Background())
	require.NoError(t, err)

	report, _ := h.svc.LatestReport()
	require.NotNil(t, report)
	assert.Equal(t, domain.TrendBullish, report.Trend)

	data := h.svc.LatestFlat()
	assert.Equal(t, domain.TrendBullish, data["trend"])
	assert.NotContains(t, data, "error")
	assert.Contains(t, data, "current_price")
	assert.Contains(t, data, "5_EMA")
	assert.Contains(t, data, "ATR")

	assert.Equal(t, 250, h.candles.appended)
	assert.True(t, h.candles.trimmed)

	// Intro plus market update per recipient.
	assert.Len(t, h.messenger.sent, 4)
}

func TestService_LatestFlatBeforeFirstCycle(t *testing.T) {
	h := newTestService(t, nil)

	data := h.svc.LatestFlat()
	assert.Equal(t, "Processing not started yet.", data["trend"])
	assert.NotContains(t, data, "current_price")
}

func TestService_FetchFailureKeepsPriorReport(t *testing.T) {
	h := newTestService(t, nil)

	require.NoError(t, h.svc.RunCycle(context.Background()))

	h.source.err = fmt.Errorf("%w: feed offline", ports.ErrDataUnavailable)
	err := h.svc.RunCycle(context.Background())
	assert.Error(t, err)

	data := h.svc.LatestFlat()
	assert.Equal(t, domain.TrendBullish, data["trend"], "prior report stays visible")
	assert.Contains(t, data, "error")

	// A subsequent successful cycle clears the flag.
	h.source.err = nil
	require.NoError(t, h.svc.RunCycle(context.Background()))
	assert.NotContains(t, h.svc.LatestFlat(), "error")
}

func TestService_InsufficientHistoryDowngradesToHold(t *testing.T) {
	h := newTestService(t, nil)
	// Enough for the trend window, not for the primary engine.
	h.source.series = risingSeries(t, 100)

	err := h.svc.RunCycle(context.Background())
	require.NoError(t, err)

	data := h.svc.LatestFlat()
	assert.Equal(t, 0, data["signal"], "missing history must not fabricate a signal")
	assert.Equal(t, domain.TrendBullish, data["trend"], "the fast pass still reports")
}

func TestService_HandleMessage(t *testing.T) {
	h := newTestService(t, nil)
	ctx := context.Background()

	reply, err := h.svc.HandleMessage(ctx, "alice", "🚩 Bought at 25.5")
	require.NoError(t, err)
	assert.Equal(t, "✅ Trade recorded at 25.5. Waiting for sell signal.", reply)
	assert.Equal(t, []string{"alice"}, h.messenger.sent)

	pos, err := h.positions.Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, domain.StateHolding, pos.State)
}

func TestService_DeliveryFailureKeepsState(t *testing.T) {
	h := newTestService(t, nil)
	ctx := context.Background()
	h.messenger.fail = true

	reply, err := h.svc.HandleMessage(ctx, "alice", "🚩 Bought at 25.5")
	assert.ErrorIs(t, err, ports.ErrDeliveryFailed)
	assert.NotEmpty(t, reply, "the computed reply is surfaced even when delivery fails")

	// The transition committed before the send was attempted.
	pos, err := h.positions.Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, domain.StateHolding, pos.State)
}

func TestService_BroadcastFailureDoesNotAbortCycle(t *testing.T) {
	h := newTestService(t, []string{"alice"})
	h.messenger.fail = true

	err := h.svc.RunCycle(context.Background())
	assert.NoError(t, err, "delivery problems never fail the cycle")
	assert.NotContains(t, h.svc.LatestFlat(), "error")
}

func TestService_NewRejectsMissingDependencies(t *testing.T) {
	_, err := New(nil, nil, nil, nil, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}
