package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"silverSignalBot/config"
	"silverSignalBot/internal/adapters/whatsapp"
	"silverSignalBot/internal/domain"
	"silverSignalBot/internal/indicator"
	"silverSignalBot/internal/metrics"
	"silverSignalBot/internal/ports"
	"silverSignalBot/internal/signal"
	"silverSignalBot/internal/trade"
)

// snapshot is the immutable "latest report" value. It is replaced wholesale
// on every cycle so a concurrent reader never observes a half-updated report.
type snapshot struct {
	Report *domain.TrendReport
	Signal domain.Signal
	Err    string
}

// Service orchestrates the periodic signal cycle and routes inbound messages
// to the trade state machine.
type Service struct {
	cfg        *config.Config
	logger     ports.Logger
	source     ports.CandleSource
	candles    ports.CandleStore
	engine     *indicator.Engine
	classifier *signal.Classifier
	reporter   *signal.TrendReporter
	machine    *trade.Machine
	messenger  ports.Messenger

	latest atomic.Value // snapshot
}

// New validates dependencies and creates the service.
func New(
	cfg *config.Config,
	logger ports.Logger,
	source ports.CandleSource,
	candles ports.CandleStore,
	engine *indicator.Engine,
	classifier *signal.Classifier,
	reporter *signal.TrendReporter,
	machine *trade.Machine,
	messenger ports.Messenger,
) (*Service, error) {
	if cfg == nil || logger == nil || source == nil || candles == nil ||
		engine == nil || classifier == nil || reporter == nil ||
		machine == nil || messenger == nil {
		return nil, fmt.Errorf("missing required dependencies for service")
	}
	s := &Service{
		cfg:        cfg,
		logger:     logger,
		source:     source,
		candles:    candles,
		engine:     engine,
		classifier: classifier,
		reporter:   reporter,
		machine:    machine,
		messenger:  messenger,
	}
	s.latest.Store(snapshot{})
	return s, nil
}

// RunCycle executes one fetch -> compute -> classify -> persist -> notify
// pass. Failures abort the cycle at their stage; the prior report stays
// visible with the error flag set, and the next scheduled cycle retries from
// scratch.
func (s *Service) RunCycle(ctx context.Context) error {
	metrics.CyclesTotal.Inc()
	s.logger.Info(ctx, "signal cycle started", map[string]interface{}{
		"symbol":    s.cfg.Symbol,
		"lookback":  s.cfg.LookbackDays,
		"intervals": s.cfg.Intervals,
	})

	series, err := s.source.FetchCandles(ctx, s.cfg.Symbol, s.cfg.LookbackDays, s.cfg.Intervals)
	if err != nil {
		metrics.CycleFailures.WithLabelValues("fetch").Inc()
		s.recordError(err)
		s.logger.Error(ctx, err, "candle fetch failed, cycle aborted")
		return err
	}

	// Insufficient history for the primary engine downgrades classification
	// to Hold; it never fabricates a signal.
	sig := domain.Hold
	set, err := s.engine.Compute(ctx, series)
	switch {
	case errors.Is(err, ports.ErrInsufficientHistory):
		s.logger.Warn(ctx, "not enough history for full classification", map[string]interface{}{
			"candles": series.Len(),
		})
	case err != nil:
		metrics.CycleFailures.WithLabelValues("compute").Inc()
		s.recordError(err)
		s.logger.Error(ctx, err, "indicator computation failed, cycle aborted")
		return err
	default:
		sig = s.classifier.Latest(ctx, series, set)
	}

	report, err := s.reporter.Report(ctx, series)
	if err != nil {
		metrics.CycleFailures.WithLabelValues("trend").Inc()
		s.recordError(err)
		s.logger.Error(ctx, err, "trend report failed, cycle aborted")
		return err
	}

	s.latest.Store(snapshot{Report: report, Signal: sig})
	metrics.SignalsEmitted.WithLabelValues(sig.String()).Inc()
	metrics.LastCycleUnix.Set(float64(report.GeneratedAt.Unix()))

	if err := s.persist(ctx, series); err != nil {
		metrics.CycleFailures.WithLabelValues("persist").Inc()
		s.recordError(err)
		s.logger.Error(ctx, err, "candle persistence failed")
		return err
	}

	s.broadcast(ctx, report)
	s.logger.Info(ctx, "signal cycle completed", map[string]interface{}{
		"signal": sig.String(),
		"trend":  report.Trend,
	})
	return nil
}

// persist appends the new candle rows and trims the table to its cap.
func (s *Service) persist(ctx context.Context, series *domain.CandleSeries) error {
	added, err := s.candles.Append(ctx, series.Candles())
	if err != nil {
		return fmt.Errorf("appending candles: %w", err)
	}
	removed, err := s.candles.TrimTo(ctx, s.cfg.MaxStoredRows)
	if err != nil {
		return fmt.Errorf("trimming candles: %w", err)
	}
	s.logger.Debug(ctx, "candles persisted", map[string]interface{}{
		"added":   added,
		"removed": removed,
	})
	return nil
}

// broadcast sends the intro and market update to every configured recipient.
// Delivery failures are logged and counted, never escalated into the cycle.
func (s *Service) broadcast(ctx context.Context, report *domain.TrendReport) {
	for _, recipient := range s.cfg.Recipients {
		holding := s.machine.IsHolding(ctx, recipient)
		for _, body := range []string{
			whatsapp.IntroMessage(),
			whatsapp.MarketUpdateMessage(report, holding),
		} {
			if err := s.messenger.SendText(ctx, recipient, body); err != nil {
				metrics.DeliveryFailures.Inc()
				s.logger.Error(ctx, err, "broadcast delivery failed", map[string]interface{}{
					"recipient": recipient,
				})
				break
			}
		}
	}
}

// HandleMessage runs one trade-machine transition for the user and delivers
// the reply. The state commit happens inside the machine before delivery is
// attempted; a delivery failure is surfaced distinctly and never rolls the
// transition back.
func (s *Service) HandleMessage(ctx context.Context, userID, text string) (string, error) {
	metrics.MessagesInbound.Inc()

	reply, err := s.machine.Handle(ctx, userID, text)
	if err != nil {
		return "", fmt.Errorf("trade transition for %s: %w", userID, err)
	}
	if reply == "" {
		return "", nil
	}

	metrics.RepliesSent.Inc()
	if err := s.messenger.SendText(ctx, userID, reply); err != nil {
		metrics.DeliveryFailures.Inc()
		s.logger.Error(ctx, err, "reply delivery failed", map[string]interface{}{
			"recipient": userID,
		})
		return reply, fmt.Errorf("%w: reply to %s", ports.ErrDeliveryFailed, userID)
	}
	return reply, nil
}

// recordError keeps the prior report but flags the error for status queries.
func (s *Service) recordError(err error) {
	prev, _ := s.latest.Load().(snapshot)
	prev.Err = err.Error()
	s.latest.Store(prev)
}

// LatestReport returns the most recent trend report and signal, or nil
// before the first completed cycle.
func (s *Service) LatestReport() (*domain.TrendReport, domain.Signal) {
	snap, _ := s.latest.Load().(snapshot)
	return snap.Report, snap.Signal
}

// LatestFlat returns the latest report as a flat key/value structure with
// native numeric values, for the status endpoint.
func (s *Service) LatestFlat() map[string]interface{} {
	snap, _ := s.latest.Load().(snapshot)
	if snap.Report == nil {
		out := map[string]interface{}{"trend": "Processing not started yet."}
		if snap.Err != "" {
			out["error"] = snap.Err
		}
		return out
	}
	r := snap.Report
	out := map[string]interface{}{
		"trend":              r.Trend,
		"price_change_pct":   r.PriceChangePct,
		"nearest_support":    r.NearestSupport,
		"nearest_resistance": r.NearestResistance,
		"buy_signal":         r.BuySignal,
		"sell_signal":        r.SellSignal,
		"short_signal":       r.ShortSignal,
		"exit_signal":        r.ExitSignal,
		"current_price":      r.CurrentPrice,
		"macd_line":          r.MACDLine,
		"macd_signal":        r.MACDSignal,
		"5_EMA":              r.FastEMA,
		"ATR":                r.ATR,
		"signal":             int(snap.Signal),
		"generated_at":       r.GeneratedAt,
	}
	if snap.Err != "" {
		out["error"] = snap.Err
	}
	return out
}
