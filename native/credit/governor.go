package credit

// EvaluateRateChange applies the rate-change governor rules to a proposed
// interest-rate move. The function is a pure rule evaluator: it consults only
// its arguments and returns nil when the change is allowed.
//
// A nil config disables all throttling (the backward-compatible default-open
// policy). An unchanged rate is always allowed and skips both checks, so a
// no-op update never consumes the rate-change window.
//
// The interval and delta checks are independent violations; when both apply
// the interval violation is surfaced first so callers waiting out the window
// learn the actionable condition.
func EvaluateRateChange(oldRate, newRate uint32, lastUpdateTs, now uint64, cfg *RateChangeConfig) error {
	if cfg == nil || oldRate == newRate {
		return nil
	}
	if cfg.RateChangeMinInterval > 0 && lastUpdateTs > 0 {
		var elapsed uint64
		if now > lastUpdateTs {
			elapsed = now - lastUpdateTs
		}
		if elapsed < cfg.RateChangeMinInterval {
			return ErrRateIntervalNotElapsed
		}
	}
	delta := newRate - oldRate
	if oldRate > newRate {
		delta = oldRate - newRate
	}
	if delta > cfg.MaxRateChangeBps {
		return ErrRateDeltaExceeded
	}
	return nil
}
