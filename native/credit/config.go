package credit

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Config captures the runtime configuration for the native credit module.
type Config struct {
	MaxRateChangeBps             uint32 `toml:"MaxRateChangeBps"`
	RateChangeMinIntervalSeconds uint64 `toml:"RateChangeMinIntervalSeconds"`
	RiskEngine                   string `toml:"RiskEngine"`
	LiquidityToken               string `toml:"LiquidityToken"`
	LiquiditySource              string `toml:"LiquiditySource"`
	Paused                       bool   `toml:"Paused"`
}

// RateChangeConfig converts the configured throttle values into the stored
// governor config. Both values at zero means throttling stays disabled and
// nil is returned.
func (c Config) RateChangeConfig() *RateChangeConfig {
	if c.MaxRateChangeBps == 0 && c.RateChangeMinIntervalSeconds == 0 {
		return nil
	}
	return &RateChangeConfig{
		MaxRateChangeBps:      c.MaxRateChangeBps,
		RateChangeMinInterval: c.RateChangeMinIntervalSeconds,
	}
}

// ParseAddress decodes a hex-encoded 20-byte account identifier, with or
// without a 0x prefix.
func ParseAddress(s string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("credit: parse address %q: %w", s, err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("credit: address %q must be %d bytes, got %d", s, len(addr), len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}
