package credit

import (
	"fmt"
	"math/big"
)

// CreditStatus represents the lifecycle states supported by the credit-line
// engine.
type CreditStatus uint8

const (
	StatusActive CreditStatus = iota
	StatusSuspended
	StatusDefaulted
	StatusClosed
)

// statusTransitions declares every permitted lifecycle transition in one
// place. Status-changing operations consult this table instead of re-deriving
// the rules per call site. Suspension and default are administrative markers
// that may be applied regardless of the prior status; Active is only entered
// through OpenCreditLine, never by transition.
var statusTransitions = map[CreditStatus][]CreditStatus{
	StatusActive:    {StatusSuspended, StatusDefaulted, StatusClosed},
	StatusSuspended: {StatusSuspended, StatusDefaulted, StatusClosed},
	StatusDefaulted: {StatusSuspended, StatusDefaulted, StatusClosed},
	StatusClosed:    {StatusSuspended, StatusDefaulted, StatusClosed},
}

// Valid reports whether the status value is within the supported range.
func (s CreditStatus) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusDefaulted, StatusClosed:
		return true
	default:
		return false
	}
}

// String returns the canonical lowercase name of the status.
func (s CreditStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusSuspended:
		return "suspended"
	case StatusDefaulted:
		return "defaulted"
	case StatusClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// CanTransition reports whether the lifecycle table permits moving from s to
// the target status.
func (s CreditStatus) CanTransition(to CreditStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CreditLine captures the revolving draw facility stored for a single
// borrower. Amounts are signed wide integers expressed as big integers to
// match ledger precision; the engine keeps both non-negative at all times.
type CreditLine struct {
	// Borrower is the account that owns and draws against the line.
	Borrower [20]byte
	// CreditLimit is the maximum utilisation permitted for the line.
	CreditLimit *big.Int
	// UtilizedAmount tracks the outstanding drawn balance, always within
	// [0, CreditLimit].
	UtilizedAmount *big.Int
	// InterestRateBps is the interest rate in basis points (0..=10000).
	InterestRateBps uint32
	// RiskScore grades the borrower on a 0-100 scale.
	RiskScore uint32
	// Status records the line's lifecycle position.
	Status CreditStatus
	// LastRateUpdateTs is the unix timestamp of the last interest-rate change
	// applied through UpdateRiskParameters. Zero means the rate has never
	// been updated.
	LastRateUpdateTs uint64
}

// Clone returns a deep copy of the credit line so callers can safely mutate
// the copy without affecting the stored instance.
func (l *CreditLine) Clone() *CreditLine {
	if l == nil {
		return nil
	}
	clone := *l
	if l.CreditLimit != nil {
		clone.CreditLimit = new(big.Int).Set(l.CreditLimit)
	} else {
		clone.CreditLimit = big.NewInt(0)
	}
	if l.UtilizedAmount != nil {
		clone.UtilizedAmount = new(big.Int).Set(l.UtilizedAmount)
	} else {
		clone.UtilizedAmount = big.NewInt(0)
	}
	return &clone
}

// SanitizeCreditLine validates and normalises the supplied credit line,
// returning a cloned instance with non-nil amount fields. The function does
// not mutate the original value.
func SanitizeCreditLine(l *CreditLine) (*CreditLine, error) {
	if l == nil {
		return nil, fmt.Errorf("nil credit line")
	}
	clone := l.Clone()
	if clone.CreditLimit.Sign() < 0 {
		return nil, fmt.Errorf("credit limit must be non-negative")
	}
	if clone.UtilizedAmount.Sign() < 0 {
		return nil, fmt.Errorf("utilized amount must be non-negative")
	}
	if clone.UtilizedAmount.Cmp(clone.CreditLimit) > 0 {
		return nil, fmt.Errorf("utilized amount %s exceeds credit limit %s", clone.UtilizedAmount, clone.CreditLimit)
	}
	if clone.InterestRateBps > MaxInterestRateBps {
		return nil, fmt.Errorf("interest rate bps out of range: %d", clone.InterestRateBps)
	}
	if clone.RiskScore > MaxRiskScore {
		return nil, fmt.Errorf("risk score out of range: %d", clone.RiskScore)
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("invalid credit status: %d", clone.Status)
	}
	return clone, nil
}

// RateChangeConfig captures the admin-configurable limits on interest-rate
// changes. Absence of the config disables all rate-change throttling.
type RateChangeConfig struct {
	// MaxRateChangeBps bounds the absolute change in InterestRateBps allowed
	// per UpdateRiskParameters call.
	MaxRateChangeBps uint32
	// RateChangeMinInterval is the minimum elapsed seconds between two
	// consecutive rate changes. Zero disables the time-window check.
	RateChangeMinInterval uint64
}
