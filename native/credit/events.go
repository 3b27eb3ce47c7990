package credit

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"creditra/core/events"
	"creditra/core/types"
)

const (
	// EventTypeLineOpened is emitted when a credit line is opened for a borrower.
	EventTypeLineOpened = "credit.line.opened"
	// EventTypeLineSuspended is emitted when the admin suspends a credit line.
	EventTypeLineSuspended = "credit.line.suspended"
	// EventTypeLineClosed is emitted when a credit line is closed.
	EventTypeLineClosed = "credit.line.closed"
	// EventTypeLineDefaulted is emitted when the admin marks a credit line as defaulted.
	EventTypeLineDefaulted = "credit.line.defaulted"
	// EventTypeLineDrawn is emitted when a borrower draws funds against the line.
	EventTypeLineDrawn = "credit.line.drawn"
	// EventTypeLineRepaid is emitted when a borrower repays drawn credit.
	EventTypeLineRepaid = "credit.line.repaid"
	// EventTypeRiskUpdated is emitted when risk parameters change on a line.
	EventTypeRiskUpdated = "credit.line.risk_updated"
)

type creditEvent struct {
	evt *types.Event
}

func (e creditEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e creditEvent) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return creditEvent{evt: evt} }

func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func formatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

// LifecycleEvent returns the structured payload for an open, suspend, close
// or default announcement. The snapshot fields mirror the stored line at the
// time of the transition.
func LifecycleEvent(eventType string, line *CreditLine) *types.Event {
	if line == nil {
		return nil
	}
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"borrower":        formatAddress(line.Borrower),
			"status":          line.Status.String(),
			"creditLimit":     formatAmount(line.CreditLimit),
			"interestRateBps": strconv.FormatUint(uint64(line.InterestRateBps), 10),
			"riskScore":       strconv.FormatUint(uint64(line.RiskScore), 10),
		},
	}
}

// DrawEvent returns the structured payload for a successful draw.
func DrawEvent(borrower [20]byte, amount, newUtilized *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeLineDrawn,
		Attributes: map[string]string{
			"borrower":          formatAddress(borrower),
			"amount":            formatAmount(amount),
			"newUtilizedAmount": formatAmount(newUtilized),
		},
	}
}

// RepaymentEvent returns the structured payload for a repayment.
func RepaymentEvent(borrower [20]byte, amount, newUtilized *big.Int, timestamp uint64) *types.Event {
	return &types.Event{
		Type: EventTypeLineRepaid,
		Attributes: map[string]string{
			"borrower":          formatAddress(borrower),
			"amount":            formatAmount(amount),
			"newUtilizedAmount": formatAmount(newUtilized),
			"timestamp":         strconv.FormatUint(timestamp, 10),
		},
	}
}

// RiskParametersUpdatedEvent returns the structured payload emitted after an
// UpdateRiskParameters call commits.
func RiskParametersUpdatedEvent(line *CreditLine) *types.Event {
	if line == nil {
		return nil
	}
	return &types.Event{
		Type: EventTypeRiskUpdated,
		Attributes: map[string]string{
			"borrower":        formatAddress(line.Borrower),
			"creditLimit":     formatAmount(line.CreditLimit),
			"interestRateBps": strconv.FormatUint(uint64(line.InterestRateBps), 10),
			"riskScore":       strconv.FormatUint(uint64(line.RiskScore), 10),
		},
	}
}
