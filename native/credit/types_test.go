package credit

import (
	"math/big"
	"testing"
)

func TestStatusTransitions(t *testing.T) {
	all := []CreditStatus{StatusActive, StatusSuspended, StatusDefaulted, StatusClosed}
	for _, from := range all {
		if from.CanTransition(StatusActive) {
			t.Fatalf("%s -> active must be forbidden: active is only entered by opening", from)
		}
		for _, to := range []CreditStatus{StatusSuspended, StatusDefaulted, StatusClosed} {
			if !from.CanTransition(to) {
				t.Fatalf("expected %s -> %s to be allowed", from, to)
			}
		}
	}
}

func TestStatusStringAndValid(t *testing.T) {
	cases := map[CreditStatus]string{
		StatusActive:    "active",
		StatusSuspended: "suspended",
		StatusDefaulted: "defaulted",
		StatusClosed:    "closed",
	}
	for status, want := range cases {
		if !status.Valid() {
			t.Fatalf("%s must be valid", want)
		}
		if got := status.String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
	if CreditStatus(9).Valid() {
		t.Fatalf("out-of-range status must be invalid")
	}
}

func TestCreditLineClone(t *testing.T) {
	line := &CreditLine{
		Borrower:         makeAddress(0x42),
		CreditLimit:      big.NewInt(1000),
		UtilizedAmount:   big.NewInt(250),
		InterestRateBps:  300,
		RiskScore:        70,
		Status:           StatusActive,
		LastRateUpdateTs: 99,
	}
	clone := line.Clone()
	clone.CreditLimit.SetInt64(5)
	clone.UtilizedAmount.SetInt64(5)
	clone.Status = StatusClosed
	if line.CreditLimit.Cmp(big.NewInt(1000)) != 0 || line.UtilizedAmount.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("clone must not share amount backing: %+v", line)
	}
	if line.Status != StatusActive {
		t.Fatalf("clone must not share scalar fields")
	}
	var nilLine *CreditLine
	if nilLine.Clone() != nil {
		t.Fatalf("nil clone must return nil")
	}
}

func TestSanitizeCreditLine(t *testing.T) {
	valid := func() *CreditLine {
		return &CreditLine{
			Borrower:        makeAddress(0x42),
			CreditLimit:     big.NewInt(1000),
			UtilizedAmount:  big.NewInt(400),
			InterestRateBps: 300,
			RiskScore:       70,
			Status:          StatusActive,
		}
	}
	if _, err := SanitizeCreditLine(valid()); err != nil {
		t.Fatalf("valid line: %v", err)
	}
	if _, err := SanitizeCreditLine(nil); err == nil {
		t.Fatalf("nil line must fail")
	}

	mutations := map[string]func(l *CreditLine){
		"negative limit":     func(l *CreditLine) { l.CreditLimit = big.NewInt(-1) },
		"negative utilized":  func(l *CreditLine) { l.UtilizedAmount = big.NewInt(-1) },
		"utilized over cap":  func(l *CreditLine) { l.UtilizedAmount = big.NewInt(1001) },
		"rate out of range":  func(l *CreditLine) { l.InterestRateBps = 10_001 },
		"score out of range": func(l *CreditLine) { l.RiskScore = 101 },
		"invalid status":     func(l *CreditLine) { l.Status = CreditStatus(7) },
	}
	for name, mutate := range mutations {
		line := valid()
		mutate(line)
		if _, err := SanitizeCreditLine(line); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	// Nil amounts normalise to zero.
	line := valid()
	line.CreditLimit = nil
	line.UtilizedAmount = nil
	sanitized, err := SanitizeCreditLine(line)
	if err != nil {
		t.Fatalf("nil amounts: %v", err)
	}
	if sanitized.CreditLimit.Sign() != 0 || sanitized.UtilizedAmount.Sign() != 0 {
		t.Fatalf("expected zeroed amounts, got %+v", sanitized)
	}
}
