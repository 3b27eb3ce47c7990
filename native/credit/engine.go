package credit

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"creditra/core/events"
	"creditra/core/types"
	nativecommon "creditra/native/common"
	"creditra/observability/metrics"
)

var (
	errNilState   = errors.New("credit engine: state not configured")
	errNilGateway = errors.New("credit engine: liquidity gateway not configured")

	// ErrNotInitialized is returned when an operation requires the admin
	// principal before Initialize has run.
	ErrNotInitialized = errors.New("credit engine: admin not configured")
	// ErrAlreadyInitialized is returned when Initialize runs twice. Silent
	// re-initialization is forbidden; the admin principal is set exactly once.
	ErrAlreadyInitialized = errors.New("credit engine: already initialized")
	// ErrUnauthorized is returned when the caller does not match the required
	// principal for the operation.
	ErrUnauthorized = errors.New("credit engine: caller not authorized")
	// ErrInvalidAmount rejects zero or negative draw/repay amounts.
	ErrInvalidAmount = errors.New("credit engine: amount must be positive")
	// ErrNegativeLimit rejects credit limits below zero.
	ErrNegativeLimit = errors.New("credit engine: credit limit must be non-negative")
	// ErrRiskScoreTooHigh rejects risk scores above MaxRiskScore.
	ErrRiskScoreTooHigh = errors.New("credit engine: risk score exceeds maximum")
	// ErrRateTooHigh rejects interest rates above MaxInterestRateBps.
	ErrRateTooHigh = errors.New("credit engine: interest rate exceeds maximum basis points")
	// ErrLimitBelowUtilization rejects limit updates below the drawn balance.
	ErrLimitBelowUtilization = errors.New("credit engine: credit limit below utilized amount")
	// ErrLineExists rejects opening a line for a borrower who already holds an
	// active one.
	ErrLineExists = errors.New("credit engine: borrower already has an active credit line")
	// ErrLineNotFound is returned when no credit line exists for the borrower.
	ErrLineNotFound = errors.New("credit engine: credit line not found")
	// ErrLineNotActive is returned when a draw targets a suspended or
	// defaulted line.
	ErrLineNotActive = errors.New("credit engine: credit line not active")
	// ErrLineClosed is returned when a draw or repayment targets a closed line.
	ErrLineClosed = errors.New("credit engine: credit line is closed")
	// ErrUtilizationNotZero is returned when a borrower attempts to close a
	// line that still carries drawn balance.
	ErrUtilizationNotZero = errors.New("credit engine: utilized amount not zero")
	// ErrInvalidTransition is returned when the lifecycle table forbids the
	// requested status change.
	ErrInvalidTransition = errors.New("credit engine: status transition not allowed")
	// ErrOverLimit is returned when a draw would push utilisation past the
	// credit limit.
	ErrOverLimit = errors.New("credit engine: draw exceeds credit limit")
	// ErrOverflow is returned when the utilized balance would exceed the
	// 128-bit signed range used for ledger amounts.
	ErrOverflow = errors.New("credit engine: utilized amount overflow")
	// ErrInsufficientLiquidity is returned when the reserve balance cannot
	// cover the requested draw.
	ErrInsufficientLiquidity = errors.New("credit engine: insufficient reserve liquidity")
	// ErrReentrancy is returned when a nested fund-moving call is detected for
	// the same borrower.
	ErrReentrancy = errors.New("credit engine: reentrant call detected")
	// ErrRateDeltaExceeded is returned by the rate-change governor when the
	// proposed change exceeds the maximum allowed delta.
	ErrRateDeltaExceeded = errors.New("credit engine: rate change exceeds maximum allowed delta")
	// ErrRateIntervalNotElapsed is returned by the rate-change governor when
	// the minimum interval between rate changes has not elapsed.
	ErrRateIntervalNotElapsed = errors.New("credit engine: rate change too soon: minimum interval not elapsed")
)

const (
	// MaxInterestRateBps caps the interest rate at 100%.
	MaxInterestRateBps = 10_000
	// MaxRiskScore bounds the borrower risk grade.
	MaxRiskScore = 100
)

const moduleName = "credit"

// maxUtilizedAmount is the largest balance representable in the signed
// 128-bit ledger amount range (2^127 - 1). Checked addition against this
// bound stands in for native integer overflow detection.
var maxUtilizedAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))

type engineState interface {
	CreditLineGet(borrower [20]byte) (*CreditLine, error)
	CreditLinePut(line *CreditLine) error
	AdminGet() ([20]byte, bool, error)
	AdminPut(addr [20]byte) error
	RateConfigGet() (*RateChangeConfig, error)
	RateConfigPut(cfg *RateChangeConfig) error
}

// Authorizer verifies that the invoking identity has authorized the call for
// the given principal. The host environment supplies the implementation
// (signature checks, session auth, etc.); a nil authorizer accepts every
// caller, which is only appropriate for tests and trusted hosts.
type Authorizer interface {
	Require(principal [20]byte) error
}

// LiquidityGateway exposes the funds-custody collaborator: reserve balance
// lookup and fund transfer for the configured token.
type LiquidityGateway interface {
	BalanceOf(token, source [20]byte) (*big.Int, error)
	Transfer(token, from, to [20]byte, amount *big.Int) error
}

// Engine orchestrates the credit-line lifecycle: opening lines, draws and
// repayments against them, risk-parameter governance and status transitions.
// It is the only component exposed to callers; persistence, authorization,
// fund custody and event delivery are wired in as collaborators.
type Engine struct {
	state           engineState
	auth            Authorizer
	gateway         LiquidityGateway
	emitter         events.Emitter
	guard           *ReentrancyGuard
	pauses          nativecommon.PauseView
	metrics         *metrics.CreditMetrics
	custodyAddress  [20]byte
	liquidityToken  [20]byte
	liquiditySource [20]byte
	riskEngine      [20]byte
	riskEngineSet   bool
	nowFn           func() int64
}

// NewEngine constructs a credit engine anchored to the custody address that
// holds the liquidity reserve. The reserve source defaults to the custody
// address until the admin overrides it via SetLiquiditySource.
func NewEngine(custodyAddr [20]byte) *Engine {
	return &Engine{
		emitter:         events.NoopEmitter{},
		guard:           NewReentrancyGuard(),
		custodyAddress:  custodyAddr,
		liquiditySource: custodyAddr,
		nowFn:           func() int64 { return time.Now().Unix() },
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAuthorizer configures the caller-identity check applied before every
// operation. Passing nil disables identity verification.
func (e *Engine) SetAuthorizer(auth Authorizer) {
	if e == nil {
		return
	}
	e.auth = auth
}

// SetLiquidityGateway wires the funds-custody collaborator used by draws.
func (e *Engine) SetLiquidityGateway(gateway LiquidityGateway) {
	if e == nil {
		return
	}
	e.gateway = gateway
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses wires the module pause switchboard consulted by every mutating
// operation.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetMetrics attaches the operation counters. A nil receiver on the metrics
// side makes instrumentation optional.
func (e *Engine) SetMetrics(m *metrics.CreditMetrics) {
	if e == nil {
		return
	}
	e.metrics = m
}

// SetNowFunc overrides the time source used for repayment timestamps and the
// rate-change governor. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if e == nil {
		return
	}
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(creditEvent{evt: event})
}

func (e *Engine) observe(op string, err error) {
	if e == nil || e.metrics == nil {
		return
	}
	if err != nil {
		e.metrics.ObserveFailure(op, failureClass(err))
		return
	}
	e.metrics.ObserveOperation(op)
}

// Initialize records the admin principal and reserve token exactly once.
// Re-initialization fails with ErrAlreadyInitialized.
func (e *Engine) Initialize(admin, token [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if _, ok, err := e.state.AdminGet(); err != nil {
		return err
	} else if ok {
		return ErrAlreadyInitialized
	}
	if err := e.state.AdminPut(admin); err != nil {
		return err
	}
	e.liquidityToken = token
	e.liquiditySource = e.custodyAddress
	return nil
}

func (e *Engine) requireAuth(caller [20]byte) error {
	if e == nil || e.auth == nil {
		return nil
	}
	return e.auth.Require(caller)
}

func (e *Engine) admin() ([20]byte, error) {
	var zero [20]byte
	if e == nil || e.state == nil {
		return zero, errNilState
	}
	admin, ok, err := e.state.AdminGet()
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, ErrNotInitialized
	}
	return admin, nil
}

func (e *Engine) requireAdmin(caller [20]byte) error {
	if err := e.requireAuth(caller); err != nil {
		return err
	}
	admin, err := e.admin()
	if err != nil {
		return err
	}
	if caller != admin {
		return ErrUnauthorized
	}
	return nil
}

// requireRiskEngine accepts the configured backend/risk-engine principal.
// The admin satisfies the check by policy.
func (e *Engine) requireRiskEngine(caller [20]byte) error {
	if err := e.requireAuth(caller); err != nil {
		return err
	}
	admin, err := e.admin()
	if err != nil {
		return err
	}
	if caller == admin {
		return nil
	}
	if e.riskEngineSet && caller == e.riskEngine {
		return nil
	}
	return ErrUnauthorized
}

func (e *Engine) loadLine(borrower [20]byte) (*CreditLine, error) {
	line, err := e.state.CreditLineGet(borrower)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, ErrLineNotFound
	}
	return line, nil
}

// SetRiskEngine designates the backend principal allowed to open lines and
// tune risk parameters. Admin only.
func (e *Engine) SetRiskEngine(caller, principal [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	e.riskEngine = principal
	e.riskEngineSet = true
	return nil
}

// SetLiquidityToken configures the reserve token draws are paid out in.
// Admin only.
func (e *Engine) SetLiquidityToken(caller, token [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	e.liquidityToken = token
	return nil
}

// SetLiquiditySource configures the reserve address draws are paid out from.
// Admin only.
func (e *Engine) SetLiquiditySource(caller, source [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	e.liquiditySource = source
	return nil
}

// SetRateChangeConfig stores the global rate-change throttle. Passing nil
// clears the config, which disables throttling entirely. Admin only.
func (e *Engine) SetRateChangeConfig(caller [20]byte, cfg *RateChangeConfig) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if cfg == nil {
		return e.state.RateConfigPut(nil)
	}
	cloned := *cfg
	return e.state.RateConfigPut(&cloned)
}

// RateChangeConfiguration returns the stored throttle config, or nil when
// throttling is disabled.
func (e *Engine) RateChangeConfiguration() (*RateChangeConfig, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.RateConfigGet()
}

// OpenCreditLine creates a credit line for the borrower with the supplied
// risk parameters. The caller must be the backend/risk-engine principal (the
// admin satisfies the check). A borrower holding an active line cannot be
// re-opened; lines in any other status are overwritten with a fresh active
// line.
func (e *Engine) OpenCreditLine(caller, borrower [20]byte, creditLimit *big.Int, interestRateBps, riskScore uint32) (err error) {
	defer func() { e.observe("open_credit_line", err) }()
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := e.requireRiskEngine(caller); err != nil {
		return err
	}
	if creditLimit == nil || creditLimit.Sign() < 0 {
		return ErrNegativeLimit
	}
	if interestRateBps > MaxInterestRateBps {
		return ErrRateTooHigh
	}
	if riskScore > MaxRiskScore {
		return ErrRiskScoreTooHigh
	}

	existing, err := e.state.CreditLineGet(borrower)
	if err != nil {
		return err
	}
	if existing != nil && existing.Status == StatusActive {
		return ErrLineExists
	}

	line := &CreditLine{
		Borrower:         borrower,
		CreditLimit:      new(big.Int).Set(creditLimit),
		UtilizedAmount:   big.NewInt(0),
		InterestRateBps:  interestRateBps,
		RiskScore:        riskScore,
		Status:           StatusActive,
		LastRateUpdateTs: 0,
	}
	if err := e.state.CreditLinePut(line); err != nil {
		return err
	}

	e.emit(LifecycleEvent(EventTypeLineOpened, line))
	return nil
}

// DrawCredit pays out amount from the liquidity reserve to the borrower and
// raises the line's utilized balance. Only the borrower may draw, only
// against an active line, and never past the credit limit or the reserve
// balance. The per-borrower reentrancy guard is held across the external
// transfer and released on every exit path.
func (e *Engine) DrawCredit(caller, borrower [20]byte, amount *big.Int) (err error) {
	defer func() { e.observe("draw_credit", err) }()
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := e.requireAuth(caller); err != nil {
		return err
	}
	if caller != borrower {
		return ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	line, err := e.loadLine(borrower)
	if err != nil {
		return err
	}
	switch line.Status {
	case StatusActive:
	case StatusClosed:
		return ErrLineClosed
	default:
		return ErrLineNotActive
	}

	newUtilized := new(big.Int).Add(line.UtilizedAmount, amount)
	if newUtilized.Cmp(maxUtilizedAmount) > 0 {
		return ErrOverflow
	}
	if newUtilized.Cmp(line.CreditLimit) > 0 {
		return ErrOverLimit
	}

	if err := e.guard.Enter(borrower); err != nil {
		return err
	}
	defer e.guard.Exit(borrower)

	if e.gateway == nil {
		return errNilGateway
	}
	balance, err := e.gateway.BalanceOf(e.liquidityToken, e.liquiditySource)
	if err != nil {
		return fmt.Errorf("credit engine: reserve balance lookup: %w", err)
	}
	if balance == nil || balance.Cmp(amount) < 0 {
		return ErrInsufficientLiquidity
	}
	if err := e.gateway.Transfer(e.liquidityToken, e.liquiditySource, borrower, amount); err != nil {
		return fmt.Errorf("credit engine: reserve transfer: %w", err)
	}

	line.UtilizedAmount = newUtilized
	if err := e.state.CreditLinePut(line); err != nil {
		return err
	}

	e.emit(DrawEvent(borrower, amount, newUtilized))
	return nil
}

// RepayCredit reduces the borrower's utilized balance by amount, capping at
// zero: an overpayment is accepted rather than rejected. Repayment is
// permitted in every status except Closed so suspended and defaulted
// borrowers can still pay down debt. The reentrancy guard wraps the
// operation to protect any funds-movement side effect.
func (e *Engine) RepayCredit(caller, borrower [20]byte, amount *big.Int) (err error) {
	defer func() { e.observe("repay_credit", err) }()
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := e.requireAuth(caller); err != nil {
		return err
	}
	if caller != borrower {
		return ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	line, err := e.loadLine(borrower)
	if err != nil {
		return err
	}
	if line.Status == StatusClosed {
		return ErrLineClosed
	}

	if err := e.guard.Enter(borrower); err != nil {
		return err
	}
	defer e.guard.Exit(borrower)

	newUtilized := new(big.Int).Sub(line.UtilizedAmount, amount)
	if newUtilized.Sign() < 0 {
		newUtilized = big.NewInt(0)
	}

	line.UtilizedAmount = newUtilized
	if err := e.state.CreditLinePut(line); err != nil {
		return err
	}

	e.emit(RepaymentEvent(borrower, amount, newUtilized, e.now()))
	return nil
}

// UpdateRiskParameters tunes a line's interest rate, risk score and
// optionally its credit limit (nil leaves the limit unchanged). The caller
// must be the admin or the risk-engine principal. Interest-rate moves are
// throttled by the rate-change governor when a RateChangeConfig is stored;
// an unchanged rate skips the governor entirely.
func (e *Engine) UpdateRiskParameters(caller, borrower [20]byte, interestRateBps, riskScore uint32, creditLimit *big.Int) (err error) {
	defer func() { e.observe("update_risk_parameters", err) }()
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := e.requireRiskEngine(caller); err != nil {
		return err
	}

	line, err := e.loadLine(borrower)
	if err != nil {
		return err
	}
	if interestRateBps > MaxInterestRateBps {
		return ErrRateTooHigh
	}
	if riskScore > MaxRiskScore {
		return ErrRiskScoreTooHigh
	}
	if creditLimit != nil {
		if creditLimit.Sign() < 0 {
			return ErrNegativeLimit
		}
		if creditLimit.Cmp(line.UtilizedAmount) < 0 {
			return ErrLimitBelowUtilization
		}
	}

	now := e.now()
	rateChanged := interestRateBps != line.InterestRateBps
	if rateChanged {
		cfg, err := e.state.RateConfigGet()
		if err != nil {
			return err
		}
		if err := EvaluateRateChange(line.InterestRateBps, interestRateBps, line.LastRateUpdateTs, now, cfg); err != nil {
			return err
		}
	}

	if creditLimit != nil {
		line.CreditLimit = new(big.Int).Set(creditLimit)
	}
	line.InterestRateBps = interestRateBps
	line.RiskScore = riskScore
	if rateChanged {
		line.LastRateUpdateTs = now
	}
	if err := e.state.CreditLinePut(line); err != nil {
		return err
	}

	e.emit(RiskParametersUpdatedEvent(line))
	return nil
}

// SuspendCreditLine marks the borrower's line as suspended regardless of its
// prior status. Admin only.
func (e *Engine) SuspendCreditLine(caller, borrower [20]byte) (err error) {
	defer func() { e.observe("suspend_credit_line", err) }()
	return e.transitionStatus(caller, borrower, StatusSuspended, EventTypeLineSuspended)
}

// DefaultCreditLine marks the borrower's line as defaulted. Admin only. A
// defaulted line keeps its utilized balance as the outstanding claim.
func (e *Engine) DefaultCreditLine(caller, borrower [20]byte) (err error) {
	defer func() { e.observe("default_credit_line", err) }()
	return e.transitionStatus(caller, borrower, StatusDefaulted, EventTypeLineDefaulted)
}

func (e *Engine) transitionStatus(caller, borrower [20]byte, target CreditStatus, eventType string) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	line, err := e.loadLine(borrower)
	if err != nil {
		return err
	}
	if !line.Status.CanTransition(target) {
		return ErrInvalidTransition
	}
	line.Status = target
	if err := e.state.CreditLinePut(line); err != nil {
		return err
	}
	e.emit(LifecycleEvent(eventType, line))
	return nil
}

// CloseCreditLine closes the borrower's line. The admin may force-close
// regardless of utilisation; the borrower may self-close only once the
// utilized balance is zero. Closing an already-closed line is a no-op
// success and does not re-emit the event.
func (e *Engine) CloseCreditLine(caller, borrower [20]byte) (err error) {
	defer func() { e.observe("close_credit_line", err) }()
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := e.requireAuth(caller); err != nil {
		return err
	}
	admin, err := e.admin()
	if err != nil {
		return err
	}

	line, err := e.loadLine(borrower)
	if err != nil {
		return err
	}
	switch {
	case caller == admin, caller == borrower:
	default:
		return ErrUnauthorized
	}
	if line.Status == StatusClosed {
		return nil
	}
	if caller != admin && line.UtilizedAmount.Sign() != 0 {
		return ErrUtilizationNotZero
	}

	if !line.Status.CanTransition(StatusClosed) {
		return ErrInvalidTransition
	}
	line.Status = StatusClosed
	if err := e.state.CreditLinePut(line); err != nil {
		return err
	}

	e.emit(LifecycleEvent(EventTypeLineClosed, line))
	return nil
}

// GetCreditLine returns a copy of the borrower's credit line, or nil when no
// line exists. Pure read: no authorization, no mutation, no event.
func (e *Engine) GetCreditLine(borrower [20]byte) (*CreditLine, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	line, err := e.state.CreditLineGet(borrower)
	if err != nil {
		return nil, err
	}
	return line.Clone(), nil
}

func failureClass(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrNegativeLimit),
		errors.Is(err, ErrRiskScoreTooHigh),
		errors.Is(err, ErrRateTooHigh),
		errors.Is(err, ErrLimitBelowUtilization),
		errors.Is(err, ErrLineExists):
		return "validation"
	case errors.Is(err, ErrLineNotFound):
		return "not_found"
	case errors.Is(err, ErrLineNotActive),
		errors.Is(err, ErrLineClosed),
		errors.Is(err, ErrUtilizationNotZero),
		errors.Is(err, ErrInvalidTransition):
		return "state"
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotInitialized):
		return "authorization"
	case errors.Is(err, ErrRateDeltaExceeded), errors.Is(err, ErrRateIntervalNotElapsed):
		return "rate_limit"
	case errors.Is(err, ErrOverflow):
		return "overflow"
	case errors.Is(err, ErrInsufficientLiquidity):
		return "insufficient_liquidity"
	case errors.Is(err, ErrReentrancy):
		return "reentrancy"
	case errors.Is(err, nativecommon.ErrModulePaused):
		return "paused"
	default:
		return "internal"
	}
}
