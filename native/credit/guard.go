package credit

// ReentrancyGuard tracks which borrowers currently have a fund-moving
// operation in flight. The threat model is synchronous re-entry: while the
// engine is transferring funds through the liquidity gateway, the external
// call can itself invoke back into the engine before the original operation
// has committed. Acquisition fails fast instead of blocking; the flag is
// transient and never persisted.
//
// Operations on different borrowers are independent, so the guard is scoped
// per borrower rather than engine-wide.
type ReentrancyGuard struct {
	inFlight map[[20]byte]bool
}

// NewReentrancyGuard returns an empty guard.
func NewReentrancyGuard() *ReentrancyGuard {
	return &ReentrancyGuard{inFlight: make(map[[20]byte]bool)}
}

// Enter marks the borrower's operation as in flight. It returns
// ErrReentrancy when a fund-moving call for the same borrower is already in
// progress.
func (g *ReentrancyGuard) Enter(borrower [20]byte) error {
	if g == nil {
		return nil
	}
	if g.inFlight == nil {
		g.inFlight = make(map[[20]byte]bool)
	}
	if g.inFlight[borrower] {
		return ErrReentrancy
	}
	g.inFlight[borrower] = true
	return nil
}

// Exit releases the borrower's in-flight flag. It must run on every exit
// path after a successful Enter, including error returns.
func (g *ReentrancyGuard) Exit(borrower [20]byte) {
	if g == nil || g.inFlight == nil {
		return
	}
	delete(g.inFlight, borrower)
}

// Held reports whether a fund-moving call is currently in flight for the
// borrower. Primarily intended for tests.
func (g *ReentrancyGuard) Held(borrower [20]byte) bool {
	if g == nil || g.inFlight == nil {
		return false
	}
	return g.inFlight[borrower]
}
