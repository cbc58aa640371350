package engine

import "errors"

// ErrorKind tags every rejected command so transports can map it to a status.
type ErrorKind string

const (
	KindOutOfTurn    ErrorKind = "out_of_turn"
	KindIllegalCall  ErrorKind = "illegal_call"
	KindIllegalPlay  ErrorKind = "illegal_play"
	KindInvalidPhase ErrorKind = "invalid_phase_transition"
	KindMalformed    ErrorKind = "malformed_command"
)

// RuleError rejects a single command. The state it was applied to is unchanged.
type RuleError struct {
	Kind   ErrorKind
	Reason string
}

func (e *RuleError) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Reason
}

// Is matches any error of the same kind when target carries no reason,
// and only the exact reason otherwise.
func (e *RuleError) Is(target error) bool {
	t, ok := target.(*RuleError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

var (
	ErrOutOfTurn    = &RuleError{Kind: KindOutOfTurn}
	ErrIllegalCall  = &RuleError{Kind: KindIllegalCall}
	ErrIllegalPlay  = &RuleError{Kind: KindIllegalPlay}
	ErrInvalidPhase = &RuleError{Kind: KindInvalidPhase}
	ErrMalformed    = &RuleError{Kind: KindMalformed}

	ErrInsufficientBid = &RuleError{Kind: KindIllegalCall, Reason: "bid must be higher than the current bid"}
	ErrCannotDouble    = &RuleError{Kind: KindIllegalCall, Reason: "double needs an undoubled opponent bid"}
	ErrCannotRedouble  = &RuleError{Kind: KindIllegalCall, Reason: "redouble needs a doubled bid of your side"}
	ErrAuctionClosed   = &RuleError{Kind: KindIllegalCall, Reason: "auction is over"}
	ErrCardNotHeld     = &RuleError{Kind: KindIllegalPlay, Reason: "seat has no such card"}
	ErrRevoke          = &RuleError{Kind: KindIllegalPlay, Reason: "must follow the led suit"}
	ErrDealIncomplete  = &RuleError{Kind: KindInvalidPhase, Reason: "hands must hold 13 disjoint cards each"}
)

func outOfTurn(reason string) error {
	return &RuleError{Kind: KindOutOfTurn, Reason: reason}
}

func malformed(reason string) error {
	return &RuleError{Kind: KindMalformed, Reason: reason}
}

func invalidPhase(reason string) error {
	return &RuleError{Kind: KindInvalidPhase, Reason: reason}
}

// KindOf returns the taxonomy tag of err, or "" when err is not a rule error.
func KindOf(err error) ErrorKind {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}
