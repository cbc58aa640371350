package engine

// AuctionStatus is the state of the auction machine.
type AuctionStatus int

const (
	AwaitingFirstCall AuctionStatus = iota
	AuctionOpen
	AuctionTerminated
)

func (s AuctionStatus) String() string {
	switch s {
	case AwaitingFirstCall:
		return "awaiting_first_call"
	case AuctionOpen:
		return "open"
	case AuctionTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Auction is the append-only call history of one deal.
// The dealer's left-hand opponent makes the first call.
type Auction struct {
	Dealer Seat
	Calls  []AuctionCall
}

func NewAuction(dealer Seat) Auction {
	return Auction{Dealer: dealer}
}

// Turn is the seat expected to call next.
func (a Auction) Turn() Seat {
	return Seat((int(a.Dealer) + 1 + len(a.Calls)) % 4)
}

// HighestBid returns the last bid made, which is also the highest.
func (a Auction) HighestBid() (AuctionCall, bool) {
	for i := len(a.Calls) - 1; i >= 0; i-- {
		if a.Calls[i].Call.IsBid() {
			return a.Calls[i], true
		}
	}
	return AuctionCall{}, false
}

// DoubleState is the doubling applied to the current highest bid.
func (a Auction) DoubleState() DoubleState {
	state := Undoubled
	for _, c := range a.Calls {
		switch c.Call.Kind {
		case CallBid:
			state = Undoubled
		case CallDouble:
			state = Doubled
		case CallRedouble:
			state = Redoubled
		}
	}
	return state
}

func (a Auction) hasBid() bool {
	_, ok := a.HighestBid()
	return ok
}

func (a Auction) trailingPasses() int {
	n := 0
	for i := len(a.Calls) - 1; i >= 0; i-- {
		if a.Calls[i].Call.Kind != CallPass {
			break
		}
		n++
	}
	return n
}

// Terminated reports whether the auction is over: three passes after a bid,
// or four passes with no bid at all.
func (a Auction) Terminated() bool {
	n := len(a.Calls)
	if n < 4 {
		return false
	}
	if a.hasBid() {
		return a.trailingPasses() >= 3
	}
	return n == 4 && a.trailingPasses() == 4
}

// PassedOut reports an auction that ended without any bid.
func (a Auction) PassedOut() bool {
	return a.Terminated() && !a.hasBid()
}

func (a Auction) Status() AuctionStatus {
	switch {
	case a.Terminated():
		return AuctionTerminated
	case a.hasBid():
		return AuctionOpen
	default:
		return AwaitingFirstCall
	}
}

// LegalCalls lists the kinds of call seat may make now. It is empty when
// it is not seat's turn or the auction is over.
func (a Auction) LegalCalls(seat Seat) []CallKind {
	if a.Terminated() || seat != a.Turn() {
		return nil
	}
	out := []CallKind{CallPass}
	if a.canBid() {
		out = append(out, CallBid)
	}
	if a.canDouble(seat) {
		out = append(out, CallDouble)
	}
	if a.canRedouble(seat) {
		out = append(out, CallRedouble)
	}
	return out
}

// LegalBids enumerates every bid seat may make now, lowest first.
func (a Auction) LegalBids(seat Seat) []Call {
	if a.Terminated() || seat != a.Turn() {
		return nil
	}
	high, ok := a.HighestBid()
	out := []Call{}
	for level := MinLevel; level <= MaxLevel; level++ {
		for _, s := range Strains {
			b := Bid(level, s)
			if !ok || b.Higher(high.Call) {
				out = append(out, b)
			}
		}
	}
	return out
}

func (a Auction) canBid() bool {
	high, ok := a.HighestBid()
	return !ok || Bid(MaxLevel, StrainNoTrump).Higher(high.Call)
}

func (a Auction) canDouble(seat Seat) bool {
	high, ok := a.HighestBid()
	if !ok || a.DoubleState() != Undoubled {
		return false
	}
	return high.Seat.Side() != seat.Side()
}

func (a Auction) canRedouble(seat Seat) bool {
	high, ok := a.HighestBid()
	if !ok || a.DoubleState() != Doubled {
		return false
	}
	return high.Seat.Side() == seat.Side()
}

// Check validates a call without applying it.
func (a Auction) Check(seat Seat, call Call) error {
	if err := call.Validate(); err != nil {
		return err
	}
	if a.Terminated() {
		return ErrAuctionClosed
	}
	if seat != a.Turn() {
		return outOfTurn("auction turn belongs to " + a.Turn().Name())
	}
	switch call.Kind {
	case CallBid:
		if high, ok := a.HighestBid(); ok && !call.Higher(high.Call) {
			return ErrInsufficientBid
		}
	case CallDouble:
		if !a.canDouble(seat) {
			return ErrCannotDouble
		}
	case CallRedouble:
		if !a.canRedouble(seat) {
			return ErrCannotRedouble
		}
	}
	return nil
}

// Apply appends call for seat after validating it. On error the auction is unchanged.
func (a *Auction) Apply(seat Seat, call Call) error {
	if err := a.Check(seat, call); err != nil {
		return err
	}
	a.Calls = append(a.Calls, AuctionCall{Seat: seat, Call: call})
	return nil
}

// Contract resolves a terminated auction. ok is false while the auction runs
// and when it was passed out.
func (a Auction) Contract(firstNamed bool) (Contract, bool) {
	if !a.Terminated() {
		return Contract{}, false
	}
	high, ok := a.HighestBid()
	if !ok {
		return Contract{}, false
	}
	declarer := high.Seat
	if firstNamed {
		side := high.Seat.Side()
		for _, c := range a.Calls {
			if c.Call.IsBid() && c.Call.Strain == high.Call.Strain && c.Seat.Side() == side {
				declarer = c.Seat
				break
			}
		}
	}
	return Contract{
		Level:    high.Call.Level,
		Strain:   high.Call.Strain,
		Declarer: declarer,
		Doubled:  a.DoubleState(),
	}, true
}

func (a Auction) Clone() Auction {
	a.Calls = append([]AuctionCall(nil), a.Calls...)
	return a
}
