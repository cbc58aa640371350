package wire

import "bridge/internal/engine"

// NoSeat is the viewer value for spectators.
const NoSeat engine.Seat = -1

type SeatView struct {
	Seat      string    `json:"seat"`
	Name      string    `json:"name"`
	Hand      []CardDTO `json:"hand,omitempty"`
	HandCount int       `json:"handCount"`
	HCP       *int      `json:"hcp,omitempty"`
	Dummy     bool      `json:"dummy,omitempty"`
	Bot       bool      `json:"bot,omitempty"`
	Occupied  bool      `json:"occupied"`
}

type CallView struct {
	Seat string `json:"seat"`
	Call string `json:"call"`
}

type ContractView struct {
	Level    int    `json:"level"`
	Strain   string `json:"strain"`
	Doubled  string `json:"doubled,omitempty"`
	Declarer string `json:"declarer"`
	Dummy    string `json:"dummy"`
	Target   int    `json:"target"`
	Text     string `json:"text"`
}

type PlayView struct {
	Seat string  `json:"seat"`
	Card CardDTO `json:"card"`
}

type TrickView struct {
	Leader string     `json:"leader"`
	Plays  []PlayView `json:"plays"`
	Winner string     `json:"winner,omitempty"`
}

type SidePair struct {
	NS int `json:"ns"`
	EW int `json:"ew"`
}

type VulnerabilityView struct {
	NS bool `json:"ns"`
	EW bool `json:"ew"`
}

type RoundScoreView struct {
	Round     int    `json:"round"`
	Contract  string `json:"contract,omitempty"`
	Declarer  string `json:"declarer,omitempty"`
	Made      int    `json:"made"`
	Result    int    `json:"result"`
	PassedOut bool   `json:"passedOut,omitempty"`
	NS        int    `json:"ns"`
	EW        int    `json:"ew"`
}

type TableView struct {
	TableID       string            `json:"tableId"`
	Viewer        string            `json:"viewer,omitempty"`
	Phase         string            `json:"phase"`
	Round         int               `json:"round"`
	MaxRounds     int               `json:"maxRounds"`
	Dealer        string            `json:"dealer"`
	Turn          string            `json:"turn,omitempty"`
	Actor         string            `json:"actor,omitempty"`
	Seats         []SeatView        `json:"seats"`
	Auction       []CallView        `json:"auction"`
	Contract      *ContractView     `json:"contract,omitempty"`
	Trick         TrickView         `json:"trick"`
	LastTrick     *TrickView        `json:"lastTrick,omitempty"`
	TricksWon     SidePair          `json:"tricksWon"`
	DummyRevealed bool              `json:"dummyRevealed"`
	Vulnerable    VulnerabilityView `json:"vulnerable"`
	RoundScores   []RoundScoreView  `json:"roundScores"`
	Totals        SidePair          `json:"totals"`
	LegalActions  []ActionDTO       `json:"legalActions"`
}

// SeatInfo is table-level seating the engine does not know about.
type SeatInfo struct {
	Occupied [4]bool
	Bot      [4]bool
}

// HandVisible reports whether viewer may see seat's cards: its own hand
// always, and dummy's to everyone once the opening lead is down.
func HandVisible(g engine.MatchState, viewer, seat engine.Seat) bool {
	if viewer == seat {
		return true
	}
	dummy, ok := g.Dummy()
	return ok && g.DummyRevealed && seat == dummy
}

func BuildTableView(tableID string, g engine.MatchState, viewer engine.Seat, seats SeatInfo) *TableView {
	v := &TableView{
		TableID:       tableID,
		Phase:         g.Phase.String(),
		Round:         g.Round,
		MaxRounds:     g.Rules.MaxRounds,
		Dealer:        g.Dealer.String(),
		Auction:       []CallView{},
		Trick:         trickView(g.Trick, nil),
		TricksWon:     SidePair{NS: g.TricksWon[engine.SideNS], EW: g.TricksWon[engine.SideEW]},
		DummyRevealed: g.DummyRevealed,
		Vulnerable:    VulnerabilityView{NS: g.Vulnerable[engine.SideNS], EW: g.Vulnerable[engine.SideEW]},
		RoundScores:   []RoundScoreView{},
		Totals:        SidePair{NS: g.TotalScores[engine.SideNS], EW: g.TotalScores[engine.SideEW]},
		LegalActions:  []ActionDTO{},
	}
	if g.Phase == engine.PhasePartnership {
		v.Dealer = ""
	}
	if viewer.Valid() {
		v.Viewer = viewer.String()
	}
	if seat, ok := engine.CurrentPlayer(g); ok {
		v.Turn = seat.String()
	}
	if actor, ok := engine.CurrentActor(g); ok {
		v.Actor = actor.String()
	}

	dummy, hasDummy := g.Dummy()
	for _, seat := range engine.Seats {
		sv := SeatView{
			Seat:      seat.String(),
			Name:      seat.Name(),
			HandCount: len(g.Hands[seat]),
			Dummy:     hasDummy && seat == dummy,
			Bot:       seats.Bot[seat],
			Occupied:  seats.Occupied[seat],
		}
		if HandVisible(g, viewer, seat) {
			sv.Hand = cards(g.Hands[seat])
		}
		if seat == viewer {
			hcp := engine.HCP(g.Hands[seat])
			sv.HCP = &hcp
		}
		v.Seats = append(v.Seats, sv)
	}

	for _, c := range g.Auction.Calls {
		v.Auction = append(v.Auction, CallView{Seat: c.Seat.String(), Call: c.Call.String()})
	}
	if g.Contract != nil {
		v.Contract = contractView(*g.Contract)
	}
	if last, ok := g.LastTrick(); ok && g.Contract != nil {
		winner, _ := last.Winner(g.Contract.Strain)
		v.LastTrick = trickView(last, &winner).ptr()
	}
	for _, rs := range g.RoundScores {
		v.RoundScores = append(v.RoundScores, roundScoreView(rs))
	}
	if viewer.Valid() {
		for _, a := range engine.LegalActions(g, viewer) {
			v.LegalActions = append(v.LegalActions, ActionFromEngine(a))
		}
	}
	return v
}

func (t TrickView) ptr() *TrickView {
	return &t
}

func trickView(t engine.Trick, winner *engine.Seat) TrickView {
	out := TrickView{Leader: t.Leader.String(), Plays: []PlayView{}}
	for _, p := range t.Plays {
		out.Plays = append(out.Plays, PlayView{Seat: p.Seat.String(), Card: *CardFromEngine(p.Card)})
	}
	if winner != nil {
		out.Winner = winner.String()
	}
	return out
}

func contractView(c engine.Contract) *ContractView {
	return &ContractView{
		Level:    c.Level,
		Strain:   c.Strain.String(),
		Doubled:  c.Doubled.String(),
		Declarer: c.Declarer.String(),
		Dummy:    c.Dummy().String(),
		Target:   c.Target(),
		Text:     c.String(),
	}
}

func roundScoreView(rs engine.RoundScore) RoundScoreView {
	out := RoundScoreView{
		Round:     rs.Round,
		Made:      rs.Made,
		Result:    rs.Result(),
		PassedOut: rs.PassedOut,
		NS:        rs.NS,
		EW:        rs.EW,
	}
	if rs.Contract != nil {
		out.Contract = rs.Contract.String()
		out.Declarer = rs.Contract.Declarer.String()
	}
	return out
}
