package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"bridge/internal/auth"
	"bridge/internal/engine"
	"bridge/internal/wire"
)

// Routes returns the HTTP API, the websocket endpoint and, when webDist is
// set, the frontend build with SPA fallback.
func (h *Hub) Routes(webDist string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/tables", h.handleListTables)
	mux.HandleFunc("POST /api/tables", h.handleCreateTable)
	mux.HandleFunc("GET /api/tables/{id}", h.handleGetTable)
	mux.HandleFunc("DELETE /api/tables/{id}", h.handleDeleteTable)
	mux.HandleFunc("POST /api/tables/{id}/seats/{seat}", h.handleClaimSeat)
	mux.HandleFunc("DELETE /api/tables/{id}/seats/{seat}", h.handleReleaseSeat)
	mux.HandleFunc("POST /api/tables/{id}/commands", h.handleCommand)
	mux.HandleFunc("POST /api/tables/{id}/reset", h.handleReset)
	mux.HandleFunc("GET /ws/{id}", h.handleWS)

	if webDist != "" {
		mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := filepath.Join(webDist, filepath.Clean(r.URL.Path))
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				http.ServeFile(w, r, path)
				return
			}
			http.ServeFile(w, r, filepath.Join(webDist, "index.html"))
		}))
	}

	return h.cors(h.logRequests(mux))
}

func (h *Hub) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && h.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets the websocket upgrader reach the hijacker.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (h *Hub) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/ws/") {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}

type createTableRequest struct {
	Bots     []string `json:"bots"`
	BotLevel string   `json:"botLevel"`
	Seed     int64    `json:"seed"`
	AutoDeal *bool    `json:"autoDeal"`
}

type tableResponse struct {
	TableID string          `json:"tableId"`
	Seat    string          `json:"seat,omitempty"`
	Token   string          `json:"token,omitempty"`
	State   *wire.TableView `json:"state"`
	Events  []wire.Event    `json:"events,omitempty"`
}

type commandRequest struct {
	ActionId string          `json:"actionId"`
	Action   *wire.ActionDTO `json:"action"`
}

type resetRequest struct {
	Seed int64 `json:"seed"`
}

func (h *Hub) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var seats []engine.Seat
	for _, name := range req.Bots {
		seat, err := engine.ParseSeat(name)
		if err != nil {
			writeError(w, err)
			return
		}
		seats = append(seats, seat)
	}
	if err := CheckBotSeats(seats); err != nil {
		writeError(w, err)
		return
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	autoDeal := true
	if req.AutoDeal != nil {
		autoDeal = *req.AutoDeal
	}
	t := h.CreateTable(TableOptions{
		Rules:    h.rules,
		Seed:     seed,
		Bots:     BotsFor(seats, req.BotLevel, seed),
		AutoDeal: autoDeal,
	})
	writeJSON(w, http.StatusCreated, tableResponse{TableID: t.ID(), State: t.View(wire.NoSeat)})
}

func (h *Hub) handleListTables(w http.ResponseWriter, r *http.Request) {
	ids := h.TableIDs()
	sort.Strings(ids)
	writeJSON(w, http.StatusOK, map[string][]string{"tables": ids})
}

// handleDeleteTable closes a table. Any seated player may close it.
func (h *Hub) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	t, _, ok := h.authorized(w, r)
	if !ok {
		return
	}
	h.RemoveTable(t.ID())
	h.log.Info("table removed", zap.String("table_id", t.ID()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Hub) handleGetTable(w http.ResponseWriter, r *http.Request) {
	t, ok := h.tableFor(w, r)
	if !ok {
		return
	}
	viewer := wire.NoSeat
	if raw := bearer(r); raw != "" {
		claim, err := h.seatClaim(raw, t)
		if err != nil {
			writeError(w, err)
			return
		}
		viewer = claim.Seat
	}
	writeJSON(w, http.StatusOK, tableResponse{TableID: t.ID(), State: t.View(viewer)})
}

func (h *Hub) handleClaimSeat(w http.ResponseWriter, r *http.Request) {
	t, ok := h.tableFor(w, r)
	if !ok {
		return
	}
	seat, err := engine.ParseSeat(r.PathValue("seat"))
	if err != nil {
		writeError(w, err)
		return
	}
	claimID, err := t.ClaimSeat(seat)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := h.tokens.Issue(auth.SeatClaim{
		TableID: t.ID(),
		Seat:    seat,
		ClaimID: claimID,
		Subject: r.URL.Query().Get("name"),
	})
	if err != nil {
		_ = t.ReleaseClaim(seat, claimID)
		h.log.Error("issue token", zap.Error(err))
		writeError(w, wire.NewError(wire.CodeInternal, "cannot issue token"))
		return
	}
	writeJSON(w, http.StatusOK, tableResponse{
		TableID: t.ID(),
		Seat:    seat.String(),
		Token:   token,
		State:   t.View(seat),
	})
}

func (h *Hub) handleReleaseSeat(w http.ResponseWriter, r *http.Request) {
	t, claim, ok := h.authorized(w, r)
	if !ok {
		return
	}
	seat, err := engine.ParseSeat(r.PathValue("seat"))
	if err != nil || seat != claim.Seat {
		writeError(w, wire.NewError(wire.CodeForbidden, "token is for another seat"))
		return
	}
	if err := t.ReleaseClaim(claim.Seat, claim.ClaimID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Hub) handleCommand(w http.ResponseWriter, r *http.Request) {
	t, claim, ok := h.authorized(w, r)
	if !ok {
		return
	}
	var req commandRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	a, err := req.Action.ToEngine()
	if err != nil {
		writeError(w, err)
		return
	}
	events, err := t.SubmitClaimed(claim.Seat, claim.ClaimID, req.ActionId, a)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tableResponse{TableID: t.ID(), Seat: claim.Seat.String(), State: t.View(claim.Seat), Events: events})
}

func (h *Hub) handleReset(w http.ResponseWriter, r *http.Request) {
	t, claim, ok := h.authorized(w, r)
	if !ok {
		return
	}
	var req resetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}
	t.Reset(req.Seed)
	writeJSON(w, http.StatusOK, tableResponse{TableID: t.ID(), Seat: claim.Seat.String(), State: t.View(claim.Seat)})
}

func (h *Hub) tableFor(w http.ResponseWriter, r *http.Request) (*Table, bool) {
	t, ok := h.Table(r.PathValue("id"))
	if !ok {
		writeError(w, wire.NewError(wire.CodeNotFound, "no such table"))
	}
	return t, ok
}

// authorized resolves the table and the seat held by the bearer token.
func (h *Hub) authorized(w http.ResponseWriter, r *http.Request) (*Table, auth.SeatClaim, bool) {
	t, ok := h.tableFor(w, r)
	if !ok {
		return nil, auth.SeatClaim{}, false
	}
	raw := bearer(r)
	if raw == "" {
		writeError(w, wire.NewError(wire.CodeUnauthorized, "missing token"))
		return nil, auth.SeatClaim{}, false
	}
	claim, err := h.seatClaim(raw, t)
	if err != nil {
		writeError(w, err)
		return nil, auth.SeatClaim{}, false
	}
	return t, claim, true
}

// seatClaim verifies raw and checks that its claim still holds the seat on t.
func (h *Hub) seatClaim(raw string, t *Table) (auth.SeatClaim, error) {
	claim, err := h.tokens.Verify(raw)
	if err != nil {
		return auth.SeatClaim{}, wire.NewError(wire.CodeUnauthorized, "invalid token")
	}
	if claim.TableID != t.ID() {
		return auth.SeatClaim{}, wire.NewError(wire.CodeForbidden, "token is for another table")
	}
	if err := t.CheckClaim(claim.Seat, claim.ClaimID); err != nil {
		return auth.SeatClaim{}, err
	}
	return claim, nil
}

func bearer(r *http.Request) string {
	v := r.Header.Get("Authorization")
	if !strings.HasPrefix(v, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(v, "Bearer "))
}

// decodeBody reads a JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return wire.NewError(wire.CodeBadRequest, "invalid json")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	ev := wire.ErrorFromErr(err)
	writeJSON(w, StatusFor(ev.Code), wire.ServerMessage{Type: "error", Error: ev})
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case string(engine.KindMalformed), wire.CodeBadRequest:
		return http.StatusBadRequest
	case wire.CodeUnauthorized:
		return http.StatusUnauthorized
	case wire.CodeForbidden:
		return http.StatusForbidden
	case wire.CodeNotFound:
		return http.StatusNotFound
	case string(engine.KindOutOfTurn), string(engine.KindInvalidPhase), wire.CodeConflict:
		return http.StatusConflict
	case string(engine.KindIllegalCall), string(engine.KindIllegalPlay):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
