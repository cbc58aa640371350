package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"bridge/internal/engine"
	"bridge/internal/wire"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 15 * time.Second
	sendBuffer = 64
)

var (
	errSlowObserver   = errors.New("observer send buffer full")
	errObserverClosed = errors.New("observer closed")
)

// wsObserver is one websocket connection attached to a table. Send only
// queues; writePump owns every write to the connection.
type wsObserver struct {
	seat    engine.Seat
	claimID string
	conn    *websocket.Conn
	send    chan wire.ServerMessage
	done    chan struct{}
	once    sync.Once
}

func newWSObserver(conn *websocket.Conn, seat engine.Seat, claimID string) *wsObserver {
	return &wsObserver{
		seat:    seat,
		claimID: claimID,
		conn:    conn,
		send:    make(chan wire.ServerMessage, sendBuffer),
		done:    make(chan struct{}),
	}
}

func (o *wsObserver) Seat() engine.Seat {
	return o.seat
}

func (o *wsObserver) ClaimID() string {
	return o.claimID
}

// Send queues msg without blocking. A client that lets the queue fill up is
// disconnected.
func (o *wsObserver) Send(msg wire.ServerMessage) error {
	select {
	case <-o.done:
		return errObserverClosed
	default:
	}
	select {
	case o.send <- msg:
		return nil
	default:
		o.close()
		return errSlowObserver
	}
}

func (o *wsObserver) close() {
	o.once.Do(func() {
		close(o.done)
		_ = o.conn.Close()
	})
}

func (o *wsObserver) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		o.close()
	}()
	for {
		select {
		case msg := <-o.send:
			_ = o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ping.C:
			if err := o.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-o.done:
			return
		}
	}
}

func (h *Hub) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return h.originAllowed(r.Header.Get("Origin"))
		},
	}
}

// handleWS upgrades GET /ws/{id}. A valid ?token= binds the connection to a
// seat; without one the connection is a spectator.
func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	t, ok := h.Table(r.PathValue("id"))
	if !ok {
		writeError(w, wire.NewError(wire.CodeNotFound, "no such table"))
		return
	}
	seat, claimID := wire.NoSeat, ""
	if raw := r.URL.Query().Get("token"); raw != "" {
		claim, err := h.seatClaim(raw, t)
		if err != nil {
			writeError(w, err)
			return
		}
		seat, claimID = claim.Seat, claim.ClaimID
	}

	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade", zap.Error(err))
		return
	}
	o := newWSObserver(conn, seat, claimID)
	defer o.close()
	go o.writePump()

	t.Attach(o)
	defer t.Detach(o)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg wire.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.replyError(o, wire.NewError(wire.CodeBadRequest, "invalid json"))
			continue
		}
		h.handleMessage(t, o, msg)
	}
}

func (h *Hub) handleMessage(t *Table, o *wsObserver, msg wire.ClientMessage) {
	switch msg.Type {
	case "join_table", "request_state":
		viewer := o.seat
		if viewer.Valid() && t.CheckClaim(viewer, o.claimID) != nil {
			viewer = wire.NoSeat
		}
		h.reply(o, wire.ServerMessage{Type: "state", State: t.View(viewer)})
	case "player_action":
		if !o.seat.Valid() {
			h.replyError(o, wire.NewError(wire.CodeUnauthorized, "spectators cannot act"))
			return
		}
		a, err := msg.Action.ToEngine()
		if err != nil {
			h.replyError(o, err)
			return
		}
		// Success is broadcast to every observer, this one included.
		if _, err := t.SubmitClaimed(o.seat, o.claimID, msg.ActionId, a); err != nil {
			h.replyError(o, err)
		}
	case "reset":
		if !o.seat.Valid() {
			h.replyError(o, wire.NewError(wire.CodeUnauthorized, "spectators cannot reset"))
			return
		}
		if err := t.CheckClaim(o.seat, o.claimID); err != nil {
			h.replyError(o, err)
			return
		}
		t.Reset(time.Now().UnixNano())
	default:
		h.replyError(o, wire.NewError(wire.CodeBadRequest, "unknown message type"))
	}
}

func (h *Hub) reply(o *wsObserver, msg wire.ServerMessage) {
	if err := o.Send(msg); err != nil {
		h.log.Debug("ws write", zap.Error(err))
	}
}

func (h *Hub) replyError(o *wsObserver, err error) {
	h.reply(o, wire.ServerMessage{Type: "error", Error: wire.ErrorFromErr(err)})
}
