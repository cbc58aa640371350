package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bridge/internal/auth"
	"bridge/internal/bots"
	"bridge/internal/engine"
	"bridge/internal/wire"
)

var ErrNoPlayerSeat = wire.NewError(wire.CodeBadRequest, "a table needs at least one player seat")

type HubConfig struct {
	// Rules applies to every table the HTTP API creates.
	Rules          engine.Rules
	AllowedOrigins []string
}

// Hub owns every table of the process, keyed by id.
type Hub struct {
	log          *zap.Logger
	tokens       *auth.TokenService
	rules        engine.Rules
	allowOrigins map[string]bool

	mu     sync.RWMutex
	tables map[string]*Table
}

func NewHub(log *zap.Logger, tokens *auth.TokenService, cfg HubConfig) *Hub {
	m := map[string]bool{}
	for _, a := range cfg.AllowedOrigins {
		if a != "" {
			m[a] = true
		}
	}
	return &Hub{
		log:          log,
		tokens:       tokens,
		rules:        cfg.Rules,
		allowOrigins: m,
		tables:       map[string]*Table{},
	}
}

// CreateTable opens a table with a fresh id. A zero seed is replaced by a
// time-based one.
func (h *Hub) CreateTable(opts TableOptions) *Table {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	id := uuid.NewString()
	t := NewTable(id, h.log, opts)

	h.mu.Lock()
	h.tables[id] = t
	h.mu.Unlock()
	h.log.Info("table created", zap.String("table_id", id), zap.Int("bots", len(opts.Bots)))
	return t
}

func (h *Hub) Table(id string) (*Table, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.tables[id]
	return t, ok
}

func (h *Hub) RemoveTable(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.tables, id)
}

func (h *Hub) TableIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.tables))
	for id := range h.tables {
		out = append(out, id)
	}
	return out
}

func (h *Hub) originAllowed(origin string) bool {
	return origin == "" || len(h.allowOrigins) == 0 || h.allowOrigins[origin]
}

// CheckBotSeats rejects bot lists that leave no seat for a player. A scored
// deal only moves on when a seated player advances it.
func CheckBotSeats(seats []engine.Seat) error {
	taken := map[engine.Seat]bool{}
	for _, s := range seats {
		taken[s] = true
	}
	if len(taken) >= len(engine.Seats) {
		return ErrNoPlayerSeat
	}
	return nil
}

// BotsFor fills seats with bots of the given level, seeded from seed.
func BotsFor(seats []engine.Seat, level string, seed int64) map[engine.Seat]bots.Bot {
	out := map[engine.Seat]bots.Bot{}
	for _, s := range seats {
		if level == "normal" {
			out[s] = bots.NewNormal(seed + int64(s) + 1)
		} else {
			out[s] = bots.NewEasy(seed + int64(s) + 1)
		}
	}
	return out
}
