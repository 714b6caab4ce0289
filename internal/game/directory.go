package game

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/gemrush/backend/internal/engine"
)

// Config carries the knobs every room is created with.
type Config struct {
	RoundDuration time.Duration
	GridSize      int
	Gems          []engine.Cell
}

// DefaultConfig matches the original browser game: 8×8 board, six gem
// colors, five-minute rounds.
func DefaultConfig() Config {
	return Config{
		RoundDuration: 5 * time.Minute,
		GridSize:      engine.DefaultSize,
		Gems:          engine.DefaultGems,
	}
}

// Directory is the matchmaking registry. It owns the set of live rooms
// and routes each incoming player to the first joinable room in
// creation order, creating one when none qualifies. Ended rooms are
// released and never matched again.
type Directory struct {
	mu       sync.Mutex
	rooms    []*Room          // creation order
	byPlayer map[string]*Room // routing index for moves and disconnects

	cfg         Config
	notifier    Notifier
	recorder    Recorder
	leaderboard Leaderboard
}

// NewDirectory builds a directory. recorder and leaderboard may be nil
// when the corresponding backend is not configured.
func NewDirectory(cfg Config, notifier Notifier, recorder Recorder, leaderboard Leaderboard) *Directory {
	if cfg.GridSize == 0 {
		cfg.GridSize = engine.DefaultSize
	}
	if len(cfg.Gems) == 0 {
		cfg.Gems = engine.DefaultGems
	}
	if cfg.RoundDuration == 0 {
		cfg.RoundDuration = 5 * time.Minute
	}
	return &Directory{
		byPlayer:    make(map[string]*Room),
		cfg:         cfg,
		notifier:    notifier,
		recorder:    recorder,
		leaderboard: leaderboard,
	}
}

// Assign places the player into the first Waiting room with a free
// seat, or a freshly created room. The returned room has already
// accepted the join (and may have started the round as a result).
func (d *Directory) Assign(p *Player) (*Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, r := range d.rooms {
		if !r.joinable() {
			continue
		}
		if err := r.Join(p); err != nil {
			continue
		}
		d.byPlayer[p.ID] = r
		return r, nil
	}

	r := newRoom(uuid.NewString(), d)
	if err := r.Join(p); err != nil {
		return nil, err
	}
	d.rooms = append(d.rooms, r)
	d.byPlayer[p.ID] = r
	log.Printf("[DIRECTORY] Created room %s (%d rooms live)", r.ID, len(d.rooms))
	return r, nil
}

// Lookup returns the room currently holding the player.
func (d *Directory) Lookup(playerID string) (*Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.byPlayer[playerID]
	return r, ok
}

// Leave routes a disconnect to the player's room, if any.
func (d *Directory) Leave(playerID string) {
	d.mu.Lock()
	r, ok := d.byPlayer[playerID]
	if ok {
		delete(d.byPlayer, playerID)
	}
	d.mu.Unlock()

	// Outside the directory lock: ending a room re-enters the
	// directory through release.
	if ok {
		r.Leave(playerID)
	}
}

// RoomCount returns the number of live rooms.
func (d *Directory) RoomCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rooms)
}

// Sweep drops empty Waiting rooms older than maxIdle. Such rooms
// appear when a sole waiting player disconnects; nothing else removes
// them since they never start or end. Returns how many were dropped.
func (d *Directory) Sweep(maxIdle time.Duration) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	kept := d.rooms[:0]
	dropped := 0
	for _, r := range d.rooms {
		if r.abandoned(cutoff) {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	d.rooms = kept
	return dropped
}

// release removes an ended room and any routing entries still pointing
// at it. Called by the room itself after its lock is released.
func (d *Directory) release(r *Room) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, candidate := range d.rooms {
		if candidate == r {
			d.rooms = append(d.rooms[:i], d.rooms[i+1:]...)
			break
		}
	}
	for id, candidate := range d.byPlayer {
		if candidate == r {
			delete(d.byPlayer, id)
		}
	}
	log.Printf("[DIRECTORY] Released room %s (%d rooms live)", r.ID, len(d.rooms))
}

// record persists a finished round, best effort. Runs on a background
// goroutine; failures are logged and never reach the players.
func (d *Directory) record(summary RoundSummary) {
	if d.recorder != nil {
		if err := d.recorder.SaveRound(summary); err != nil {
			log.Printf("[DIRECTORY] Error saving round %s: %v", summary.RoomID, err)
		}
	}
	if d.leaderboard != nil {
		for _, entry := range summary.Standings {
			if entry.Score == 0 {
				continue
			}
			if err := d.leaderboard.AddScore(entry.Name, entry.Score); err != nil {
				log.Printf("[DIRECTORY] Error updating leaderboard for %s: %v", entry.Name, err)
				continue
			}
		}
	}
}

// joinable reports whether the room can accept one more player.
func (r *Room) joinable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateWaiting && len(r.players) < MaxPlayers
}

// abandoned reports whether the room is an empty Waiting room created
// before the cutoff.
func (r *Room) abandoned(cutoff time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateWaiting && len(r.players) == 0 && r.createdAt.Before(cutoff)
}
