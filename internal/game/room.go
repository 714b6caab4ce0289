package game

import (
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/avolkov/gemrush/backend/internal/domain"
	"github.com/avolkov/gemrush/backend/internal/engine"
)

// State is a room's lifecycle phase. A room moves Waiting → Active →
// Ended and never backward; Ended rooms are discarded, not reused.
type State string

const (
	StateWaiting State = "waiting"
	StateActive  State = "active"
	StateEnded   State = "ended"
)

const (
	// MinPlayers starts the round when reached and ends it when an
	// active room drops below it.
	MinPlayers = 2
	// MaxPlayers is the capacity ceiling for joining.
	MaxPlayers = 4
)

// Notifier delivers a message to one connected player. Implemented by
// the websocket connection manager; delivery failures are the
// transport's problem, the room fires and forgets.
type Notifier interface {
	Send(playerID string, msg domain.ServerMessage) error
}

// Recorder persists a finished round. Implementations must tolerate
// being called from a background goroutine.
type Recorder interface {
	SaveRound(summary RoundSummary) error
}

// Leaderboard accumulates all-time scores across rounds.
type Leaderboard interface {
	AddScore(playerName string, points int) error
}

// RoundSummary is the durable record of one finished round.
type RoundSummary struct {
	RoomID          string
	PlayerCount     int
	Winner          string
	TopScore        int
	DurationSeconds int
	FinishedAt      time.Time
	Standings       []domain.PlayerInfo
}

// MoveResult reports what one accepted move did to the mover's board.
type MoveResult struct {
	Points   int  // score delta from the cascade
	Total    int  // player's cumulative score afterwards
	Cycles   int  // cascade cycles the move triggered
	Reverted bool // the swap produced no match and was undone
}

// Room is one timed round: a roster of players in join order, one
// private board per player, and a deadline. All mutation happens under
// mu; the cascade engine is synchronous, so holding the lock across a
// move keeps every per-board invariant without extra bookkeeping.
type Room struct {
	ID string

	mu        sync.Mutex
	state     State
	players   map[string]*Player
	order     []string // player IDs in join order, the tie-break for standings
	createdAt time.Time
	startedAt time.Time
	deadline  time.Time
	endTimer  *time.Timer
	rng       *rand.Rand

	cfg       Config
	notifier  Notifier
	directory *Directory
}

func newRoom(id string, d *Directory) *Room {
	return &Room{
		ID:        id,
		state:     StateWaiting,
		players:   make(map[string]*Player),
		createdAt: time.Now(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		cfg:       d.cfg,
		notifier:  d.notifier,
		directory: d,
	}
}

// State returns the room's current lifecycle phase.
func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// PlayerCount returns the current roster size.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Deadline returns the round's end time; zero until the round starts.
func (r *Room) Deadline() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deadline
}

// Join adds a player with a fresh board and zero score. Reaching
// MinPlayers while Waiting starts the round: the deadline is
// snapshotted and every member receives gameStart with their own grid.
func (r *Room) Join(p *Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateEnded {
		return domain.ErrUnknownRoom
	}
	if r.state != StateWaiting || len(r.players) >= MaxPlayers {
		return domain.ErrRoomFull
	}

	grid, err := engine.NewGrid(r.cfg.GridSize, r.cfg.Gems, r.rng)
	if err != nil {
		return err
	}

	p.Score = 0
	p.Grid = grid
	r.players[p.ID] = p
	r.order = append(r.order, p.ID)

	log.Printf("[ROOM] %s joined room %s (%d/%d)", p.Name, r.ID, len(r.players), MaxPlayers)

	if len(r.players) >= MinPlayers {
		r.startLocked()
	}
	return nil
}

// startLocked transitions Waiting → Active. Caller holds r.mu.
func (r *Room) startLocked() {
	r.state = StateActive
	r.startedAt = time.Now()
	r.deadline = r.startedAt.Add(r.cfg.RoundDuration)
	r.endTimer = time.AfterFunc(r.cfg.RoundDuration, func() {
		r.Tick(time.Now())
	})

	roster := r.rosterLocked()
	endMillis := r.deadline.UnixMilli()
	for _, id := range r.order {
		r.notifier.Send(id, domain.ServerMessage{
			Type:    "gameStart",
			Players: roster,
			EndTime: endMillis,
			Grid:    r.players[id].Grid,
		})
	}

	log.Printf("[ROOM] Round started in room %s with %d players, ends at %s",
		r.ID, len(r.players), r.deadline.Format(time.RFC3339))
}

// Leave removes a player and their board. Dropping an active room
// below MinPlayers ends the round; the departing player never appears
// in the final standings. Leaving a Waiting room just shrinks it.
func (r *Room) Leave(playerID string) {
	r.mu.Lock()

	p, ok := r.players[playerID]
	if !ok {
		r.mu.Unlock()
		return
	}

	delete(r.players, playerID)
	for i, id := range r.order {
		if id == playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	log.Printf("[ROOM] %s left room %s (%d remaining)", p.Name, r.ID, len(r.players))

	if r.state == StateActive && len(r.players) < MinPlayers {
		summary := r.endLocked()
		r.mu.Unlock()
		r.finalize(summary)
		return
	}
	r.mu.Unlock()
}

// SubmitMove validates and applies a swap on the player's own board,
// resolves the resulting cascade and credits the score. An accepted
// swap is echoed to all members as playerMove before resolution so the
// presentation layer can animate it; a swap that yields no match is
// undone and awards nothing (the client animates the swap-back).
func (r *Room) SubmitMove(playerID string, mv engine.Move) (MoveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return MoveResult{}, domain.ErrUnknownPlayer
	}
	if err := ValidateMove(r.state, p.Grid, mv); err != nil {
		return MoveResult{}, err
	}

	r.broadcastLocked(domain.ServerMessage{
		Type:     "playerMove",
		PlayerID: playerID,
		From:     &mv.From,
		To:       &mv.To,
	})

	p.Grid.Swap(mv.From, mv.To)
	report, err := engine.Resolve(p.Grid, r.cfg.Gems, r.rng)
	if err != nil {
		// Board state is settled enough to keep playing on;
		// surface the violation to the caller's logs.
		return MoveResult{}, err
	}

	if report.Cycles == 0 {
		p.Grid.Swap(mv.From, mv.To)
		return MoveResult{Reverted: true}, nil
	}

	p.Score += report.Score
	r.broadcastLocked(domain.ServerMessage{
		Type:     "scoreUpdate",
		PlayerID: playerID,
		Score:    p.Score,
	})

	return MoveResult{Points: report.Score, Total: p.Score, Cycles: report.Cycles}, nil
}

// Tick ends the round once the deadline has passed. Safe to call any
// number of times from the timer or an external scheduler; only the
// first call after expiry does anything.
func (r *Room) Tick(now time.Time) {
	r.mu.Lock()
	if r.state != StateActive || now.Before(r.deadline) {
		r.mu.Unlock()
		return
	}
	summary := r.endLocked()
	r.mu.Unlock()
	r.finalize(summary)
}

// endLocked transitions to Ended, broadcasts the final standings and
// returns the round summary. Returns nil if the room already ended.
// Caller holds r.mu.
func (r *Room) endLocked() *RoundSummary {
	if r.state == StateEnded {
		return nil
	}
	r.state = StateEnded
	if r.endTimer != nil {
		r.endTimer.Stop()
		r.endTimer = nil
	}

	standings := r.rosterLocked()
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})

	r.broadcastLocked(domain.ServerMessage{
		Type:   "gameEnd",
		Scores: standings,
	})

	summary := &RoundSummary{
		RoomID:      r.ID,
		PlayerCount: len(standings),
		FinishedAt:  time.Now(),
		Standings:   standings,
	}
	if !r.startedAt.IsZero() {
		summary.DurationSeconds = int(summary.FinishedAt.Sub(r.startedAt).Seconds())
	}
	if len(standings) > 0 {
		summary.Winner = standings[0].Name
		summary.TopScore = standings[0].Score
	}

	log.Printf("[ROOM] Round ended in room %s, winner %q with %d points",
		r.ID, summary.Winner, summary.TopScore)
	return summary
}

// finalize runs the after-end work that must not hold the room lock:
// dropping the room from the directory and recording the result.
func (r *Room) finalize(summary *RoundSummary) {
	if summary == nil {
		return
	}
	r.directory.release(r)
	go r.directory.record(*summary)
}

// rosterLocked snapshots the roster in join order. Caller holds r.mu.
func (r *Room) rosterLocked() []domain.PlayerInfo {
	roster := make([]domain.PlayerInfo, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		roster = append(roster, domain.PlayerInfo{ID: p.ID, Name: p.Name, Score: p.Score})
	}
	return roster
}

// broadcastLocked sends one message to every member. Caller holds r.mu.
func (r *Room) broadcastLocked(msg domain.ServerMessage) {
	for _, id := range r.order {
		r.notifier.Send(id, msg)
	}
}
