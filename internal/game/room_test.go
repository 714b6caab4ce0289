package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/gemrush/backend/internal/domain"
	"github.com/avolkov/gemrush/backend/internal/engine"
)

// fakeNotifier records every message sent to every player.
type fakeNotifier struct {
	mu       sync.Mutex
	messages map[string][]domain.ServerMessage
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{messages: make(map[string][]domain.ServerMessage)}
}

func (f *fakeNotifier) Send(playerID string, msg domain.ServerMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[playerID] = append(f.messages[playerID], msg)
	return nil
}

func (f *fakeNotifier) ofType(playerID, msgType string) []domain.ServerMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ServerMessage
	for _, m := range f.messages[playerID] {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

// fakeRecorder captures round summaries handed to the recorder.
type fakeRecorder struct {
	mu        sync.Mutex
	summaries []RoundSummary
}

func (f *fakeRecorder) SaveRound(summary RoundSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, summary)
	return nil
}

func newTestDirectory(t *testing.T) (*Directory, *fakeNotifier, *fakeRecorder) {
	t.Helper()
	notifier := newFakeNotifier()
	recorder := &fakeRecorder{}
	d := NewDirectory(DefaultConfig(), notifier, recorder, nil)
	return d, notifier, recorder
}

func TestFirstJoinKeepsRoomWaiting(t *testing.T) {
	d, notifier, _ := newTestDirectory(t)

	room, err := d.Assign(&Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)

	assert.Equal(t, StateWaiting, room.State())
	assert.Equal(t, 1, room.PlayerCount())
	assert.Empty(t, notifier.ofType("p1", "gameStart"))
}

func TestSecondJoinStartsRound(t *testing.T) {
	d, notifier, _ := newTestDirectory(t)

	room, err := d.Assign(&Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)
	_, err = d.Assign(&Player{ID: "p2", Name: "Bob"})
	require.NoError(t, err)

	assert.Equal(t, StateActive, room.State())
	assert.False(t, room.Deadline().IsZero())

	for _, id := range []string{"p1", "p2"} {
		starts := notifier.ofType(id, "gameStart")
		require.Len(t, starts, 1, "player %s should receive exactly one gameStart", id)

		msg := starts[0]
		assert.Equal(t, room.Deadline().UnixMilli(), msg.EndTime)
		require.Len(t, msg.Players, 2)
		assert.Equal(t, "Alice", msg.Players[0].Name)
		assert.Equal(t, "Bob", msg.Players[1].Name)
		for _, p := range msg.Players {
			assert.Zero(t, p.Score)
		}

		require.NotNil(t, msg.Grid)
		assert.Equal(t, engine.DefaultSize, msg.Grid.Size())
		assert.Empty(t, engine.FindMatches(msg.Grid), "starting grid must have no pre-existing match")
	}

	// Per-player boards are private instances, not a shared grid.
	g1 := notifier.ofType("p1", "gameStart")[0].Grid
	g2 := notifier.ofType("p2", "gameStart")[0].Grid
	g1[0][0] = engine.Empty
	assert.NotEqual(t, engine.Empty, g2[0][0], "grids must not alias each other")
}

// findSwap hunts for an adjacent swap on the grid with the desired
// match outcome, so move tests don't depend on generation seeds.
func findSwap(g engine.Grid, wantMatch bool) (engine.Move, bool) {
	size := g.Size()
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			for _, to := range []engine.Position{{Row: r, Col: c + 1}, {Row: r + 1, Col: c}} {
				from := engine.Position{Row: r, Col: c}
				if !g.InBounds(to) {
					continue
				}
				probe := g.Clone()
				probe.Swap(from, to)
				hasMatch := len(engine.FindMatches(probe)) > 0
				if hasMatch == wantMatch {
					return engine.Move{From: from, To: to}, true
				}
			}
		}
	}
	return engine.Move{}, false
}

func TestMatchlessMoveIsRevertedWithoutScore(t *testing.T) {
	d, notifier, _ := newTestDirectory(t)

	room, err := d.Assign(&Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)
	_, err = d.Assign(&Player{ID: "p2", Name: "Bob"})
	require.NoError(t, err)

	room.mu.Lock()
	grid := room.players["p1"].Grid
	before := grid.Clone()
	room.mu.Unlock()

	mv, found := findSwap(before, false)
	require.True(t, found, "an 8×8 six-color board always has some matchless swap")

	res, err := room.SubmitMove("p1", mv)
	require.NoError(t, err)
	assert.True(t, res.Reverted)
	assert.Zero(t, res.Points)
	assert.Zero(t, res.Cycles)

	room.mu.Lock()
	assert.True(t, room.players["p1"].Grid.Equal(before), "reverted move must leave the grid untouched")
	assert.Zero(t, room.players["p1"].Score)
	room.mu.Unlock()

	// The accepted swap is still echoed for the animation.
	require.Len(t, notifier.ofType("p2", "playerMove"), 1)
	assert.Empty(t, notifier.ofType("p2", "scoreUpdate"))
}

func TestMatchingMoveScoresAndBroadcasts(t *testing.T) {
	d, notifier, _ := newTestDirectory(t)

	room, err := d.Assign(&Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)
	_, err = d.Assign(&Player{ID: "p2", Name: "Bob"})
	require.NoError(t, err)

	room.mu.Lock()
	before := room.players["p1"].Grid.Clone()
	room.mu.Unlock()

	mv, found := findSwap(before, true)
	if !found {
		t.Skip("generated board happens to have no match-producing swap")
	}

	res, err := room.SubmitMove("p1", mv)
	require.NoError(t, err)
	assert.False(t, res.Reverted)
	assert.GreaterOrEqual(t, res.Points, 30, "the smallest match is three cells at ten points each")
	assert.GreaterOrEqual(t, res.Cycles, 1)
	assert.Equal(t, res.Points, res.Total)

	room.mu.Lock()
	assert.Equal(t, res.Total, room.players["p1"].Score)
	assert.Empty(t, engine.FindMatches(room.players["p1"].Grid))
	room.mu.Unlock()

	for _, id := range []string{"p1", "p2"} {
		updates := notifier.ofType(id, "scoreUpdate")
		require.Len(t, updates, 1)
		assert.Equal(t, "p1", updates[0].PlayerID)
		assert.Equal(t, res.Total, updates[0].Score)
	}
}

func TestSubmitMoveRejections(t *testing.T) {
	d, _, _ := newTestDirectory(t)

	room, err := d.Assign(&Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)

	// Waiting room: no moves yet.
	_, err = room.SubmitMove("p1", engine.Move{From: engine.Position{Row: 0, Col: 0}, To: engine.Position{Row: 0, Col: 1}})
	assert.ErrorIs(t, err, domain.ErrRoomNotActive)

	_, err = d.Assign(&Player{ID: "p2", Name: "Bob"})
	require.NoError(t, err)

	_, err = room.SubmitMove("ghost", engine.Move{From: engine.Position{Row: 0, Col: 0}, To: engine.Position{Row: 0, Col: 1}})
	assert.ErrorIs(t, err, domain.ErrUnknownPlayer)

	_, err = room.SubmitMove("p1", engine.Move{From: engine.Position{Row: 0, Col: 0}, To: engine.Position{Row: 1, Col: 1}})
	assert.ErrorIs(t, err, domain.ErrNotAdjacent)
}

func TestDeadlineEndsRoundExactlyOnce(t *testing.T) {
	d, notifier, recorder := newTestDirectory(t)

	room, err := d.Assign(&Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)
	_, err = d.Assign(&Player{ID: "p2", Name: "Bob"})
	require.NoError(t, err)

	expired := room.Deadline().Add(time.Second)
	room.Tick(expired)
	room.Tick(expired)
	room.Tick(expired.Add(time.Hour))

	assert.Equal(t, StateEnded, room.State())
	for _, id := range []string{"p1", "p2"} {
		ends := notifier.ofType(id, "gameEnd")
		require.Len(t, ends, 1, "gameEnd must be sent exactly once to %s", id)
		require.Len(t, ends[0].Scores, 2)
	}

	// The recorder runs on a background goroutine after the end.
	require.Eventually(t, func() bool {
		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		return len(recorder.summaries) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestTickBeforeDeadlineDoesNothing(t *testing.T) {
	d, notifier, _ := newTestDirectory(t)

	room, err := d.Assign(&Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)
	_, err = d.Assign(&Player{ID: "p2", Name: "Bob"})
	require.NoError(t, err)

	room.Tick(room.Deadline().Add(-time.Minute))

	assert.Equal(t, StateActive, room.State())
	assert.Empty(t, notifier.ofType("p1", "gameEnd"))
}

func TestLeaveBelowMinimumEndsRound(t *testing.T) {
	d, notifier, _ := newTestDirectory(t)

	room, err := d.Assign(&Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)
	_, err = d.Assign(&Player{ID: "p2", Name: "Bob"})
	require.NoError(t, err)

	room.mu.Lock()
	room.players["p2"].Score = 120
	room.mu.Unlock()

	d.Leave("p1")

	assert.Equal(t, StateEnded, room.State())
	ends := notifier.ofType("p2", "gameEnd")
	require.Len(t, ends, 1)
	require.Len(t, ends[0].Scores, 1, "the departed player is not ranked")
	assert.Equal(t, "Bob", ends[0].Scores[0].Name)
	assert.Equal(t, 120, ends[0].Scores[0].Score)
}

func TestStandingsSortByScoreThenJoinOrder(t *testing.T) {
	d, notifier, _ := newTestDirectory(t)

	room, err := d.Assign(&Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)
	_, err = d.Assign(&Player{ID: "p2", Name: "Bob"})
	require.NoError(t, err)
	_, err = d.Assign(&Player{ID: "p3", Name: "Carol"})
	require.NoError(t, err)

	room.mu.Lock()
	room.players["p1"].Score = 50
	room.players["p2"].Score = 90
	room.players["p3"].Score = 50
	room.mu.Unlock()

	room.Tick(room.Deadline().Add(time.Second))

	ends := notifier.ofType("p1", "gameEnd")
	require.Len(t, ends, 1)
	scores := ends[0].Scores
	require.Len(t, scores, 3)
	assert.Equal(t, "Bob", scores[0].Name)
	// Alice and Carol are tied; Alice joined first and ranks higher.
	assert.Equal(t, "Alice", scores[1].Name)
	assert.Equal(t, "Carol", scores[2].Name)
}

func TestLeaveFromWaitingRoomDoesNotEnd(t *testing.T) {
	d, notifier, _ := newTestDirectory(t)

	room, err := d.Assign(&Player{ID: "p1", Name: "Alice"})
	require.NoError(t, err)

	d.Leave("p1")

	assert.Equal(t, StateWaiting, room.State())
	assert.Equal(t, 0, room.PlayerCount())
	assert.Empty(t, notifier.ofType("p1", "gameEnd"))
}
