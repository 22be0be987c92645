// Package game holds one trivia game's data and the lock that serialises
// every change to it.
package game

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wfunc/trivianight/models"
	"github.com/wfunc/trivianight/state"
)

// Game is the authoritative data of a single session. The exported fields may
// only be read or written inside Execute; everyone else reads a Snapshot.
type Game struct {
	Code         string
	Players      []models.Player // join order, host first
	Rounds       []models.Round
	CurrentRound int
	State        state.State
	LastWinner   string
	Log          []models.LogEntry
	CreatedAt    time.Time

	mu           sync.Mutex
	lastModified atomic.Int64 // unix nanoseconds
	snapshot     atomic.Pointer[Snapshot]
}

// New builds a game in WaitingToStart with the host as its only player. The
// rounds must already be validated.
func New(code string, rounds []models.Round, host string) *Game {
	now := time.Now()
	g := &Game{
		Code:      code,
		Players:   []models.Player{{Username: host, Role: models.RoleHost}},
		Rounds:    rounds,
		State:     state.WaitingToStart{},
		Log:       []models.LogEntry{models.NewLogEntry(models.LogGameCreated)},
		CreatedAt: now,
	}
	g.lastModified.Store(now.UnixNano())
	g.publish()
	return g
}

// Execute runs fn while holding the game's lock. At most one fn runs per game
// at a time. When fn succeeds the last-modified time is refreshed, a new
// snapshot is published and each onCommit hook is called with it, all before
// the lock is released. When fn fails nothing is published; fn must validate
// before it mutates.
func (g *Game) Execute(fn func(g *Game) error, onCommit ...func(Snapshot)) (Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := fn(g); err != nil {
		return Snapshot{}, err
	}

	g.lastModified.Store(time.Now().UnixNano())
	snap := g.publish()
	for _, hook := range onCommit {
		hook(snap)
	}
	return snap, nil
}

// Snapshot returns the most recently published view without locking. It may
// lag an in-flight mutation.
func (g *Game) Snapshot() Snapshot {
	return *g.snapshot.Load()
}

// LastModified is the time of the last successful mutation.
func (g *Game) LastModified() time.Time {
	return time.Unix(0, g.lastModified.Load())
}

func (g *Game) publish() Snapshot {
	players := make([]models.Player, len(g.Players))
	copy(players, g.Players)

	snap := &Snapshot{
		Code:         g.Code,
		Players:      players,
		Rounds:       models.CloneRounds(g.Rounds),
		CurrentRound: g.CurrentRound,
		State:        g.State,
		LastWinner:   g.LastWinner,
		Log:          g.Log[:len(g.Log):len(g.Log)],
		CreatedAt:    g.CreatedAt,
		LastModified: g.LastModified(),
	}
	g.snapshot.Store(snap)
	return *snap
}

// --- helpers for use inside Execute ---

// FindPlayer returns a pointer to the named player.
func (g *Game) FindPlayer(username string) (*models.Player, bool) {
	for i := range g.Players {
		if g.Players[i].Username == username {
			return &g.Players[i], true
		}
	}
	return nil, false
}

// MustFindPlayer is FindPlayer returning ErrPlayerNotFound.
func (g *Game) MustFindPlayer(username string) (*models.Player, error) {
	p, ok := g.FindPlayer(username)
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// Host returns the host, if one is present.
func (g *Game) Host() (*models.Player, bool) {
	for i := range g.Players {
		if g.Players[i].Role == models.RoleHost {
			return &g.Players[i], true
		}
	}
	return nil, false
}

// AddPlayer appends a player, or puts a host at the front.
func (g *Game) AddPlayer(p models.Player) {
	if p.Role == models.RoleHost {
		g.Players = append([]models.Player{p}, g.Players...)
		return
	}
	g.Players = append(g.Players, p)
}

// RemovePlayer deletes the named player and reports whether one was removed.
func (g *Game) RemovePlayer(username string) bool {
	for i := range g.Players {
		if g.Players[i].Username == username {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			return true
		}
	}
	return false
}

// Board returns the current round.
func (g *Game) Board() models.Round {
	return g.Rounds[g.CurrentRound]
}

// GetQuestion looks the id up in the current round only. Questions from other
// rounds are reported as ErrNotFound.
func (g *Game) GetQuestion(questionID string) (*models.Question, error) {
	q, ok := g.Board().FindQuestion(questionID)
	if !ok {
		return nil, ErrNotFound
	}
	return q, nil
}

// Transition moves to next if the state machine allows it.
func (g *Game) Transition(next state.State) error {
	if !state.CanTransition(g.State.Kind(), next.Kind()) {
		return &state.InvalidStateError{Required: requiredFor(next.Kind()), Actual: g.State.Kind()}
	}
	g.State = next
	return nil
}

func requiredFor(to state.Kind) []state.Kind {
	var from []state.Kind
	for _, k := range []state.Kind{
		state.KindWaitingToStart, state.KindPickAQuestion, state.KindReadQuestion,
		state.KindWaitingForAnswer, state.KindCheckAnswer, state.KindFinished,
	} {
		if state.CanTransition(k, to) {
			from = append(from, k)
		}
	}
	return from
}

// AppendLog records an event.
func (g *Game) AppendLog(e models.LogEntry) {
	g.Log = append(g.Log, e)
}

// UpdateRoundIfApplicable must be called after a question has been marked
// answered. If the current round is exhausted it advances to the next round,
// or finishes the game when there is none. Otherwise the game goes back to
// picking. It reports whether the game finished.
func (g *Game) UpdateRoundIfApplicable() (finished bool, err error) {
	if !g.Board().AllAnswered() {
		return false, g.Transition(state.PickAQuestion{})
	}

	if g.CurrentRound+1 < len(g.Rounds) {
		if err := g.Transition(state.PickAQuestion{}); err != nil {
			return false, err
		}
		g.CurrentRound++
		entry := models.NewLogEntry(models.LogRoundAdvanced)
		entry.Round = g.CurrentRound
		g.AppendLog(entry)
		return false, nil
	}

	if err := g.Transition(state.Finished{}); err != nil {
		return false, err
	}
	g.AppendLog(models.NewLogEntry(models.LogGameFinished))
	return true, nil
}
