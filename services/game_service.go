// Package services implements the trivia game operations on top of the
// registry. Every change to a game goes through game.Execute and is followed
// by a notification while the game is still locked.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wfunc/trivianight/game"
	"github.com/wfunc/trivianight/idgen"
	"github.com/wfunc/trivianight/logger"
	"github.com/wfunc/trivianight/models"
	"github.com/wfunc/trivianight/registry"
	"github.com/wfunc/trivianight/state"
)

const (
	DefaultIdleTimeout       = 30 * time.Minute
	DefaultMaxUsernameLength = 20
	archiveTimeout           = 10 * time.Second
)

// Options configures a GameService. Zero values fall back to the defaults.
type Options struct {
	IdleTimeout       time.Duration
	MaxUsernameLength int
	Archiver          Archiver
}

// Stats is a point-in-time summary of the service.
type Stats struct {
	ActiveGames int      `json:"activeGames"`
	Codes       []string `json:"codes"`
}

// GameService 游戏协调器，所有对游戏的修改都经过这里
type GameService struct {
	registry    *registry.Registry
	ids         *idgen.Generator
	notifier    Notifier
	archiver    Archiver
	idleTimeout time.Duration
	maxUsername int
}

func NewGameService(reg *registry.Registry, ids *idgen.Generator, notifier Notifier, opts Options) *GameService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.MaxUsernameLength <= 0 {
		opts.MaxUsernameLength = DefaultMaxUsernameLength
	}
	return &GameService{
		registry:    reg,
		ids:         ids,
		notifier:    notifier,
		archiver:    opts.Archiver,
		idleTimeout: opts.IdleTimeout,
		maxUsername: opts.MaxUsernameLength,
	}
}

// CreateGame validates the rounds, generates a code and registers a new game
// with host as its only player.
func (s *GameService) CreateGame(rounds []models.Round, host string) (game.Snapshot, error) {
	host = strings.TrimSpace(host)
	if err := s.validateUsername(host); err != nil {
		return game.Snapshot{}, err
	}
	if err := validateRounds(rounds); err != nil {
		return game.Snapshot{}, err
	}

	rounds = models.CloneRounds(rounds)
	models.AssignIDs(rounds)
	for i := range rounds {
		for c := range rounds[i] {
			for q := range rounds[i][c].Questions {
				rounds[i][c].Questions[q].Answered = false
			}
		}
	}

	g := game.New(s.ids.Generate(), rounds, host)
	if err := s.registry.Create(g); err != nil {
		logger.Log.Warnw("game code collision", "code", g.Code)
		return game.Snapshot{}, err
	}

	logger.Log.Infow("game created", "code", g.Code, "host", host, "rounds", len(rounds))
	return g.Snapshot(), nil
}

// JoinGame adds a player or returns the existing one on a rejoin.
func (s *GameService) JoinGame(code, username string, role models.PlayerRole) (game.Snapshot, models.Player, error) {
	username = strings.TrimSpace(username)
	if err := s.validateUsername(username); err != nil {
		return game.Snapshot{}, models.Player{}, err
	}
	if _, err := models.ParsePlayerRole(string(role)); err != nil {
		return game.Snapshot{}, models.Player{}, &game.ValidationError{Reason: err.Error()}
	}

	g, err := s.lookup(code)
	if err != nil {
		return game.Snapshot{}, models.Player{}, err
	}

	var player models.Player
	changed := false
	snap, err := g.Execute(func(g *game.Game) error {
		if p, ok := g.FindPlayer(username); ok {
			player = *p
			return nil
		}
		if role != models.RoleSpectator && g.State.Kind() != state.KindWaitingToStart {
			return game.ErrGameInProgress
		}
		if role == models.RoleHost {
			if _, ok := g.Host(); ok {
				return &game.ValidationError{Reason: "game already has a host"}
			}
		}

		player = models.Player{Username: username, Role: role}
		g.AddPlayer(player)
		entry := models.NewLogEntry(models.LogPlayerJoined)
		entry.Username = username
		entry.Role = role
		g.AppendLog(entry)
		changed = true
		return nil
	}, func(snap game.Snapshot) {
		if changed {
			s.broadcastFull(snap)
		}
	})
	if err != nil {
		return game.Snapshot{}, models.Player{}, err
	}

	if changed {
		logger.Log.Infow("player joined", "code", snap.Code, "username", username, "role", role)
	}
	return snap, player, nil
}

// LeaveGame removes the player. Leaving a game one is not part of is a no-op.
// The host cannot leave a game in progress: nobody could take the role over,
// since a host may only join before the start.
func (s *GameService) LeaveGame(code, username string) error {
	g, err := s.lookup(code)
	if err != nil {
		return err
	}

	removed := false
	_, err = g.Execute(func(g *game.Game) error {
		p, ok := g.FindPlayer(username)
		if !ok {
			return nil
		}
		if p.Role == models.RoleHost && !hostMayLeave(g.State.Kind()) {
			return game.ErrGameInProgress
		}
		// The buzzed player leaving would leave the game waiting on a verdict
		// nobody can give.
		var revert state.State
		if check, ok := g.State.(state.CheckAnswer); ok && check.Player.Username == username {
			revert = state.WaitingForAnswer{Question: check.Question}
		}
		g.RemovePlayer(username)
		if revert != nil {
			g.State = revert
		}
		entry := models.NewLogEntry(models.LogPlayerLeft)
		entry.Username = username
		g.AppendLog(entry)
		removed = true
		return nil
	}, func(snap game.Snapshot) {
		if removed {
			s.broadcastFull(snap)
		}
	})
	if err == nil && removed {
		logger.Log.Infow("player left", "code", g.Code, "username", username)
	}
	return err
}

func hostMayLeave(k state.Kind) bool {
	return k == state.KindWaitingToStart || k == state.KindFinished
}

// StartGame moves a waiting game to question picking. Only the host may start.
func (s *GameService) StartGame(code, by string) (game.Snapshot, error) {
	return s.mutate(code, func(g *game.Game) error {
		p, err := g.MustFindPlayer(by)
		if err != nil {
			return err
		}
		if err := state.Require(g.State, state.KindWaitingToStart); err != nil {
			return err
		}
		if p.Role != models.RoleHost {
			return game.ErrInsufficientPermissions
		}
		if err := g.Transition(state.PickAQuestion{}); err != nil {
			return err
		}
		g.AppendLog(models.NewLogEntry(models.LogGameStarted))
		return nil
	})
}

// PickQuestion opens a question of the current round for reading. Picking a
// question that is already answered resyncs that question for clients and
// fails with game.ErrAlreadyAnswered.
func (s *GameService) PickQuestion(code, questionID string) (game.Snapshot, error) {
	g, err := s.lookup(code)
	if err != nil {
		return game.Snapshot{}, err
	}

	var stale *models.Question
	snap, err := g.Execute(func(g *game.Game) error {
		if err := state.Require(g.State, state.KindPickAQuestion); err != nil {
			return err
		}
		q, err := g.GetQuestion(questionID)
		if err != nil {
			return err
		}
		if q.Answered {
			answered := *q
			stale = &answered
			return game.ErrAlreadyAnswered
		}
		if err := g.Transition(state.ReadQuestion{Question: *q}); err != nil {
			return err
		}
		entry := models.NewLogEntry(models.LogQuestionPicked)
		entry.QuestionID = q.QuestionID
		g.AppendLog(entry)
		return nil
	}, s.broadcastFull)

	if stale != nil {
		s.broadcastQuestion(g.Code, *stale)
		logger.Log.Infow("stale question pick", "code", g.Code, "question_id", questionID)
	}
	return snap, err
}

// AllowAnswering opens buzzing for the question being read.
func (s *GameService) AllowAnswering(code string) (game.Snapshot, error) {
	return s.mutate(code, func(g *game.Game) error {
		read, err := state.Expect[state.ReadQuestion](g.State)
		if err != nil {
			return err
		}
		return g.Transition(state.WaitingForAnswer{Question: read.Question})
	})
}

// Buzz records the first player to buzz in and waits for the host's verdict.
func (s *GameService) Buzz(code, username string) (game.Snapshot, error) {
	return s.mutate(code, func(g *game.Game) error {
		waiting, err := state.Expect[state.WaitingForAnswer](g.State)
		if err != nil {
			return err
		}
		p, err := g.MustFindPlayer(username)
		if err != nil {
			return err
		}
		if err := g.Transition(state.CheckAnswer{Question: waiting.Question, Player: *p}); err != nil {
			return err
		}
		entry := models.NewLogEntry(models.LogPlayerBuzzedIn)
		entry.Username = username
		entry.QuestionID = waiting.Question.QuestionID
		g.AppendLog(entry)
		return nil
	})
}

// ConfirmAnswer applies the host's verdict on the buzzed player's answer. A
// correct answer scores the question and closes it; an incorrect one costs
// the same value and reopens buzzing for everyone.
func (s *GameService) ConfirmAnswer(code string, isCorrect bool) (game.Snapshot, error) {
	var closed *models.Question
	snap, finished, err := s.mutateRound(code, func(g *game.Game) (bool, error) {
		check, err := state.Expect[state.CheckAnswer](g.State)
		if err != nil {
			return false, err
		}
		q, err := g.GetQuestion(check.Question.QuestionID)
		if err != nil {
			return false, err
		}
		p, err := g.MustFindPlayer(check.Player.Username)
		if err != nil {
			return false, err
		}

		points := q.Value
		if !isCorrect {
			points = -q.Value
			if err := g.Transition(state.WaitingForAnswer{Question: check.Question}); err != nil {
				return false, err
			}
		}
		p.Score += points

		entry := models.NewLogEntry(models.LogAnswerConfirmed)
		entry.Username = p.Username
		entry.QuestionID = q.QuestionID
		entry.IsCorrect = &isCorrect
		entry.PointsChange = q.Value
		g.AppendLog(entry)

		if !isCorrect {
			return false, nil
		}
		q.Answered = true
		g.LastWinner = p.Username
		answered := *q
		closed = &answered
		return g.UpdateRoundIfApplicable()
	}, func(snap game.Snapshot) {
		if closed != nil {
			s.broadcastQuestion(snap.Code, *closed)
		}
	})
	if err != nil {
		return snap, err
	}
	if finished {
		s.archive(snap)
	}
	return snap, nil
}

// EndQuestion closes the open question without a winner.
func (s *GameService) EndQuestion(code string) (game.Snapshot, error) {
	var closed models.Question
	snap, finished, err := s.mutateRound(code, func(g *game.Game) (bool, error) {
		waiting, err := state.Expect[state.WaitingForAnswer](g.State)
		if err != nil {
			return false, err
		}
		q, err := g.GetQuestion(waiting.Question.QuestionID)
		if err != nil {
			return false, err
		}
		q.Answered = true
		closed = *q

		entry := models.NewLogEntry(models.LogQuestionPassed)
		entry.QuestionID = q.QuestionID
		g.AppendLog(entry)
		return g.UpdateRoundIfApplicable()
	}, func(snap game.Snapshot) {
		s.broadcastQuestion(snap.Code, closed)
	})
	if err != nil {
		return snap, err
	}
	if finished {
		s.archive(snap)
	}
	return snap, nil
}

// UpdateScore lets the host overwrite a player's score in any state.
func (s *GameService) UpdateScore(code, by, username string, newScore int) (game.Snapshot, error) {
	var oldScore int
	snap, err := s.mutate(code, func(g *game.Game) error {
		host, err := g.MustFindPlayer(by)
		if err != nil {
			return err
		}
		if host.Role != models.RoleHost {
			return game.ErrInsufficientPermissions
		}
		p, err := g.MustFindPlayer(username)
		if err != nil {
			return err
		}

		oldScore = p.Score
		p.Score = newScore

		entry := models.NewLogEntry(models.LogScoreUpdated)
		entry.Username = username
		entry.By = by
		entry.OldScore = &oldScore
		entry.NewScore = &newScore
		g.AppendLog(entry)
		return nil
	})
	if err != nil {
		return snap, err
	}

	logger.Log.Infow("score overridden",
		"code", snap.Code,
		"by", by,
		"username", username,
		"old_score", oldScore,
		"new_score", newScore,
	)
	return snap, nil
}

// GetGame returns the latest published view of a game without locking it.
func (s *GameService) GetGame(code string) (game.Snapshot, error) {
	g, err := s.lookup(code)
	if err != nil {
		return game.Snapshot{}, err
	}
	return g.Snapshot(), nil
}

// GetQuestion looks a question up in the game's current round.
func (s *GameService) GetQuestion(code, questionID string) (models.Question, error) {
	snap, err := s.GetGame(code)
	if err != nil {
		return models.Question{}, err
	}
	if snap.CurrentRound >= len(snap.Rounds) {
		return models.Question{}, game.ErrNotFound
	}
	q, ok := snap.Rounds[snap.CurrentRound].FindQuestion(questionID)
	if !ok {
		return models.Question{}, game.ErrNotFound
	}
	return *q, nil
}

func (s *GameService) Stats() Stats {
	codes := s.registry.Codes()
	return Stats{ActiveGames: len(codes), Codes: codes}
}

// SweepIdle removes games that have not changed within the idle timeout.
func (s *GameService) SweepIdle() []string {
	removed := s.registry.SweepIdle(s.idleTimeout)
	if len(removed) > 0 {
		logger.Log.Infow("idle sweep finished", "removed", len(removed), "remaining", s.registry.Count())
	}
	return removed
}

// --- internals ---

// lookup rejects codes the generator could never have produced before
// touching the registry.
func (s *GameService) lookup(code string) (*game.Game, error) {
	if !s.ids.Valid(code) {
		return nil, game.ErrNotFound
	}
	return s.registry.Get(code)
}

func (s *GameService) mutate(code string, fn func(g *game.Game) error) (game.Snapshot, error) {
	g, err := s.lookup(code)
	if err != nil {
		return game.Snapshot{}, err
	}
	return g.Execute(fn, s.broadcastFull)
}

// mutateRound is mutate for operations that may finish the game. The extra
// hooks run before the full broadcast.
func (s *GameService) mutateRound(code string, fn func(g *game.Game) (bool, error), hooks ...func(game.Snapshot)) (game.Snapshot, bool, error) {
	g, err := s.lookup(code)
	if err != nil {
		return game.Snapshot{}, false, err
	}

	finished := false
	snap, err := g.Execute(func(g *game.Game) error {
		var err error
		finished, err = fn(g)
		return err
	}, append(hooks, s.broadcastFull)...)
	return snap, finished, err
}

func (s *GameService) broadcastFull(snap game.Snapshot) {
	if err := s.notifier.BroadcastFull(snap.Code, snap); err != nil {
		logger.Log.Warnw("broadcast failed", "code", snap.Code, "error", err)
	}
}

func (s *GameService) broadcastQuestion(code string, q models.Question) {
	if err := s.notifier.BroadcastQuestion(code, q); err != nil {
		logger.Log.Warnw("question broadcast failed", "code", code, "question_id", q.QuestionID, "error", err)
	}
}

func (s *GameService) archive(snap game.Snapshot) {
	logger.Log.Infow("game finished", "code", snap.Code, "winner", snap.LastWinner)
	if s.archiver == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := s.archiver.Archive(ctx, snap.Record()); err != nil {
		logger.Log.Errorw("failed to archive game", "code", snap.Code, "error", err)
	}
}

func (s *GameService) validateUsername(username string) error {
	if username == "" {
		return &game.ValidationError{Reason: "username must not be empty"}
	}
	if n := len([]rune(username)); n > s.maxUsername {
		return &game.ValidationError{Reason: "username is too long"}
	}
	return nil
}

func validateRounds(rounds []models.Round) error {
	if len(rounds) == 0 {
		return &game.ValidationError{Reason: "a game needs at least one round"}
	}
	seen := make(map[string]bool)
	for i, round := range rounds {
		if len(round) == 0 {
			return &game.ValidationError{Reason: fmt.Sprintf("round %d has no categories", i+1)}
		}
		for _, c := range round {
			if len(c.Questions) == 0 {
				return &game.ValidationError{Reason: fmt.Sprintf("category %q has no questions", c.Name)}
			}
			for _, q := range c.Questions {
				if strings.TrimSpace(q.Detail) == "" || strings.TrimSpace(q.CorrectAnswer) == "" {
					return &game.ValidationError{Reason: "every question needs text and an answer"}
				}
				if q.QuestionID == "" {
					continue
				}
				if seen[q.QuestionID] {
					return &game.ValidationError{Reason: fmt.Sprintf("duplicate question id %q", q.QuestionID)}
				}
				seen[q.QuestionID] = true
			}
		}
	}
	return nil
}
