package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/trivianight/game"
	"github.com/wfunc/trivianight/idgen"
	"github.com/wfunc/trivianight/models"
	"github.com/wfunc/trivianight/registry"
	"github.com/wfunc/trivianight/state"
)

// MockNotifier records every notification it receives.
type MockNotifier struct {
	mu        sync.Mutex
	full      []game.Snapshot
	questions []models.Question
	err       error
}

func (m *MockNotifier) BroadcastFull(code string, snap game.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.full = append(m.full, snap)
	return m.err
}

func (m *MockNotifier) BroadcastQuestion(code string, q models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions = append(m.questions, q)
	return m.err
}

func (m *MockNotifier) fullCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.full)
}

func (m *MockNotifier) lastQuestion() (models.Question, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.questions) == 0 {
		return models.Question{}, false
	}
	return m.questions[len(m.questions)-1], true
}

// MockArchiver records archived games.
type MockArchiver struct {
	mu      sync.Mutex
	records []models.GameRecord
}

func (m *MockArchiver) Archive(ctx context.Context, record models.GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func newTestService(t *testing.T) (*GameService, *MockNotifier, *MockArchiver) {
	t.Helper()
	notifier := &MockNotifier{}
	archiver := &MockArchiver{}
	svc := NewGameService(registry.New(), idgen.NewGenerator(idgen.DefaultLength), notifier, Options{Archiver: archiver})
	return svc, notifier, archiver
}

// oneQuestionRounds builds n rounds with one category holding one question each.
func oneQuestionRounds(n int) []models.Round {
	rounds := make([]models.Round, n)
	ids := []string{"q1", "q2", "q3", "q4"}
	for i := range rounds {
		rounds[i] = models.Round{{
			CategoryID: "c" + ids[i],
			Name:       "Science",
			Questions: []models.Question{
				{QuestionID: ids[i], Detail: "What is H2O?", CorrectAnswer: "Water", Value: 200},
			},
		}}
	}
	return rounds
}

func twoQuestionRound() []models.Round {
	return []models.Round{{{
		CategoryID: "c1",
		Name:       "History",
		Questions: []models.Question{
			{QuestionID: "q1", Detail: "First?", CorrectAnswer: "A", Value: 100},
			{QuestionID: "q2", Detail: "Second?", CorrectAnswer: "B", Value: 300},
		},
	}}}
}

// startedGame creates a game with a host and one contestant and starts it.
func startedGame(t *testing.T, svc *GameService, rounds []models.Round) string {
	t.Helper()
	snap, err := svc.CreateGame(rounds, "host")
	require.NoError(t, err)
	_, _, err = svc.JoinGame(snap.Code, "alice", models.RoleContestant)
	require.NoError(t, err)
	_, err = svc.StartGame(snap.Code, "host")
	require.NoError(t, err)
	return snap.Code
}

// buzzIn drives a started game to CheckAnswer for the given question.
func buzzIn(t *testing.T, svc *GameService, code, questionID, username string) {
	t.Helper()
	_, err := svc.PickQuestion(code, questionID)
	require.NoError(t, err)
	_, err = svc.AllowAnswering(code)
	require.NoError(t, err)
	_, err = svc.Buzz(code, username)
	require.NoError(t, err)
}

func TestCreateGame(t *testing.T) {
	svc, _, _ := newTestService(t)

	snap, err := svc.CreateGame(oneQuestionRounds(2), "host")
	require.NoError(t, err)

	assert.True(t, idgen.NewGenerator(idgen.DefaultLength).Valid(snap.Code))
	assert.Equal(t, state.KindWaitingToStart, snap.State.Kind())
	require.Len(t, snap.Players, 1)
	assert.Equal(t, models.Player{Username: "host", Role: models.RoleHost}, snap.Players[0])
	require.Len(t, snap.Log, 1)
	assert.Equal(t, models.LogGameCreated, snap.Log[0].Type)
	assert.Equal(t, 1, svc.Stats().ActiveGames)
}

func TestCreateGame_AssignsMissingIDs(t *testing.T) {
	svc, _, _ := newTestService(t)
	rounds := oneQuestionRounds(1)
	rounds[0][0].Questions[0].QuestionID = ""

	snap, err := svc.CreateGame(rounds, "host")
	require.NoError(t, err)
	assert.NotEmpty(t, snap.Rounds[0][0].Questions[0].QuestionID)
	assert.Empty(t, rounds[0][0].Questions[0].QuestionID, "caller's rounds must not be modified")
}

func TestCreateGame_Validation(t *testing.T) {
	tests := []struct {
		name   string
		rounds []models.Round
		host   string
	}{
		{"no rounds", nil, "host"},
		{"round without categories", []models.Round{{}}, "host"},
		{"category without questions", []models.Round{{{CategoryID: "c", Name: "Empty"}}}, "host"},
		{"blank answer", []models.Round{{{CategoryID: "c", Questions: []models.Question{{QuestionID: "q", Detail: "?", CorrectAnswer: " "}}}}}, "host"},
		{"duplicate ids", []models.Round{{{CategoryID: "c", Questions: []models.Question{
			{QuestionID: "q", Detail: "a", CorrectAnswer: "a"},
			{QuestionID: "q", Detail: "b", CorrectAnswer: "b"},
		}}}}, "host"},
		{"empty host", oneQuestionRounds(1), "  "},
		{"long host", oneQuestionRounds(1), "abcdefghijklmnopqrstuvwxyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			_, err := svc.CreateGame(tt.rounds, tt.host)
			require.ErrorIs(t, err, game.ErrValidation)
			assert.Equal(t, "ValidationError", game.Code(err))
			assert.Zero(t, svc.Stats().ActiveGames, "a rejected game must not be registered")
		})
	}
}

func TestJoinGame_IdempotentRejoin(t *testing.T) {
	svc, notifier, _ := newTestService(t)
	created, err := svc.CreateGame(oneQuestionRounds(1), "host")
	require.NoError(t, err)

	_, first, err := svc.JoinGame(created.Code, "alice", models.RoleContestant)
	require.NoError(t, err)
	broadcasts := notifier.fullCount()

	snap, second, err := svc.JoinGame(created.Code, "alice", models.RoleContestant)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, snap.Players, 2)
	assert.Equal(t, broadcasts, notifier.fullCount(), "a rejoin should not broadcast")
}

func TestJoinGame_CaseInsensitiveCode(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.CreateGame(oneQuestionRounds(1), "host")
	require.NoError(t, err)

	_, _, err = svc.JoinGame(" "+strings.ToLower(created.Code)+" ", "bob", models.RoleSpectator)
	require.NoError(t, err)
}

func TestJoinGame_AfterStart(t *testing.T) {
	svc, _, _ := newTestService(t)
	code := startedGame(t, svc, oneQuestionRounds(1))

	_, _, err := svc.JoinGame(code, "late", models.RoleContestant)
	require.ErrorIs(t, err, game.ErrGameInProgress)

	_, p, err := svc.JoinGame(code, "watcher", models.RoleSpectator)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSpectator, p.Role)

	// Existing players may rejoin in any state.
	_, p, err = svc.JoinGame(code, "alice", models.RoleContestant)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
}

func TestJoinGame_HostRules(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.CreateGame(oneQuestionRounds(1), "host")
	require.NoError(t, err)

	_, _, err = svc.JoinGame(created.Code, "usurper", models.RoleHost)
	require.ErrorIs(t, err, game.ErrValidation)

	require.NoError(t, svc.LeaveGame(created.Code, "host"))
	snap, _, err := svc.JoinGame(created.Code, "newhost", models.RoleHost)
	require.NoError(t, err)
	assert.Equal(t, "newhost", snap.Players[0].Username)

	_, _, err = svc.JoinGame(created.Code, "x", models.PlayerRole("Referee"))
	require.ErrorIs(t, err, game.ErrValidation)
}

func TestJoinGame_UnknownCode(t *testing.T) {
	svc, _, _ := newTestService(t)
	for _, code := range []string{"NOPE", "ABC-12", "ZZZZZZ"} {
		_, _, err := svc.JoinGame(code, "alice", models.RoleContestant)
		require.ErrorIs(t, err, game.ErrNotFound, code)
	}
	_, err := svc.GetGame("toolongcode")
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestLeaveGame(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.CreateGame(oneQuestionRounds(1), "host")
	require.NoError(t, err)
	_, _, err = svc.JoinGame(created.Code, "alice", models.RoleContestant)
	require.NoError(t, err)

	require.NoError(t, svc.LeaveGame(created.Code, "alice"))
	require.NoError(t, svc.LeaveGame(created.Code, "alice"), "leaving twice is a no-op")

	snap, err := svc.GetGame(created.Code)
	require.NoError(t, err)
	_, ok := snap.Player("alice")
	assert.False(t, ok)
	assert.Equal(t, models.LogPlayerLeft, snap.Log[len(snap.Log)-1].Type)
}

func TestLeaveGame_BuzzedPlayerReopensQuestion(t *testing.T) {
	svc, _, _ := newTestService(t)
	code := startedGame(t, svc, twoQuestionRound())
	buzzIn(t, svc, code, "q1", "alice")

	require.NoError(t, svc.LeaveGame(code, "alice"))

	snap, err := svc.GetGame(code)
	require.NoError(t, err)
	waiting, ok := snap.State.(state.WaitingForAnswer)
	require.True(t, ok, "expected WaitingForAnswer, got %s", snap.State.Kind())
	assert.Equal(t, "q1", waiting.Question.QuestionID)
}

func TestLeaveGame_HostStaysWhileInProgress(t *testing.T) {
	svc, _, _ := newTestService(t)
	code := startedGame(t, svc, oneQuestionRounds(1))

	err := svc.LeaveGame(code, "host")
	require.ErrorIs(t, err, game.ErrGameInProgress)
	snap, err := svc.GetGame(code)
	require.NoError(t, err)
	_, ok := snap.Player("host")
	assert.True(t, ok, "host must still be in the game")

	_, err = svc.PickQuestion(code, "q1")
	require.NoError(t, err)
	_, err = svc.AllowAnswering(code)
	require.NoError(t, err)
	_, err = svc.EndQuestion(code)
	require.NoError(t, err)

	// Once finished the host may go.
	require.NoError(t, svc.LeaveGame(code, "host"))
}

func TestLeaveGame_HostBeforeStart(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.CreateGame(oneQuestionRounds(1), "host")
	require.NoError(t, err)

	require.NoError(t, svc.LeaveGame(created.Code, "host"))
	_, _, err = svc.JoinGame(created.Code, "carol", models.RoleHost)
	require.NoError(t, err, "a new host may join before the start")
}

func TestStartGame(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.CreateGame(oneQuestionRounds(1), "host")
	require.NoError(t, err)
	_, _, err = svc.JoinGame(created.Code, "alice", models.RoleContestant)
	require.NoError(t, err)

	_, err = svc.StartGame(created.Code, "ghost")
	require.ErrorIs(t, err, game.ErrPlayerNotFound)

	_, err = svc.StartGame(created.Code, "alice")
	require.ErrorIs(t, err, game.ErrInsufficientPermissions)

	snap, err := svc.StartGame(created.Code, "host")
	require.NoError(t, err)
	assert.Equal(t, state.KindPickAQuestion, snap.State.Kind())

	_, err = svc.StartGame(created.Code, "host")
	require.ErrorIs(t, err, game.ErrInvalidState)
}

func TestStateGating(t *testing.T) {
	// Each setup drives a fresh game into one state; allowed lists the
	// operations that state accepts.
	setups := []struct {
		kind    state.Kind
		setup   func(t *testing.T, svc *GameService) string
		allowed []string
	}{
		{state.KindWaitingToStart, func(t *testing.T, svc *GameService) string {
			snap, err := svc.CreateGame(twoQuestionRound(), "host")
			require.NoError(t, err)
			_, _, err = svc.JoinGame(snap.Code, "alice", models.RoleContestant)
			require.NoError(t, err)
			return snap.Code
		}, []string{"StartGame"}},
		{state.KindPickAQuestion, func(t *testing.T, svc *GameService) string {
			return startedGame(t, svc, twoQuestionRound())
		}, []string{"PickQuestion"}},
		{state.KindReadQuestion, func(t *testing.T, svc *GameService) string {
			code := startedGame(t, svc, twoQuestionRound())
			_, err := svc.PickQuestion(code, "q1")
			require.NoError(t, err)
			return code
		}, []string{"AllowAnswering"}},
		{state.KindWaitingForAnswer, func(t *testing.T, svc *GameService) string {
			code := startedGame(t, svc, twoQuestionRound())
			_, err := svc.PickQuestion(code, "q1")
			require.NoError(t, err)
			_, err = svc.AllowAnswering(code)
			require.NoError(t, err)
			return code
		}, []string{"Buzz", "EndQuestion"}},
		{state.KindCheckAnswer, func(t *testing.T, svc *GameService) string {
			code := startedGame(t, svc, twoQuestionRound())
			buzzIn(t, svc, code, "q1", "alice")
			return code
		}, []string{"ConfirmAnswer"}},
		{state.KindFinished, func(t *testing.T, svc *GameService) string {
			code := startedGame(t, svc, oneQuestionRounds(1))
			_, err := svc.PickQuestion(code, "q1")
			require.NoError(t, err)
			_, err = svc.AllowAnswering(code)
			require.NoError(t, err)
			_, err = svc.EndQuestion(code)
			require.NoError(t, err)
			return code
		}, nil},
	}

	ops := map[string]func(svc *GameService, code string) error{
		"StartGame":      func(svc *GameService, code string) error { _, err := svc.StartGame(code, "host"); return err },
		"PickQuestion":   func(svc *GameService, code string) error { _, err := svc.PickQuestion(code, "q2"); return err },
		"AllowAnswering": func(svc *GameService, code string) error { _, err := svc.AllowAnswering(code); return err },
		"Buzz":           func(svc *GameService, code string) error { _, err := svc.Buzz(code, "alice"); return err },
		"ConfirmAnswer":  func(svc *GameService, code string) error { _, err := svc.ConfirmAnswer(code, true); return err },
		"EndQuestion":    func(svc *GameService, code string) error { _, err := svc.EndQuestion(code); return err },
	}

	for _, tt := range setups {
		for name, op := range ops {
			if slices.Contains(tt.allowed, name) {
				continue
			}
			t.Run(string(tt.kind)+"/"+name, func(t *testing.T) {
				svc, _, _ := newTestService(t)
				code := tt.setup(t, svc)
				before, err := svc.GetGame(code)
				require.NoError(t, err)
				require.Equal(t, tt.kind, before.State.Kind())

				err = op(svc, code)
				var ise *state.InvalidStateError
				require.ErrorAs(t, err, &ise)
				assert.Equal(t, tt.kind, ise.Actual)
				assert.Equal(t, "InvalidState", game.Code(err))

				after, err := svc.GetGame(code)
				require.NoError(t, err)
				assert.Equal(t, tt.kind, after.State.Kind())
				assert.Len(t, after.Log, len(before.Log))
				assert.Equal(t, before.Players, after.Players)
			})
		}
	}
}

func TestStateGating_BuzzInCheckAnswer(t *testing.T) {
	svc, _, _ := newTestService(t)
	code := startedGame(t, svc, twoQuestionRound())
	buzzIn(t, svc, code, "q1", "alice")

	_, err := svc.Buzz(code, "host")
	require.ErrorIs(t, err, game.ErrInvalidState)
	assert.Contains(t, err.Error(), "WaitingForAnswer")
}

func TestBuzz_UnknownPlayer(t *testing.T) {
	svc, _, _ := newTestService(t)
	code := startedGame(t, svc, twoQuestionRound())
	_, err := svc.PickQuestion(code, "q1")
	require.NoError(t, err)
	_, err = svc.AllowAnswering(code)
	require.NoError(t, err)

	_, err = svc.Buzz(code, "ghost")
	require.ErrorIs(t, err, game.ErrPlayerNotFound)
}

func TestPickQuestion_NotInCurrentRound(t *testing.T) {
	svc, _, _ := newTestService(t)
	code := startedGame(t, svc, oneQuestionRounds(2))

	_, err := svc.PickQuestion(code, "q2")
	require.ErrorIs(t, err, game.ErrNotFound)

	snap, err := svc.GetGame(code)
	require.NoError(t, err)
	assert.Equal(t, state.KindPickAQuestion, snap.State.Kind())
}

func TestScoreSymmetry(t *testing.T) {
	svc, _, _ := newTestService(t)
	code := startedGame(t, svc, twoQuestionRound())
	buzzIn(t, svc, code, "q1", "alice")

	snap, err := svc.ConfirmAnswer(code, false)
	require.NoError(t, err)
	alice, _ := snap.Player("alice")
	assert.Equal(t, -100, alice.Score)
	waiting, ok := snap.State.(state.WaitingForAnswer)
	require.True(t, ok)
	assert.Equal(t, "q1", waiting.Question.QuestionID)
	q, _ := snap.Question("q1")
	assert.False(t, q.Answered)
	wrong := snap.Log[len(snap.Log)-1]
	require.NotNil(t, wrong.IsCorrect)
	assert.False(t, *wrong.IsCorrect)
	assert.Equal(t, 100, wrong.PointsChange, "the log carries the question value, isCorrect gives the sign")

	// Buzzing again after a wrong answer is allowed.
	_, err = svc.Buzz(code, "alice")
	require.NoError(t, err)
	snap, err = svc.ConfirmAnswer(code, true)
	require.NoError(t, err)

	alice, _ = snap.Player("alice")
	assert.Equal(t, 0, alice.Score)
	assert.Equal(t, "alice", snap.LastWinner)
	q, _ = snap.Question("q1")
	assert.True(t, q.Answered)
	assert.Equal(t, state.KindPickAQuestion, snap.State.Kind())

	last := snap.Log[len(snap.Log)-1]
	assert.Equal(t, models.LogAnswerConfirmed, last.Type)
	require.NotNil(t, last.IsCorrect)
	assert.True(t, *last.IsCorrect)
	assert.Equal(t, 100, last.PointsChange)
}

func TestRoundCompletion_AdvancesRound(t *testing.T) {
	svc, notifier, archiver := newTestService(t)
	code := startedGame(t, svc, oneQuestionRounds(2))
	buzzIn(t, svc, code, "q1", "alice")

	snap, err := svc.ConfirmAnswer(code, true)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CurrentRound)
	assert.Equal(t, state.KindPickAQuestion, snap.State.Kind())
	assert.Empty(t, archiver.records)

	q, ok := notifier.lastQuestion()
	require.True(t, ok)
	assert.Equal(t, "q1", q.QuestionID)
	assert.True(t, q.Answered)

	_, err = svc.PickQuestion(code, "q1")
	require.ErrorIs(t, err, game.ErrNotFound, "questions from a finished round are rejected")
}

func TestRoundCompletion_FinishesGame(t *testing.T) {
	svc, _, archiver := newTestService(t)
	code := startedGame(t, svc, oneQuestionRounds(1))
	buzzIn(t, svc, code, "q1", "alice")

	snap, err := svc.ConfirmAnswer(code, true)
	require.NoError(t, err)
	assert.Equal(t, state.KindFinished, snap.State.Kind())
	assert.Equal(t, models.LogGameFinished, snap.Log[len(snap.Log)-1].Type)

	require.Len(t, archiver.records, 1)
	rec := archiver.records[0]
	assert.Equal(t, code, rec.Code)
	assert.Equal(t, "alice", rec.LastWinner)
	assert.Equal(t, 1, rec.QuestionCount)
}

func TestEndQuestion_FinishesGame(t *testing.T) {
	svc, notifier, archiver := newTestService(t)
	code := startedGame(t, svc, oneQuestionRounds(1))
	_, err := svc.PickQuestion(code, "q1")
	require.NoError(t, err)
	_, err = svc.AllowAnswering(code)
	require.NoError(t, err)

	snap, err := svc.EndQuestion(code)
	require.NoError(t, err)
	assert.Equal(t, state.KindFinished, snap.State.Kind())
	assert.Empty(t, snap.LastWinner)
	assert.Len(t, archiver.records, 1)

	q, ok := notifier.lastQuestion()
	require.True(t, ok)
	assert.True(t, q.Answered)
}

func TestEndQuestion_ReturnsToPicking(t *testing.T) {
	svc, _, _ := newTestService(t)
	code := startedGame(t, svc, twoQuestionRound())
	_, err := svc.PickQuestion(code, "q2")
	require.NoError(t, err)
	_, err = svc.AllowAnswering(code)
	require.NoError(t, err)

	snap, err := svc.EndQuestion(code)
	require.NoError(t, err)
	assert.Equal(t, state.KindPickAQuestion, snap.State.Kind())
	assert.Equal(t, 0, snap.CurrentRound)
}

func TestPickQuestion_StaleResync(t *testing.T) {
	svc, notifier, _ := newTestService(t)
	code := startedGame(t, svc, twoQuestionRound())
	buzzIn(t, svc, code, "q1", "alice")
	_, err := svc.ConfirmAnswer(code, true)
	require.NoError(t, err)

	before := notifier.fullCount()
	_, err = svc.PickQuestion(code, "q1")
	require.ErrorIs(t, err, game.ErrAlreadyAnswered)

	q, ok := notifier.lastQuestion()
	require.True(t, ok)
	assert.Equal(t, "q1", q.QuestionID)
	assert.True(t, q.Answered)
	assert.Equal(t, before, notifier.fullCount(), "a stale pick must not send a full broadcast")

	snap, err := svc.GetGame(code)
	require.NoError(t, err)
	assert.Equal(t, state.KindPickAQuestion, snap.State.Kind())
}

func TestUpdateScore(t *testing.T) {
	svc, _, _ := newTestService(t)
	code := startedGame(t, svc, twoQuestionRound())

	_, err := svc.UpdateScore(code, "alice", "alice", 1000)
	require.ErrorIs(t, err, game.ErrInsufficientPermissions)

	_, err = svc.UpdateScore(code, "host", "ghost", 10)
	require.ErrorIs(t, err, game.ErrPlayerNotFound)

	snap, err := svc.UpdateScore(code, "host", "alice", 450)
	require.NoError(t, err)
	alice, _ := snap.Player("alice")
	assert.Equal(t, 450, alice.Score)

	last := snap.Log[len(snap.Log)-1]
	assert.Equal(t, models.LogScoreUpdated, last.Type)
	assert.Equal(t, "host", last.By)
	require.NotNil(t, last.OldScore)
	require.NotNil(t, last.NewScore)
	assert.Equal(t, 0, *last.OldScore)
	assert.Equal(t, 450, *last.NewScore)
}

func TestNotifier_SeesMutationsInOrder(t *testing.T) {
	svc, notifier, _ := newTestService(t)
	created, err := svc.CreateGame(oneQuestionRounds(1), "host")
	require.NoError(t, err)

	const joiners = 30
	var wg sync.WaitGroup
	wg.Add(joiners)
	for i := 0; i < joiners; i++ {
		go func(i int) {
			defer wg.Done()
			_, _, err := svc.JoinGame(created.Code, "p"+string(rune('A'+i)), models.RoleSpectator)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.full, joiners)
	for i, snap := range notifier.full {
		assert.Len(t, snap.Players, i+2, "broadcast %d out of order", i)
	}
}

func TestNotifierFailureDoesNotFailOperation(t *testing.T) {
	svc, notifier, _ := newTestService(t)
	notifier.err = errors.New("socket closed")

	created, err := svc.CreateGame(oneQuestionRounds(1), "host")
	require.NoError(t, err)
	_, _, err = svc.JoinGame(created.Code, "alice", models.RoleContestant)
	require.NoError(t, err)
}

func TestGetQuestion(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.CreateGame(oneQuestionRounds(2), "host")
	require.NoError(t, err)

	q, err := svc.GetQuestion(created.Code, "q1")
	require.NoError(t, err)
	assert.Equal(t, "What is H2O?", q.Detail)

	_, err = svc.GetQuestion(created.Code, "q2")
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestSweepIdle_KeepsFreshGames(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.CreateGame(oneQuestionRounds(1), "host")
	require.NoError(t, err)

	assert.Empty(t, svc.SweepIdle())
	assert.Equal(t, 1, svc.Stats().ActiveGames)
}
