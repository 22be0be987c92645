package game

import (
	"time"

	"github.com/wfunc/trivianight/models"
	"github.com/wfunc/trivianight/state"
)

// Snapshot is an immutable copy of a game taken at the end of a mutation.
type Snapshot struct {
	Code         string            `json:"id"`
	Players      []models.Player   `json:"players"`
	Rounds       []models.Round    `json:"rounds"`
	CurrentRound int               `json:"currentRound"`
	State        state.State       `json:"state"`
	LastWinner   string            `json:"lastWinner"`
	Log          []models.LogEntry `json:"log"`
	CreatedAt    time.Time         `json:"createdAt"`
	LastModified time.Time         `json:"lastModified"`
}

// Player looks a player up by username.
func (s Snapshot) Player(username string) (models.Player, bool) {
	for _, p := range s.Players {
		if p.Username == username {
			return p, true
		}
	}
	return models.Player{}, false
}

// Question looks a question up across every round.
func (s Snapshot) Question(questionID string) (models.Question, bool) {
	for _, r := range s.Rounds {
		if q, ok := r.FindQuestion(questionID); ok {
			return *q, true
		}
	}
	return models.Question{}, false
}

// Update is the compact view pushed to clients after every change. The board
// itself is not repeated; clients receive it on join and keep it current from
// question updates.
type Update struct {
	Code         string           `json:"id"`
	Players      []models.Player  `json:"players"`
	LastWinner   string           `json:"lastWinner"`
	CurrentRound int              `json:"currentRound"`
	State        state.State      `json:"state"`
	LastLogIndex int              `json:"lastLogIndex"`
	LastLog      *models.LogEntry `json:"lastLog,omitempty"`
}

func (s Snapshot) Update() Update {
	u := Update{
		Code:         s.Code,
		Players:      s.Players,
		LastWinner:   s.LastWinner,
		CurrentRound: s.CurrentRound,
		State:        s.State,
	}
	if n := len(s.Log); n > 0 {
		last := s.Log[n-1]
		u.LastLogIndex = n - 1
		u.LastLog = &last
	}
	return u
}

// Record builds the archive entry for a finished game.
func (s Snapshot) Record() models.GameRecord {
	questions := 0
	for _, r := range s.Rounds {
		questions += r.QuestionCount()
	}
	return models.GameRecord{
		Code:          s.Code,
		Players:       s.Players,
		LastWinner:    s.LastWinner,
		RoundCount:    len(s.Rounds),
		QuestionCount: questions,
		CreatedAt:     s.CreatedAt,
		FinishedAt:    s.LastModified,
	}
}
