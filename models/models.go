// models/models.go
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PlayerRole 玩家在一局游戏中的身份
type PlayerRole string

const (
	RoleHost       PlayerRole = "Host"
	RoleContestant PlayerRole = "Contestant"
	RoleSpectator  PlayerRole = "Spectator"
)

// ParsePlayerRole accepts the wire names of the three roles.
func ParsePlayerRole(s string) (PlayerRole, error) {
	switch PlayerRole(s) {
	case RoleHost, RoleContestant, RoleSpectator:
		return PlayerRole(s), nil
	}
	return "", fmt.Errorf("unknown player role %q", s)
}

// Player 玩家
type Player struct {
	Username string     `json:"username"`
	Score    int        `json:"score"`
	Role     PlayerRole `json:"role"`
}

// Question 题目
type Question struct {
	QuestionID    string `json:"questionId"`
	Detail        string `json:"detail"`
	CorrectAnswer string `json:"correctAnswer"`
	Value         int    `json:"value"`
	Answered      bool   `json:"answered"`
}

// Category 题目分类
type Category struct {
	CategoryID string     `json:"categoryId"`
	Name       string     `json:"name"`
	Questions  []Question `json:"questions"`
}

// Round is one board of categories. Rounds are played in order.
type Round []Category

// FindQuestion returns a pointer into the round so callers can flip Answered.
func (r Round) FindQuestion(questionID string) (*Question, bool) {
	for c := range r {
		for q := range r[c].Questions {
			if r[c].Questions[q].QuestionID == questionID {
				return &r[c].Questions[q], true
			}
		}
	}
	return nil, false
}

// AllAnswered reports whether every question in every category is answered.
func (r Round) AllAnswered() bool {
	for _, c := range r {
		for _, q := range c.Questions {
			if !q.Answered {
				return false
			}
		}
	}
	return true
}

// QuestionCount returns the number of questions on the board.
func (r Round) QuestionCount() int {
	n := 0
	for _, c := range r {
		n += len(c.Questions)
	}
	return n
}

// Clone deep-copies the round.
func (r Round) Clone() Round {
	out := make(Round, len(r))
	for i, c := range r {
		out[i] = Category{
			CategoryID: c.CategoryID,
			Name:       c.Name,
			Questions:  append([]Question(nil), c.Questions...),
		}
	}
	return out
}

// CloneRounds deep-copies a whole game board.
func CloneRounds(rounds []Round) []Round {
	out := make([]Round, len(rounds))
	for i, r := range rounds {
		out[i] = r.Clone()
	}
	return out
}

// AssignIDs fills in missing category and question ids with random UUIDs.
func AssignIDs(rounds []Round) {
	for _, r := range rounds {
		for c := range r {
			if r[c].CategoryID == "" {
				r[c].CategoryID = uuid.NewString()
			}
			for q := range r[c].Questions {
				if r[c].Questions[q].QuestionID == "" {
					r[c].Questions[q].QuestionID = uuid.NewString()
				}
			}
		}
	}
}

// LogType 游戏日志类型
type LogType string

const (
	LogGameCreated     LogType = "GameCreated"
	LogPlayerJoined    LogType = "PlayerJoined"
	LogPlayerLeft      LogType = "PlayerLeft"
	LogGameStarted     LogType = "GameStarted"
	LogQuestionPicked  LogType = "QuestionPicked"
	LogPlayerBuzzedIn  LogType = "PlayerBuzzedIn"
	LogAnswerConfirmed LogType = "AnswerConfirmed"
	LogQuestionPassed  LogType = "QuestionPassed"
	LogRoundAdvanced   LogType = "RoundAdvanced"
	LogGameFinished    LogType = "GameFinished"
	LogScoreUpdated    LogType = "ScoreUpdated"
)

// LogEntry is one append-only game event. Only the fields relevant to Type are set.
type LogEntry struct {
	Type         LogType    `json:"type"`
	Time         int64      `json:"time"` // unix milliseconds
	Username     string     `json:"username,omitempty"`
	Role         PlayerRole `json:"role,omitempty"`
	QuestionID   string     `json:"questionId,omitempty"`
	IsCorrect    *bool      `json:"isCorrect,omitempty"`
	PointsChange int        `json:"pointsChange,omitempty"` // question value; IsCorrect gives the sign
	Round        int        `json:"round,omitempty"`
	By           string     `json:"by,omitempty"`
	OldScore     *int       `json:"oldScore,omitempty"`
	NewScore     *int       `json:"newScore,omitempty"`
}

// NewLogEntry stamps an entry with the current time.
func NewLogEntry(t LogType) LogEntry {
	return LogEntry{Type: t, Time: time.Now().UnixMilli()}
}

// GameRecord 已结束游戏的结果，用于归档
type GameRecord struct {
	Code          string    `json:"code"`
	Players       []Player  `json:"players"`
	LastWinner    string    `json:"last_winner"`
	RoundCount    int       `json:"round_count"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
	FinishedAt    time.Time `json:"finished_at"`
}
