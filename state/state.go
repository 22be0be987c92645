package state

import (
	"encoding/json"
	"fmt"

	"github.com/wfunc/trivianight/models"
)

// Kind names a game state. It doubles as the JSON "type" discriminator.
type Kind string

const (
	KindWaitingToStart   Kind = "WaitingToStart"
	KindPickAQuestion    Kind = "PickAQuestion"
	KindReadQuestion     Kind = "ReadQuestion"
	KindWaitingForAnswer Kind = "WaitingForAnswer"
	KindCheckAnswer      Kind = "CheckAnswer"
	KindFinished         Kind = "Finished"
)

// State is the closed set of states a game can occupy. The concrete types
// below are the only implementations.
type State interface {
	Kind() Kind
	isState()
}

// 等待主持人开始
type WaitingToStart struct{}

// 选题
type PickAQuestion struct{}

// 主持人读题
type ReadQuestion struct {
	Question models.Question
}

// 等待抢答
type WaitingForAnswer struct {
	Question models.Question
}

// 主持人判定答案
type CheckAnswer struct {
	Question models.Question
	Player   models.Player
}

// 游戏结束
type Finished struct{}

func (WaitingToStart) Kind() Kind   { return KindWaitingToStart }
func (PickAQuestion) Kind() Kind    { return KindPickAQuestion }
func (ReadQuestion) Kind() Kind     { return KindReadQuestion }
func (WaitingForAnswer) Kind() Kind { return KindWaitingForAnswer }
func (CheckAnswer) Kind() Kind      { return KindCheckAnswer }
func (Finished) Kind() Kind         { return KindFinished }

func (WaitingToStart) isState()   {}
func (PickAQuestion) isState()    {}
func (ReadQuestion) isState()     {}
func (WaitingForAnswer) isState() {}
func (CheckAnswer) isState()      {}
func (Finished) isState()         {}

// Question returns the question carried by s, if any.
func Question(s State) (models.Question, bool) {
	switch v := s.(type) {
	case ReadQuestion:
		return v.Question, true
	case WaitingForAnswer:
		return v.Question, true
	case CheckAnswer:
		return v.Question, true
	}
	return models.Question{}, false
}

// 合法的状态转换 from -> to
var transitions = map[Kind][]Kind{
	KindWaitingToStart:   {KindPickAQuestion},
	KindPickAQuestion:    {KindReadQuestion},
	KindReadQuestion:     {KindWaitingForAnswer},
	KindWaitingForAnswer: {KindCheckAnswer, KindPickAQuestion, KindFinished},
	KindCheckAnswer:      {KindWaitingForAnswer, KindPickAQuestion, KindFinished},
}

// CanTransition reports whether the machine allows moving from one state to another.
func CanTransition(from, to Kind) bool {
	for _, k := range transitions[from] {
		if k == to {
			return true
		}
	}
	return false
}

// Expect returns current as T, or an *InvalidStateError naming T's kind.
func Expect[T State](current State) (T, error) {
	if s, ok := current.(T); ok {
		return s, nil
	}
	var zero T
	return zero, &InvalidStateError{Required: []Kind{zero.Kind()}, Actual: current.Kind()}
}

// Require fails unless current is one of the given kinds.
func Require(current State, kinds ...Kind) error {
	for _, k := range kinds {
		if current.Kind() == k {
			return nil
		}
	}
	return &InvalidStateError{Required: kinds, Actual: current.Kind()}
}

type wireState struct {
	Type     Kind             `json:"type"`
	Question *models.Question `json:"question,omitempty"`
	Player   *models.Player   `json:"player,omitempty"`
}

func (s WaitingToStart) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireState{Type: s.Kind()})
}

func (s PickAQuestion) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireState{Type: s.Kind()})
}

func (s ReadQuestion) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireState{Type: s.Kind(), Question: &s.Question})
}

func (s WaitingForAnswer) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireState{Type: s.Kind(), Question: &s.Question})
}

func (s CheckAnswer) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireState{Type: s.Kind(), Question: &s.Question, Player: &s.Player})
}

func (s Finished) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireState{Type: s.Kind()})
}

// Unmarshal decodes the tagged JSON form produced by the MarshalJSON methods.
func Unmarshal(data []byte) (State, error) {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	needQuestion := func() (models.Question, error) {
		if w.Question == nil {
			return models.Question{}, fmt.Errorf("state %s is missing its question", w.Type)
		}
		return *w.Question, nil
	}

	switch w.Type {
	case KindWaitingToStart:
		return WaitingToStart{}, nil
	case KindPickAQuestion:
		return PickAQuestion{}, nil
	case KindReadQuestion:
		q, err := needQuestion()
		if err != nil {
			return nil, err
		}
		return ReadQuestion{Question: q}, nil
	case KindWaitingForAnswer:
		q, err := needQuestion()
		if err != nil {
			return nil, err
		}
		return WaitingForAnswer{Question: q}, nil
	case KindCheckAnswer:
		q, err := needQuestion()
		if err != nil {
			return nil, err
		}
		if w.Player == nil {
			return nil, fmt.Errorf("state %s is missing its player", w.Type)
		}
		return CheckAnswer{Question: q, Player: *w.Player}, nil
	case KindFinished:
		return Finished{}, nil
	}
	return nil, fmt.Errorf("unknown state type %q", w.Type)
}
