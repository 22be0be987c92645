package network

import (
	"encoding/json"

	"github.com/wfunc/trivianight/models"
)

// Client requests. The server replies with the same message id.
const (
	MsgTypeHeartbeat = 1

	MsgTypeCreateGame = 101
	MsgTypeJoinGame   = 102
	MsgTypeLeaveGame  = 103
	MsgTypeStartGame  = 104
	MsgTypeGetGame    = 105

	MsgTypePickQuestion   = 201
	MsgTypeAllowAnswering = 202
	MsgTypeBuzz           = 203
	MsgTypeConfirmAnswer  = 204
	MsgTypeEndQuestion    = 205
	MsgTypeUpdateScore    = 206
)

// Server pushes.
const (
	MsgTypeGameUpdate     = 301
	MsgTypeQuestionUpdate = 302
	MsgTypeError          = 399
)

type CreateGameRequest struct {
	Username string         `json:"username"`
	Rounds   []models.Round `json:"rounds"`
}

type JoinGameRequest struct {
	Code     string            `json:"code"`
	Username string            `json:"username"`
	Role     models.PlayerRole `json:"role"`
}

type PickQuestionRequest struct {
	QuestionID string `json:"questionId"`
}

type ConfirmAnswerRequest struct {
	IsCorrect bool `json:"isCorrect"`
}

type UpdateScoreRequest struct {
	Username string `json:"username"`
	NewScore int    `json:"newScore"`
}

// ErrorBody names the failure by its stable error code.
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Response wraps every reply.
type Response struct {
	Response any        `json:"response,omitempty"`
	Error    *ErrorBody `json:"error,omitempty"`
}

// QuestionUpdate is pushed when a single question on the board changes.
type QuestionUpdate struct {
	Code     string          `json:"id"`
	Question models.Question `json:"question"`
}

// OK 构造成功响应
func OK(v any) ([]byte, error) {
	return json.Marshal(Response{Response: v})
}

// Fail 构造错误响应
func Fail(errType, message string) ([]byte, error) {
	return json.Marshal(Response{Error: &ErrorBody{Type: errType, Message: message}})
}
