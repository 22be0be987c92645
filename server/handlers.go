package server

import (
	"encoding/json"
	"errors"

	"github.com/wfunc/trivianight/game"
	"github.com/wfunc/trivianight/logger"
	"github.com/wfunc/trivianight/network"
	"github.com/wfunc/trivianight/session"
)

var (
	ErrNotJoined  = errors.New("connection has not joined a game")
	ErrBadRequest = errors.New("malformed request")
)

// handlerFunc handles one request and returns the reply payload.
type handlerFunc func(sess *session.Session, data []byte) (any, error)

func (s *GameServer) handlers() map[uint16]handlerFunc {
	return map[uint16]handlerFunc{
		network.MsgTypeCreateGame:     s.handleCreateGame,
		network.MsgTypeJoinGame:       s.handleJoinGame,
		network.MsgTypeLeaveGame:      s.handleLeaveGame,
		network.MsgTypeStartGame:      s.handleStartGame,
		network.MsgTypeGetGame:        s.handleGetGame,
		network.MsgTypePickQuestion:   s.handlePickQuestion,
		network.MsgTypeAllowAnswering: s.handleAllowAnswering,
		network.MsgTypeBuzz:           s.handleBuzz,
		network.MsgTypeConfirmAnswer:  s.handleConfirmAnswer,
		network.MsgTypeEndQuestion:    s.handleEndQuestion,
		network.MsgTypeUpdateScore:    s.handleUpdateScore,
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	if packet.MsgID == network.MsgTypeHeartbeat {
		sess.Touch()
		sess.Send(network.MsgTypeHeartbeat, nil)
		return
	}

	handler, ok := s.dispatch[packet.MsgID]
	if !ok {
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		s.replyError(sess, packet.MsgID, "BadRequest", "unknown message type")
		return
	}

	result, err := handler(sess, packet.Data)
	if err != nil {
		s.replyError(sess, packet.MsgID, errorType(err), err.Error())
		return
	}

	data, err := network.OK(result)
	if err != nil {
		logger.Log.Errorf("Failed to encode reply for session %s: %v", sess.GetID(), err)
		return
	}
	sess.Send(packet.MsgID, data)
}

func (s *GameServer) replyError(sess *session.Session, msgID uint16, errType, message string) {
	data, err := network.Fail(errType, message)
	if err != nil {
		return
	}
	sess.Send(msgID, data)
}

// errorType maps an error to the "type" field of an error reply.
func errorType(err error) string {
	switch {
	case errors.Is(err, ErrNotJoined):
		return "NotJoined"
	case errors.Is(err, ErrBadRequest):
		return "BadRequest"
	}
	return game.Code(err)
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}

// bound returns the connection's game and username.
func bound(sess *session.Session) (code, username string, err error) {
	code, username, ok := sess.Binding()
	if !ok {
		return "", "", ErrNotJoined
	}
	return code, username, nil
}

func (s *GameServer) handleCreateGame(sess *session.Session, data []byte) (any, error) {
	var req network.CreateGameRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	snap, err := s.games.CreateGame(req.Rounds, req.Username)
	if err != nil {
		return nil, err
	}
	s.monitor.IncGamesCreated()
	s.monitor.SetActiveGames(s.games.Stats().ActiveGames)

	sess.Bind(snap.Code, snap.Players[0].Username)
	logger.Log.Infof("Session %s created game %s", sess.GetID(), snap.Code)
	return snap, nil
}

func (s *GameServer) handleJoinGame(sess *session.Session, data []byte) (any, error) {
	var req network.JoinGameRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}

	snap, player, err := s.games.JoinGame(req.Code, req.Username, req.Role)
	if err != nil {
		return nil, err
	}
	sess.Bind(snap.Code, player.Username)
	logger.Log.Infof("Session %s joined game %s as %s", sess.GetID(), snap.Code, player.Username)
	return snap, nil
}

func (s *GameServer) handleLeaveGame(sess *session.Session, _ []byte) (any, error) {
	code, username, err := bound(sess)
	if err != nil {
		return nil, err
	}
	if err := s.games.LeaveGame(code, username); err != nil {
		return nil, err
	}
	sess.Unbind()
	return struct{}{}, nil
}

func (s *GameServer) handleStartGame(sess *session.Session, _ []byte) (any, error) {
	code, username, err := bound(sess)
	if err != nil {
		return nil, err
	}
	return s.games.StartGame(code, username)
}

func (s *GameServer) handleGetGame(sess *session.Session, _ []byte) (any, error) {
	code, _, err := bound(sess)
	if err != nil {
		return nil, err
	}
	return s.games.GetGame(code)
}

func (s *GameServer) handlePickQuestion(sess *session.Session, data []byte) (any, error) {
	code, _, err := bound(sess)
	if err != nil {
		return nil, err
	}
	var req network.PickQuestionRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return s.games.PickQuestion(code, req.QuestionID)
}

func (s *GameServer) handleAllowAnswering(sess *session.Session, _ []byte) (any, error) {
	code, _, err := bound(sess)
	if err != nil {
		return nil, err
	}
	return s.games.AllowAnswering(code)
}

func (s *GameServer) handleBuzz(sess *session.Session, _ []byte) (any, error) {
	code, username, err := bound(sess)
	if err != nil {
		return nil, err
	}
	return s.games.Buzz(code, username)
}

func (s *GameServer) handleConfirmAnswer(sess *session.Session, data []byte) (any, error) {
	code, _, err := bound(sess)
	if err != nil {
		return nil, err
	}
	var req network.ConfirmAnswerRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return s.games.ConfirmAnswer(code, req.IsCorrect)
}

func (s *GameServer) handleEndQuestion(sess *session.Session, _ []byte) (any, error) {
	code, _, err := bound(sess)
	if err != nil {
		return nil, err
	}
	return s.games.EndQuestion(code)
}

func (s *GameServer) handleUpdateScore(sess *session.Session, data []byte) (any, error) {
	code, username, err := bound(sess)
	if err != nil {
		return nil, err
	}
	var req network.UpdateScoreRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return s.games.UpdateScore(code, username, req.Username, req.NewScore)
}
