// broadcast/broadcast.go
package broadcast

import (
	"fmt"

	"github.com/wfunc/trivianight/game"
	"github.com/wfunc/trivianight/logger"
	"github.com/wfunc/trivianight/models"
	"github.com/wfunc/trivianight/network"
	"github.com/wfunc/trivianight/session"
)

// GameBroadcaster fans game changes out to every connection bound to the game.
type GameBroadcaster struct {
	sessionManager *session.Manager
}

func NewGameBroadcaster(sessionManager *session.Manager) *GameBroadcaster {
	return &GameBroadcaster{sessionManager: sessionManager}
}

// BroadcastFull 广播游戏的整体变化
func (b *GameBroadcaster) BroadcastFull(code string, snap game.Snapshot) error {
	data, err := network.OK(snap.Update())
	if err != nil {
		return fmt.Errorf("encode game update: %w", err)
	}
	return b.BroadcastToGame(code, network.MsgTypeGameUpdate, data)
}

// BroadcastQuestion 广播单个题目的变化
func (b *GameBroadcaster) BroadcastQuestion(code string, q models.Question) error {
	data, err := network.OK(network.QuestionUpdate{Code: code, Question: q})
	if err != nil {
		return fmt.Errorf("encode question update: %w", err)
	}
	return b.BroadcastToGame(code, network.MsgTypeQuestionUpdate, data)
}

// BroadcastToGame sends a raw payload to every connection in the game. A
// failed send is logged and skipped; the returned error reports how many
// connections could not be reached.
func (b *GameBroadcaster) BroadcastToGame(code string, msgID uint16, data []byte) error {
	failed := 0
	sessions := b.sessionManager.GetByGameCode(code)
	for _, s := range sessions {
		if err := s.Send(msgID, data); err != nil {
			logger.Log.Debugw("send failed", "code", code, "session", s.ID, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("broadcast to %s: %d of %d sends failed", code, failed, len(sessions))
	}
	return nil
}

// BroadcastToAll 广播到所有连接
func (b *GameBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.All() {
		if err := s.Send(msgID, data); err != nil {
			continue
		}
	}
	return nil
}
