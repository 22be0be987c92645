package services

import (
	"context"

	"github.com/wfunc/trivianight/game"
	"github.com/wfunc/trivianight/models"
)

// Notifier pushes game changes to connected clients. Calls are made while the
// game is locked, so implementations must not call back into GameService for
// the same game.
type Notifier interface {
	// BroadcastFull sends the compact game view to everyone in the game.
	BroadcastFull(code string, snap game.Snapshot) error
	// BroadcastQuestion sends a single question's current board entry.
	BroadcastQuestion(code string, q models.Question) error
}

// Archiver stores the results of finished games.
type Archiver interface {
	Archive(ctx context.Context, record models.GameRecord) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) BroadcastFull(string, game.Snapshot) error      { return nil }
func (NopNotifier) BroadcastQuestion(string, models.Question) error { return nil }
