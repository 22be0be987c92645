package rpc

import (
	"context"
	"time"

	"github.com/wfunc/trivianight/logger"
	"github.com/wfunc/trivianight/models"
	"github.com/wfunc/trivianight/persistence"
	"github.com/wfunc/trivianight/services"
)

const resultsTimeout = 5 * time.Second

// AdminService exposes operator commands over net/rpc. Methods follow the
// net/rpc signature: exported args, pointer reply, error result.
type AdminService struct {
	games   *services.GameService
	results persistence.Store
	sweep   func() []string
}

// NewAdminService creates the admin endpoint. sweep runs the idle sweep; when
// nil the service's own SweepIdle is used.
func NewAdminService(games *services.GameService, results persistence.Store, sweep func() []string) *AdminService {
	if results == nil {
		results = persistence.NopStore{}
	}
	if sweep == nil {
		sweep = games.SweepIdle
	}
	return &AdminService{games: games, results: results, sweep: sweep}
}

type StatsArgs struct {
	IncludeCodes bool
}

type StatsReply struct {
	ActiveGames int
	Codes       []string
}

func (a *AdminService) Stats(args *StatsArgs, reply *StatsReply) error {
	stats := a.games.Stats()
	reply.ActiveGames = stats.ActiveGames
	if args.IncludeCodes {
		reply.Codes = stats.Codes
	}
	return nil
}

type GetGameArgs struct {
	Code string
}

// GetGameReply is a gob-friendly summary of a game.
type GetGameReply struct {
	Code         string
	State        string
	CurrentRound int
	RoundCount   int
	Players      []models.Player
	LastWinner   string
	LogLength    int
	CreatedAt    time.Time
	LastModified time.Time
}

func (a *AdminService) GetGame(args *GetGameArgs, reply *GetGameReply) error {
	snap, err := a.games.GetGame(args.Code)
	if err != nil {
		return err
	}
	*reply = GetGameReply{
		Code:         snap.Code,
		State:        string(snap.State.Kind()),
		CurrentRound: snap.CurrentRound,
		RoundCount:   len(snap.Rounds),
		Players:      snap.Players,
		LastWinner:   snap.LastWinner,
		LogLength:    len(snap.Log),
		CreatedAt:    snap.CreatedAt,
		LastModified: snap.LastModified,
	}
	return nil
}

type SweepArgs struct {
	Requester string
}

type SweepReply struct {
	Removed []string
}

// SweepIdle runs the idle sweep immediately.
func (a *AdminService) SweepIdle(args *SweepArgs, reply *SweepReply) error {
	reply.Removed = a.sweep()
	logger.Log.Infow("manual idle sweep", "requester", args.Requester, "removed", len(reply.Removed))
	return nil
}

type RecentResultsArgs struct {
	Limit int
}

type RecentResultsReply struct {
	Results []models.GameRecord
}

func (a *AdminService) RecentResults(args *RecentResultsArgs, reply *RecentResultsReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), resultsTimeout)
	defer cancel()

	results, err := a.results.RecentResults(ctx, args.Limit)
	if err != nil {
		return err
	}
	reply.Results = results
	return nil
}
