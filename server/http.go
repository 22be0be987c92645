package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wfunc/trivianight/game"
	"github.com/wfunc/trivianight/logger"
	"github.com/wfunc/trivianight/network"
)

// httpStatus maps an error to an HTTP status code.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, game.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNotFound), errors.Is(err, game.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrAlreadyExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warnf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), network.Response{
		Error: &network.ErrorBody{Type: errorType(err), Message: err.Error()},
	})
}

// handleCreateGameHTTP creates a game without opening a socket. The host then
// joins over /ws with the returned code.
func (s *GameServer) handleCreateGameHTTP(w http.ResponseWriter, r *http.Request) {
	var req network.CreateGameRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, network.MaxPayloadSize)).Decode(&req); err != nil {
		writeError(w, errors.Join(ErrBadRequest, err))
		return
	}

	snap, err := s.games.CreateGame(req.Rounds, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	s.monitor.IncGamesCreated()
	s.monitor.SetActiveGames(s.games.Stats().ActiveGames)
	writeJSON(w, http.StatusCreated, network.Response{Response: snap})
}

func (s *GameServer) handleGetGameHTTP(w http.ResponseWriter, r *http.Request) {
	snap, err := s.games.GetGame(mux.Vars(r)["code"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, network.Response{Response: snap})
}

func (s *GameServer) handleStatsHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, network.Response{Response: s.games.Stats()})
}
