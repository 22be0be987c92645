package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/wfunc/trivianight/broadcast"
	"github.com/wfunc/trivianight/logger"
	"github.com/wfunc/trivianight/monitor"
	"github.com/wfunc/trivianight/network"
	"github.com/wfunc/trivianight/services"
	"github.com/wfunc/trivianight/session"
)

// HeartbeatInterval is the ping period. A connection that neither sends nor
// answers a ping for two intervals is dropped.
const HeartbeatInterval = 30 * time.Second

type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	games          *services.GameService
	sessionManager *session.Manager
	broadcaster    *broadcast.GameBroadcaster
	monitor        *monitor.Monitor
	heartbeat      time.Duration
	router         *mux.Router
	dispatch       map[uint16]handlerFunc
	httpServer     *http.Server
	shutdownChan   chan struct{}
	shutdownOnce   sync.Once
}

// NewGameServer wires the HTTP and WebSocket front end. sessionManager must be
// the one the broadcaster fans out to.
func NewGameServer(addr string, games *services.GameService, sessionManager *session.Manager, broadcaster *broadcast.GameBroadcaster, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		addr:           addr,
		games:          games,
		sessionManager: sessionManager,
		broadcaster:    broadcaster,
		monitor:        mon,
		heartbeat:      HeartbeatInterval,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.dispatch = s.handlers()
	s.router = mux.NewRouter()
	s.router.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/games", s.handleCreateGameHTTP).Methods(http.MethodPost)
	api.HandleFunc("/games/{code}", s.handleGetGameHTTP).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStatsHTTP).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mostly for tests.
func (s *GameServer) Handler() http.Handler {
	return s.router
}

func (s *GameServer) Start() error {
	logger.Log.Infof("Game server listening on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown tells connected clients, stops accepting requests and closes every
// connection. Games stay in memory until the process exits.
func (s *GameServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		if data, encErr := network.Fail("Unavailable", "server is shutting down"); encErr == nil {
			s.broadcaster.BroadcastToAll(network.MsgTypeError, data)
		}
		err = s.httpServer.Shutdown(ctx)
		for _, sess := range s.sessionManager.All() {
			sess.Close()
		}
	})
	return err
}

// SweepIdle removes idle games and refreshes the game metrics. It is run by
// the scheduler and by the admin RPC.
func (s *GameServer) SweepIdle() []string {
	removed := s.games.SweepIdle()
	s.monitor.AddGamesSwept(len(removed))
	s.monitor.SetActiveGames(s.games.Stats().ActiveGames)
	return removed
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(s.heartbeat)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncConnectedClients()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	// The player stays in the game so the same username can rejoin.
	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecConnectedClients()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
		}

		packet, err := wsConn.ReadPacket()
		if errors.Is(err, io.ErrShortBuffer) || errors.Is(err, network.ErrPayloadTooLarge) {
			s.replyError(sess, network.MsgTypeError, "BadRequest", err.Error())
			continue
		}
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Log.Debugf("Read error on session %s: %v", sess.GetID(), err)
			}
			return
		}

		start := time.Now()
		s.monitor.IncMessagesReceived()
		s.handlePacket(sess, packet)
		s.monitor.ObserveMessageLatency(time.Since(start))
	}
}
