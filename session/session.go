// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/trivianight/idgen"
	"github.com/wfunc/trivianight/network"
)

// Session is one client connection. Once the client joins or creates a game
// the session is bound to that game's code and the player's username.
type Session struct {
	ID         string
	Conn       network.Connection
	CreatedAt  time.Time
	gameCode   string
	username   string
	lastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
	}
}

// Bind 绑定到游戏和玩家
func (s *Session) Bind(gameCode, username string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.gameCode = idgen.Normalize(gameCode)
	s.username = username
}

// Unbind 解除绑定
func (s *Session) Unbind() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.gameCode = ""
	s.username = ""
}

// Binding returns the bound game code and username. ok is false when unbound.
func (s *Session) Binding() (gameCode, username string, ok bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.gameCode, s.username, s.gameCode != ""
}

func (s *Session) GameCode() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.gameCode
}

func (s *Session) Touch() {
	s.mutex.Lock()
	s.lastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.Touch()
	return s.Conn.Send(msgID, data)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// GetByGameCode returns every session bound to the game.
func (m *Manager) GetByGameCode(gameCode string) []*Session {
	gameCode = idgen.Normalize(gameCode)

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.GameCode() == gameCode {
			result = append(result, session)
		}
	}
	return result
}

// All returns every connected session.
func (m *Manager) All() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}
