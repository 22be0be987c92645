// Package registry keeps every live game of the process, keyed by its join code.
package registry

import (
	"sort"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/wfunc/trivianight/game"
	"github.com/wfunc/trivianight/idgen"
	"github.com/wfunc/trivianight/logger"
)

// Registry 管理所有进行中的游戏
type Registry struct {
	games *xsync.MapOf[string, *game.Game]
	now   func() time.Time
}

// New 创建一个空的注册表
func New() *Registry {
	return &Registry{
		games: xsync.NewMapOf[string, *game.Game](),
		now:   time.Now,
	}
}

// Create registers g under its code. It fails with game.ErrAlreadyExists when
// the code is taken; the existing game is left untouched.
func (r *Registry) Create(g *game.Game) error {
	if _, loaded := r.games.LoadOrStore(g.Code, g); loaded {
		return game.ErrAlreadyExists
	}
	return nil
}

// Get 根据游戏码查找游戏，大小写不敏感
func (r *Registry) Get(code string) (*game.Game, error) {
	g, ok := r.games.Load(idgen.Normalize(code))
	if !ok {
		return nil, game.ErrNotFound
	}
	return g, nil
}

// Remove 移除一个游戏
func (r *Registry) Remove(code string) {
	r.games.Delete(idgen.Normalize(code))
}

// Count returns the number of live games.
func (r *Registry) Count() int {
	return r.games.Size()
}

// Codes returns the codes of all live games, sorted.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, r.games.Size())
	r.games.Range(func(code string, _ *game.Game) bool {
		codes = append(codes, code)
		return true
	})
	sort.Strings(codes)
	return codes
}

// SweepIdle removes every game whose last successful mutation is older than
// maxAge and returns the removed codes. Idleness is checked a second time
// inside the map's per-key compute, so a game touched between the scan and
// the removal is kept.
func (r *Registry) SweepIdle(maxAge time.Duration) []string {
	var candidates []string
	cutoff := r.now().Add(-maxAge)
	r.games.Range(func(code string, g *game.Game) bool {
		if g.LastModified().Before(cutoff) {
			candidates = append(candidates, code)
		}
		return true
	})

	var removed []string
	for _, code := range candidates {
		evicted := false
		r.games.Compute(code, func(g *game.Game, loaded bool) (*game.Game, bool) {
			if !loaded {
				return g, true
			}
			if g.LastModified().Before(r.now().Add(-maxAge)) {
				evicted = true
				return g, true
			}
			return g, false
		})
		if evicted {
			removed = append(removed, code)
			logger.Log.Infow("idle game removed", "code", code)
		}
	}
	return removed
}
