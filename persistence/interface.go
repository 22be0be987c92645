// persistence/interface.go
package persistence

import (
	"context"
	"fmt"

	"github.com/wfunc/trivianight/config"
	"github.com/wfunc/trivianight/models"
)

// Store 已结束游戏的结果存储
type Store interface {
	Archive(ctx context.Context, record models.GameRecord) error
	RecentResults(ctx context.Context, limit int) ([]models.GameRecord, error)
	Close() error
}

// 错误定义
var (
	ErrUnknownDriver = fmt.Errorf("unknown archive driver")
)

// DefaultRecentLimit caps RecentResults when the caller passes no limit.
const DefaultRecentLimit = 20

// Open returns the store selected by cfg, or a NopStore when archiving is
// disabled.
func Open(cfg config.ArchiveConfig) (Store, error) {
	if !cfg.Enabled {
		return NopStore{}, nil
	}

	pg := cfg.Postgres
	switch cfg.Driver {
	case "gorm", "":
		store, err := NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sql":
		store, err := NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
}

// NopStore discards results.
type NopStore struct{}

func (NopStore) Archive(context.Context, models.GameRecord) error { return nil }

func (NopStore) RecentResults(context.Context, int) ([]models.GameRecord, error) {
	return nil, nil
}

func (NopStore) Close() error { return nil }

func dsn(host string, port int, user, password, dbname string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return DefaultRecentLimit
	}
	return limit
}
