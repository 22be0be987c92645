// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormGameResult 已结束游戏的归档记录
type GormGameResult struct {
	gorm.Model
	Code          string    `gorm:"index;not null"`
	Players       []Player  `gorm:"serializer:json;type:jsonb;not null"`
	LastWinner    string    `gorm:"not null;default:''"`
	RoundCount    int       `gorm:"not null"`
	QuestionCount int       `gorm:"not null"`
	StartedAt     time.Time `gorm:"not null"`
	FinishedAt    time.Time `gorm:"index;not null"`
}

func (GormGameResult) TableName() string {
	return "game_results"
}

// NewGormGameResult converts an archive record into its table row.
func NewGormGameResult(r GameRecord) *GormGameResult {
	return &GormGameResult{
		Code:          r.Code,
		Players:       r.Players,
		LastWinner:    r.LastWinner,
		RoundCount:    r.RoundCount,
		QuestionCount: r.QuestionCount,
		StartedAt:     r.CreatedAt,
		FinishedAt:    r.FinishedAt,
	}
}

// Record converts a table row back into an archive record.
func (r GormGameResult) Record() GameRecord {
	return GameRecord{
		Code:          r.Code,
		Players:       r.Players,
		LastWinner:    r.LastWinner,
		RoundCount:    r.RoundCount,
		QuestionCount: r.QuestionCount,
		CreatedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
	}
}
