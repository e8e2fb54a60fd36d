package db

import (
	"time"

	"gorm.io/datatypes"
)

type Question struct {
	ID         uint      `gorm:"primaryKey"`
	Text       string    `gorm:"size:280;not null;uniqueIndex"`
	NumAnswers int       `gorm:"not null;default:1"`
	Pack       string    `gorm:"size:64;index"`
	CreatedAt  time.Time `gorm:"not null"`
}

type Answer struct {
	ID        uint      `gorm:"primaryKey"`
	Text      string    `gorm:"size:280;not null;uniqueIndex"`
	Pack      string    `gorm:"size:64;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// RoomEvent is one broadcast recorded for a room.
type RoomEvent struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    string         `gorm:"size:64;index;not null"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
