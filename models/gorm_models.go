// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormUser 用户模型
type GormUser struct {
	gorm.Model
	UserID       string `gorm:"uniqueIndex;not null"`
	Firstname    string `gorm:"not null"`
	Lastname     string `gorm:"not null"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Verified     bool   `gorm:"default:true"`
}

// GormGameRecord 对局记录模型
type GormGameRecord struct {
	gorm.Model
	GameID   string       `gorm:"index;not null"`
	WinnerID string       `gorm:"not null"`
	LoserID  string       `gorm:"not null"`
	Message  string       `gorm:"not null"`
	Players  []PlayerInfo `gorm:"type:jsonb;serializer:json"`
}
