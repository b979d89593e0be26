// models/models.go
package models

import (
	"time"
)

// User 用户数据模型
type User struct {
	ID        string    `json:"id"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// GameRecord 对局记录模型
type GameRecord struct {
	GameID    string       `json:"game_id"`
	WinnerID  string       `json:"winner_id"`
	LoserID   string       `json:"loser_id"`
	Message   string       `json:"message"`
	Players   []PlayerInfo `json:"players"`
	CreatedAt time.Time    `json:"created_at"`
}

// PlayerInfo 玩家信息（用于对局记录）
type PlayerInfo struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Character string `json:"character"`
	Outcome   string `json:"outcome"` // win/lose
}
