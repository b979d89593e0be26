// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/guesswho/models"
)

// Database 数据库接口
type Database interface {
	CreateUser(user *models.User, passwordHash string) error
	GetUserByID(id string) (*models.User, error)
	GetUserCredentials(email string) (*models.User, string, error)
	CountUsersByEmail(email string) (int64, error)
	CountUsersByUsername(username string) (int64, error)
	CountUsersByIDPrefix(prefix string) (int64, error)
	SaveGameRecord(record *models.GameRecord) error
	GetGameRecord(gameID string) (*models.GameRecord, error)
	ListGameRecords() ([]models.GameRecord, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
