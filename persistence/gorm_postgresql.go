// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/guesswho/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormUser{}, &models.GormGameRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) CreateUser(user *models.User, passwordHash string) error {
	record := models.GormUser{
		UserID:       user.ID,
		Firstname:    user.Firstname,
		Lastname:     user.Lastname,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: passwordHash,
		Verified:     user.Verified,
	}
	return p.db.Create(&record).Error
}

func (p *GormPostgreSQL) GetUserByID(id string) (*models.User, error) {
	var record models.GormUser
	if err := p.db.Where("user_id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	user := toUser(&record)
	return &user, nil
}

func (p *GormPostgreSQL) GetUserCredentials(email string) (*models.User, string, error) {
	var record models.GormUser
	if err := p.db.Where("email = ?", email).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrRecordNotFound
		}
		return nil, "", err
	}
	user := toUser(&record)
	return &user, record.PasswordHash, nil
}

func (p *GormPostgreSQL) CountUsersByEmail(email string) (int64, error) {
	var count int64
	err := p.db.Model(&models.GormUser{}).Where("email = ?", email).Count(&count).Error
	return count, err
}

func (p *GormPostgreSQL) CountUsersByUsername(username string) (int64, error) {
	var count int64
	err := p.db.Model(&models.GormUser{}).Where("username = ?", username).Count(&count).Error
	return count, err
}

func (p *GormPostgreSQL) CountUsersByIDPrefix(prefix string) (int64, error) {
	var count int64
	err := p.db.Model(&models.GormUser{}).Where("user_id LIKE ?", prefix+"%").Count(&count).Error
	return count, err
}

func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	row := models.GormGameRecord{
		GameID:   record.GameID,
		WinnerID: record.WinnerID,
		LoserID:  record.LoserID,
		Message:  record.Message,
		Players:  record.Players,
	}
	return p.db.Create(&row).Error
}

func (p *GormPostgreSQL) GetGameRecord(gameID string) (*models.GameRecord, error) {
	var row models.GormGameRecord
	if err := p.db.Where("game_id = ?", gameID).Order("created_at DESC").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	rec := toGameRecord(&row)
	return &rec, nil
}

func (p *GormPostgreSQL) ListGameRecords() ([]models.GameRecord, error) {
	var rows []models.GormGameRecord
	if err := p.db.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]models.GameRecord, 0, len(rows))
	for i := range rows {
		records = append(records, toGameRecord(&rows[i]))
	}
	return records, nil
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toUser(record *models.GormUser) models.User {
	return models.User{
		ID:        record.UserID,
		Firstname: record.Firstname,
		Lastname:  record.Lastname,
		Username:  record.Username,
		Email:     record.Email,
		Verified:  record.Verified,
		CreatedAt: record.CreatedAt,
	}
}

func toGameRecord(row *models.GormGameRecord) models.GameRecord {
	return models.GameRecord{
		GameID:    row.GameID,
		WinnerID:  row.WinnerID,
		LoserID:   row.LoserID,
		Message:   row.Message,
		Players:   row.Players,
		CreatedAt: row.CreatedAt,
	}
}
