// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/guesswho/models"
)

// PostgreSQL 数据库实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            user_id VARCHAR(64) UNIQUE NOT NULL,
            firstname VARCHAR(255) NOT NULL,
            lastname VARCHAR(255) NOT NULL,
            username VARCHAR(255) UNIQUE NOT NULL,
            email VARCHAR(255) UNIQUE NOT NULL,
            password_hash VARCHAR(255) NOT NULL,
            verified BOOLEAN DEFAULT TRUE,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id SERIAL PRIMARY KEY,
            game_id VARCHAR(255) NOT NULL,
            winner_id VARCHAR(64) NOT NULL,
            loser_id VARCHAR(64) NOT NULL,
            message TEXT NOT NULL,
            players JSONB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	return err
}

func (p *PostgreSQL) CreateUser(user *models.User, passwordHash string) error {
	_, err := p.db.Exec(`
        INSERT INTO users (user_id, firstname, lastname, username, email, password_hash, verified)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, user.ID, user.Firstname, user.Lastname, user.Username, user.Email, passwordHash, user.Verified)
	return err
}

func (p *PostgreSQL) GetUserByID(id string) (*models.User, error) {
	row := p.db.QueryRow(`
        SELECT user_id, firstname, lastname, username, email, verified, created_at
        FROM users WHERE user_id = $1
    `, id)

	var user models.User
	err := row.Scan(&user.ID, &user.Firstname, &user.Lastname, &user.Username, &user.Email, &user.Verified, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *PostgreSQL) GetUserCredentials(email string) (*models.User, string, error) {
	row := p.db.QueryRow(`
        SELECT user_id, firstname, lastname, username, email, verified, created_at, password_hash
        FROM users WHERE email = $1
    `, email)

	var user models.User
	var hash string
	err := row.Scan(&user.ID, &user.Firstname, &user.Lastname, &user.Username, &user.Email, &user.Verified, &user.CreatedAt, &hash)
	if err == sql.ErrNoRows {
		return nil, "", ErrRecordNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return &user, hash, nil
}

func (p *PostgreSQL) CountUsersByEmail(email string) (int64, error) {
	var count int64
	err := p.db.QueryRow(`SELECT COUNT(*) FROM users WHERE email = $1`, email).Scan(&count)
	return count, err
}

func (p *PostgreSQL) CountUsersByUsername(username string) (int64, error) {
	var count int64
	err := p.db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = $1`, username).Scan(&count)
	return count, err
}

func (p *PostgreSQL) CountUsersByIDPrefix(prefix string) (int64, error) {
	var count int64
	err := p.db.QueryRow(`SELECT COUNT(*) FROM users WHERE user_id LIKE $1`, prefix+"%").Scan(&count)
	return count, err
}

func (p *PostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	_, err = p.db.Exec(`
        INSERT INTO game_records (game_id, winner_id, loser_id, message, players)
        VALUES ($1, $2, $3, $4, $5)
    `, record.GameID, record.WinnerID, record.LoserID, record.Message, players)
	return err
}

func (p *PostgreSQL) GetGameRecord(gameID string) (*models.GameRecord, error) {
	row := p.db.QueryRow(`
        SELECT game_id, winner_id, loser_id, message, players, created_at
        FROM game_records WHERE game_id = $1
        ORDER BY created_at DESC LIMIT 1
    `, gameID)

	record, err := scanGameRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (p *PostgreSQL) ListGameRecords() ([]models.GameRecord, error) {
	rows, err := p.db.Query(`
        SELECT game_id, winner_id, loser_id, message, players, created_at
        FROM game_records ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.GameRecord
	for rows.Next() {
		record, err := scanGameRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

func scanGameRecord(scan func(dest ...interface{}) error) (*models.GameRecord, error) {
	var record models.GameRecord
	var players []byte
	if err := scan(&record.GameID, &record.WinnerID, &record.LoserID, &record.Message, &players, &record.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(players, &record.Players); err != nil {
		return nil, err
	}
	return &record, nil
}
