// services/game_service.go
package services

import (
	"github.com/wfunc/guesswho/game"
	"github.com/wfunc/guesswho/logger"
	"github.com/wfunc/guesswho/models"
	"github.com/wfunc/guesswho/persistence"
)

// GameService archives finished matches. The live coordinator state
// stays in memory; only terminal outcomes reach the database.
type GameService struct {
	db persistence.Database
}

func NewGameService(db persistence.Database) *GameService {
	return &GameService{db: db}
}

// RecordFinished saves the outcome of a finished match. Failures are
// logged, not propagated: archiving must never disturb live games.
func (s *GameService) RecordFinished(gameID string, players []game.Player, outcome game.Outcome) {
	record := &models.GameRecord{
		GameID:   gameID,
		WinnerID: outcome.WinnerID,
		LoserID:  outcome.LoserID,
		Message:  outcome.Message,
		Players:  make([]models.PlayerInfo, 0, len(players)),
	}

	for _, p := range players {
		info := models.PlayerInfo{
			UserID:   p.ID,
			Username: p.Username,
			Outcome:  "lose",
		}
		if p.ID == outcome.WinnerID {
			info.Outcome = "win"
		}
		if p.SelectedCharacter != nil {
			info.Character = p.SelectedCharacter.Name
		}
		record.Players = append(record.Players, info)
	}

	if err := s.db.SaveGameRecord(record); err != nil {
		logger.Log.Errorf("Failed to record game %s: %v", gameID, err)
	}
}

func (s *GameService) GetGame(gameID string) (*models.GameRecord, error) {
	return s.db.GetGameRecord(gameID)
}

func (s *GameService) ListGames() ([]models.GameRecord, error) {
	return s.db.ListGameRecords()
}
