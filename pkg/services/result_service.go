package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/backsoul/millonario/pkg/engine"
	"github.com/backsoul/millonario/pkg/models"
)

// DefaultLeaderboardSize tamaño de la tabla cuando no se pide otro
const DefaultLeaderboardSize = 20

var avatars = []string{"🎯", "⭐", "🔥", "💎", "🌟", "🎪", "🚀", "👤", "🎨", "🎵", "🌊", "⚡", "🎭", "🦄", "🔮"}

// ResultService registra partidas terminadas y arma la tabla de posiciones
type ResultService struct {
	store  ResultStore
	logger *zap.Logger
}

func NewResultService(store ResultStore, logger *zap.Logger) *ResultService {
	return &ResultService{
		store:  store,
		logger: logger,
	}
}

// Record guarda el resultado de una sesión que ya terminó
func (rs *ResultService) Record(ctx context.Context, session *models.GameSession) (models.GameResult, error) {
	state := session.State
	if !state.GameOver {
		return models.GameResult{}, fmt.Errorf("la sesión %s no ha terminado", session.ID)
	}

	result := models.GameResult{
		ID:              uuid.New().String(),
		SessionID:       session.ID,
		PlayerName:      session.PlayerName,
		Outcome:         state.Outcome,
		Prize:           state.FinalPrize,
		QuestionReached: state.CurrentIndex + 1,
		CorrectCount:    state.CorrectCount,
		WrongCount:      state.WrongCount,
		LifelinesUsed:   state.LifelineUsed.Count(),
		FinishedAt:      time.Now().UTC(),
	}
	if err := rs.store.Record(ctx, result); err != nil {
		return models.GameResult{}, err
	}

	rs.logger.Info("🏁 Resultado registrado",
		zap.String("session_id", session.ID),
		zap.String("player", session.PlayerName),
		zap.String("outcome", string(result.Outcome)),
		zap.Int64("prize", result.Prize),
	)
	return result, nil
}

// Leaderboard obtiene la tabla de posiciones
func (rs *ResultService) Leaderboard(ctx context.Context, limit int) (*models.LeaderboardResponse, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}

	results, err := rs.store.Top(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("error obteniendo resultados: %w", err)
	}
	players, winners, err := rs.store.Totals(ctx)
	if err != nil {
		return nil, err
	}

	leaderboard := make([]models.LeaderboardEntry, len(results))
	for i, r := range results {
		leaderboard[i] = models.LeaderboardEntry{
			Position:     i + 1,
			PlayerName:   r.PlayerName,
			CurrentPrize: r.Prize,
			PrizeText:    engine.FormatPrize(r.Prize),
			Status:       r.Outcome.Status(),
			Avatar:       avatars[i%len(avatars)],
			Question:     r.QuestionReached,
		}
	}

	return &models.LeaderboardResponse{
		Leaderboard:  leaderboard,
		TotalPlayers: players,
		Winners:      winners,
	}, nil
}

// PlayerHistory partidas terminadas de un jugador
func (rs *ResultService) PlayerHistory(ctx context.Context, playerName string) ([]models.GameResult, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, ErrPlayerNameRequired
	}
	return rs.store.ByPlayer(ctx, playerName)
}
