package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/backsoul/millonario/pkg/models"
)

const resultColumns = `id, session_id, player_name, outcome, prize, question_reached, correct_count, wrong_count, lifelines_used, finished_at`

// ResultRepository guarda partidas terminadas en SQLite
type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Record inserta un resultado
func (r *ResultRepository) Record(ctx context.Context, result models.GameResult) error {
	if strings.TrimSpace(result.ID) == "" {
		return fmt.Errorf("el resultado necesita id")
	}
	if result.FinishedAt.IsZero() {
		result.FinishedAt = time.Now()
	}

	query := `INSERT INTO game_results (` + resultColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		result.ID, result.SessionID, result.PlayerName, string(result.Outcome), result.Prize,
		result.QuestionReached, result.CorrectCount, result.WrongCount, result.LifelinesUsed,
		toMillis(result.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("error guardando resultado %s: %w", result.ID, err)
	}
	return nil
}

// Top mejores resultados: mayor premio, luego más lejos en la escalera, luego el más antiguo
func (r *ResultRepository) Top(ctx context.Context, limit int) ([]models.GameResult, error) {
	query := `SELECT ` + resultColumns + ` FROM game_results
		ORDER BY prize DESC, question_reached DESC, finished_at ASC LIMIT ?`
	return r.getMany(ctx, query, limit)
}

// ByPlayer historial de un jugador, del más reciente al más antiguo
func (r *ResultRepository) ByPlayer(ctx context.Context, playerName string) ([]models.GameResult, error) {
	query := `SELECT ` + resultColumns + ` FROM game_results WHERE player_name = ? ORDER BY finished_at DESC`
	return r.getMany(ctx, query, playerName)
}

// Totals jugadores distintos y cantidad de partidas ganadas
func (r *ResultRepository) Totals(ctx context.Context) (players int, winners int, err error) {
	query := `SELECT COUNT(DISTINCT player_name), COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0) FROM game_results`
	if err := r.db.QueryRowContext(ctx, query, string(models.OutcomeWin)).Scan(&players, &winners); err != nil {
		return 0, 0, fmt.Errorf("error contando resultados: %w", err)
	}
	return players, winners, nil
}

func (r *ResultRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]models.GameResult, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error consultando resultados: %w", err)
	}
	defer rows.Close()

	results := []models.GameResult{}
	for rows.Next() {
		var (
			res        models.GameResult
			outcome    string
			finishedAt int64
		)
		err := rows.Scan(
			&res.ID, &res.SessionID, &res.PlayerName, &outcome, &res.Prize, &res.QuestionReached,
			&res.CorrectCount, &res.WrongCount, &res.LifelinesUsed, &finishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error leyendo resultado: %w", err)
		}
		res.Outcome = models.Outcome(outcome)
		res.FinishedAt = fromMillis(finishedAt)
		results = append(results, res)
	}
	return results, rows.Err()
}
