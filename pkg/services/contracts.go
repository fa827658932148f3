package services

import (
	"context"
	"time"

	"github.com/backsoul/millonario/pkg/engine"
	"github.com/backsoul/millonario/pkg/models"
)

// QuestionStore persistencia de sets de preguntas (Redis en producción)
type QuestionStore interface {
	SaveQuestionSet(ctx context.Context, set *models.QuestionSet) error
	GetQuestionSet(ctx context.Context, id string) (*models.QuestionSet, error)
	ListQuestionSets(ctx context.Context) ([]*models.QuestionSet, error)
	DeleteQuestionSet(ctx context.Context, id string) error
	GetDefaultSetID(ctx context.Context) (string, error)
	SetDefaultSetID(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error
}

// SessionStore persistencia de snapshots de sesión
type SessionStore interface {
	SaveSession(ctx context.Context, session *models.GameSession, ttl time.Duration) error
	GetSession(ctx context.Context, id string) (*models.GameSession, error)
	DeleteSession(ctx context.Context, id string) error
	ListSessionIDs(ctx context.Context) ([]string, error)
}

// ResultStore persistencia de partidas terminadas (SQLite)
type ResultStore interface {
	Record(ctx context.Context, result models.GameResult) error
	Top(ctx context.Context, limit int) ([]models.GameResult, error)
	ByPlayer(ctx context.Context, playerName string) ([]models.GameResult, error)
	Totals(ctx context.Context) (players int, winners int, err error)
}

// Broadcaster reparte los eventos de una sesión a sus clientes conectados
type Broadcaster interface {
	Broadcast(sessionID string, event engine.Event)
}
