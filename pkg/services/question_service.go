package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/backsoul/millonario/pkg/engine"
	"github.com/backsoul/millonario/pkg/models"
	"github.com/backsoul/millonario/pkg/redis"
)

var (
	ErrInvalidJSON = errors.New("error al leer JSON")
	ErrSetNotFound = errors.New("set de preguntas no encontrado")
)

// QuestionService maneja la lógica de negocio para las preguntas
type QuestionService struct {
	store  QuestionStore
	logger *zap.Logger
}

// NewQuestionService crea una nueva instancia del servicio
func NewQuestionService(store QuestionStore, logger *zap.Logger) *QuestionService {
	return &QuestionService{
		store:  store,
		logger: logger,
	}
}

// ParseQuestionSet decodifica {"questions": [...]}, descarta entradas
// inválidas y ordena por ID. Nunca devuelve un set con menos de 15.
func ParseQuestionSet(data []byte) ([]models.Question, error) {
	var payload models.QuestionsData
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	valid := engine.ValidSorted(payload.Questions)
	if len(valid) < engine.QuestionsPerGame {
		return nil, fmt.Errorf("%w: %d válidas de %d", engine.ErrNotEnoughQuestions, len(valid), len(payload.Questions))
	}
	return valid, nil
}

// LoadQuestionsFromFile lee un archivo JSON y lo guarda como set nuevo
func (s *QuestionService) LoadQuestionsFromFile(ctx context.Context, path, name string) (*models.QuestionSet, error) {
	s.logger.Info("📂 Cargando preguntas desde archivo", zap.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error leyendo archivo JSON: %w", err)
	}

	if strings.TrimSpace(name) == "" {
		name = filepath.Base(path)
	}
	return s.ImportQuestionSet(ctx, name, data)
}

// ImportQuestionSet valida y guarda un set. El primero que se importa queda
// como set por defecto.
func (s *QuestionService) ImportQuestionSet(ctx context.Context, name string, data []byte) (*models.QuestionSet, error) {
	questions, err := ParseQuestionSet(data)
	if err != nil {
		s.logger.Warn("⚠️ Set de preguntas rechazado", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		name = "set sin nombre"
	}
	set := &models.QuestionSet{
		ID:        uuid.New().String(),
		Name:      name,
		Questions: questions,
		LoadedAt:  time.Now().UTC(),
	}

	if err := s.store.SaveQuestionSet(ctx, set); err != nil {
		return nil, err
	}

	if _, err := s.store.GetDefaultSetID(ctx); errors.Is(err, redis.ErrNotFound) {
		if err := s.store.SetDefaultSetID(ctx, set.ID); err != nil {
			s.logger.Warn("⚠️ No se pudo fijar el set por defecto", zap.Error(err))
		}
	}

	s.logger.Info("✅ Set cargado",
		zap.String("set_id", set.ID),
		zap.String("name", set.Name),
		zap.Int("questions", len(set.Questions)),
	)
	return set, nil
}

// ReloadQuestions recarga el archivo configurado y lo deja como set por defecto
func (s *QuestionService) ReloadQuestions(ctx context.Context, path string) (*models.QuestionSet, error) {
	s.logger.Info("🔄 Recargando preguntas...")

	set, err := s.LoadQuestionsFromFile(ctx, path, "")
	if err != nil {
		return nil, fmt.Errorf("error recargando preguntas: %w", err)
	}
	if err := s.store.SetDefaultSetID(ctx, set.ID); err != nil {
		return nil, err
	}
	return set, nil
}

// EnsureDefaultSet carga el archivo inicial solo si todavía no hay set por defecto
func (s *QuestionService) EnsureDefaultSet(ctx context.Context, path string) (*models.QuestionSet, error) {
	if set, err := s.DefaultSet(ctx); err == nil {
		s.logger.Info("✅ Ya hay un set por defecto en Redis",
			zap.String("set_id", set.ID),
			zap.Int("questions", len(set.Questions)),
		)
		return set, nil
	}
	return s.ReloadQuestions(ctx, path)
}

// GetQuestionSet obtiene un set por ID
func (s *QuestionService) GetQuestionSet(ctx context.Context, id string) (*models.QuestionSet, error) {
	set, err := s.store.GetQuestionSet(ctx, id)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSetNotFound, id)
	}
	return set, err
}

// DefaultSet set usado cuando una sesión no indica uno
func (s *QuestionService) DefaultSet(ctx context.Context) (*models.QuestionSet, error) {
	id, err := s.store.GetDefaultSetID(ctx)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, fmt.Errorf("%w: no hay set por defecto", ErrSetNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s.GetQuestionSet(ctx, id)
}

// SetDefaultSet cambia el set por defecto; el set debe existir
func (s *QuestionService) SetDefaultSet(ctx context.Context, id string) error {
	if _, err := s.GetQuestionSet(ctx, id); err != nil {
		return err
	}
	return s.store.SetDefaultSetID(ctx, id)
}

// ListQuestionSets resumen de todos los sets, marcando el default
func (s *QuestionService) ListQuestionSets(ctx context.Context) ([]models.QuestionSetSummary, error) {
	sets, err := s.store.ListQuestionSets(ctx)
	if err != nil {
		return nil, fmt.Errorf("error obteniendo sets: %w", err)
	}

	defaultID, _ := s.store.GetDefaultSetID(ctx)
	summaries := make([]models.QuestionSetSummary, len(sets))
	for i, set := range sets {
		summaries[i] = set.Summary()
		summaries[i].Default = set.ID == defaultID
	}
	return summaries, nil
}

// DeleteQuestionSet elimina un set
func (s *QuestionService) DeleteQuestionSet(ctx context.Context, id string) error {
	err := s.store.DeleteQuestionSet(ctx, id)
	if errors.Is(err, redis.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrSetNotFound, id)
	}
	if err == nil {
		s.logger.Info("🗑️ Set eliminado", zap.String("set_id", id))
	}
	return err
}

// HealthCheck verifica que el servicio esté funcionando
func (s *QuestionService) HealthCheck(ctx context.Context) error {
	if err := s.store.HealthCheck(ctx); err != nil {
		return fmt.Errorf("error en health check de Redis: %w", err)
	}
	return nil
}
