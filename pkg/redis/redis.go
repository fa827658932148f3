package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/backsoul/millonario/pkg/models"
)

const (
	keySetPrefix      = "quiz:set:"
	keySetIDs         = "quiz:set_ids"
	keyDefaultSet     = "quiz:default_set"
	keySessionPrefix  = "quiz:session:"
	keyActiveSessions = "quiz:active_sessions"
)

// ErrNotFound la clave no existe en Redis
var ErrNotFound = errors.New("no encontrado en redis")

// RedisClient estructura para manejar conexiones con Redis
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient crea el cliente y verifica la conexión
func NewRedisClient(ctx context.Context, addr, password string, db int) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("error conectando a redis en %s: %w", addr, err)
	}

	return &RedisClient{client: rdb}, nil
}

// NewFromClient envuelve un cliente ya creado
func NewFromClient(rdb *redis.Client) *RedisClient {
	return &RedisClient{client: rdb}
}

// SaveQuestionSet guarda un set de preguntas y lo agrega al índice
func (r *RedisClient) SaveQuestionSet(ctx context.Context, set *models.QuestionSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("error serializando set %s: %w", set.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, keySetPrefix+set.ID, data, 0)
	pipe.SAdd(ctx, keySetIDs, set.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error guardando set %s: %w", set.ID, err)
	}
	return nil
}

// GetQuestionSet obtiene un set por ID
func (r *RedisClient) GetQuestionSet(ctx context.Context, id string) (*models.QuestionSet, error) {
	data, err := r.client.Get(ctx, keySetPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("set %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("error obteniendo set %s: %w", id, err)
	}

	var set models.QuestionSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("error parseando set %s: %w", id, err)
	}
	return &set, nil
}

// ListQuestionSets devuelve todos los sets, del más reciente al más antiguo
func (r *RedisClient) ListQuestionSets(ctx context.Context) ([]*models.QuestionSet, error) {
	ids, err := r.client.SMembers(ctx, keySetIDs).Result()
	if err != nil {
		return nil, fmt.Errorf("error obteniendo IDs de sets: %w", err)
	}

	sets := make([]*models.QuestionSet, 0, len(ids))
	for _, id := range ids {
		set, err := r.GetQuestionSet(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// índice desfasado, se limpia
			r.client.SRem(ctx, keySetIDs, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}

	sort.Slice(sets, func(i, j int) bool {
		return sets[i].LoadedAt.After(sets[j].LoadedAt)
	})
	return sets, nil
}

// DeleteQuestionSet elimina un set; si era el default también limpia esa clave
func (r *RedisClient) DeleteQuestionSet(ctx context.Context, id string) error {
	removed, err := r.client.Del(ctx, keySetPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("error eliminando set %s: %w", id, err)
	}
	r.client.SRem(ctx, keySetIDs, id)
	if removed == 0 {
		return fmt.Errorf("set %s: %w", id, ErrNotFound)
	}

	current, err := r.GetDefaultSetID(ctx)
	if err == nil && current == id {
		r.client.Del(ctx, keyDefaultSet)
	}
	return nil
}

// GetDefaultSetID ID del set usado cuando una sesión no indica uno
func (r *RedisClient) GetDefaultSetID(ctx context.Context) (string, error) {
	id, err := r.client.Get(ctx, keyDefaultSet).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("set por defecto: %w", ErrNotFound)
		}
		return "", fmt.Errorf("error obteniendo set por defecto: %w", err)
	}
	return id, nil
}

// SetDefaultSetID define el set por defecto
func (r *RedisClient) SetDefaultSetID(ctx context.Context, id string) error {
	if err := r.client.Set(ctx, keyDefaultSet, id, 0).Err(); err != nil {
		return fmt.Errorf("error guardando set por defecto: %w", err)
	}
	return nil
}

// SaveSession guarda el snapshot de una sesión con expiración
func (r *RedisClient) SaveSession(ctx context.Context, session *models.GameSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("error serializando sesión %s: %w", session.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, keySessionPrefix+session.ID, data, ttl)
	pipe.SAdd(ctx, keyActiveSessions, session.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error guardando sesión %s: %w", session.ID, err)
	}
	return nil
}

// GetSession obtiene el snapshot de una sesión
func (r *RedisClient) GetSession(ctx context.Context, id string) (*models.GameSession, error) {
	data, err := r.client.Get(ctx, keySessionPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("sesión %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("error obteniendo sesión %s: %w", id, err)
	}

	var session models.GameSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("error parseando sesión %s: %w", id, err)
	}
	return &session, nil
}

// DeleteSession elimina el snapshot de una sesión
func (r *RedisClient) DeleteSession(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, keySessionPrefix+id)
	pipe.SRem(ctx, keyActiveSessions, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error eliminando sesión %s: %w", id, err)
	}
	return nil
}

// ListSessionIDs IDs de sesiones activas; descarta las que ya expiraron
func (r *RedisClient) ListSessionIDs(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, keyActiveSessions).Result()
	if err != nil {
		return nil, fmt.Errorf("error obteniendo sesiones activas: %w", err)
	}

	alive := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := r.client.Exists(ctx, keySessionPrefix+id).Result()
		if err != nil {
			return nil, fmt.Errorf("error verificando sesión %s: %w", id, err)
		}
		if n == 0 {
			r.client.SRem(ctx, keyActiveSessions, id)
			continue
		}
		alive = append(alive, id)
	}
	sort.Strings(alive)
	return alive, nil
}

// Close cierra la conexión con Redis
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// HealthCheck verifica que Redis esté funcionando
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
