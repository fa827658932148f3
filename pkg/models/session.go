package models

import "time"

// PrizeLevels escalera de premios, alineada con la posición de la pregunta
var PrizeLevels = []int64{
	1000, 2000, 3000, 5000, 10000,
	20000, 40000, 80000, 160000, 320000,
	640000, 1250000, 2500000, 5000000, 10000000,
}

// GameSession representa la partida de un jugador
type GameSession struct {
	ID             string    `json:"id"`
	PlayerName     string    `json:"playerName"`
	SetID          string    `json:"setId"`
	State          GameState `json:"state"`
	ResultRecorded bool      `json:"resultRecorded"`
	CreatedAt      time.Time `json:"createdAt"`
	LastActivity   time.Time `json:"lastActivity"`
}

// Status estado legible de la sesión: "playing", "won" o "eliminated"
func (s *GameSession) Status() string {
	return s.State.Outcome.Status()
}

// SessionCreateRequest request para crear sesión
type SessionCreateRequest struct {
	PlayerName string `json:"playerName"`
	SetID      string `json:"setId,omitempty"`
}

// Acciones que la capa de presentación puede enviar al motor
const (
	ActionLoad     = "load"
	ActionSelect   = "select"
	ActionReveal   = "reveal"
	ActionAdvance  = "advance"
	ActionLifeline = "lifeline"
	ActionRestart  = "restart"
)

// Intent intención del usuario enviada por HTTP o WebSocket
type Intent struct {
	Action string `json:"action"`
	Index  *int   `json:"index,omitempty"` // obligatorio en select
	SetID  string `json:"setId,omitempty"`
}

// GameResult partida terminada, guardada para la tabla de posiciones
type GameResult struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"sessionId"`
	PlayerName      string    `json:"playerName"`
	Outcome         Outcome   `json:"outcome"`
	Prize           int64     `json:"prize"`
	QuestionReached int       `json:"questionReached"`
	CorrectCount    int       `json:"correctCount"`
	WrongCount      int       `json:"wrongCount"`
	LifelinesUsed   int       `json:"lifelinesUsed"`
	FinishedAt      time.Time `json:"finishedAt"`
}

// LeaderboardEntry entrada en la tabla de posiciones
type LeaderboardEntry struct {
	Position     int    `json:"position"`
	PlayerName   string `json:"playerName"`
	CurrentPrize int64  `json:"currentPrize"`
	PrizeText    string `json:"prizeText"`
	Status       string `json:"status"` // "won" o "eliminated"
	Avatar       string `json:"avatar"`
	Question     int    `json:"question"`
}

// LeaderboardResponse respuesta de la tabla de posiciones
type LeaderboardResponse struct {
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
	TotalPlayers int                `json:"totalPlayers"`
	Winners      int                `json:"winners"`
}
