package engine

import (
	"time"

	"github.com/backsoul/millonario/pkg/models"
)

// EventType tipo de notificación que el motor emite a la presentación
type EventType string

const (
	EventQuestionReady   EventType = "question-ready"
	EventAnswerSelected  EventType = "answer-selected"
	EventReveal          EventType = "reveal"
	EventCanAdvance      EventType = "can-advance"
	EventStageTransition EventType = "stage-transition"
	EventLifelineApplied EventType = "lifeline-applied"
	EventGameOver        EventType = "game-over"
	EventNotice          EventType = "notice"
)

// Event notificación emitida por un comando. DelayMs es una sugerencia de
// ritmo para la presentación; el estado ya está actualizado al emitirse.
type Event struct {
	Type    EventType   `json:"type"`
	DelayMs int64       `json:"delayMs,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Delay devuelve la pausa sugerida como time.Duration
func (e Event) Delay() time.Duration {
	return time.Duration(e.DelayMs) * time.Millisecond
}

// OptionView estado de un botón de respuesta
type OptionView struct {
	Index   int    `json:"index"`
	Letter  string `json:"letter"`
	Text    string `json:"text"`
	Enabled bool   `json:"enabled"`
}

// LifelineView estado del botón 50/50
type LifelineView struct {
	Available     bool   `json:"available"`
	Label         string `json:"label"`
	LockedForRest bool   `json:"lockedForRest"`
}

// QuestionView todo lo que la presentación necesita para pintar una pregunta
type QuestionView struct {
	Number           int          `json:"number"`
	Total            int          `json:"total"`
	Text             string       `json:"text"`
	Options          []OptionView `json:"options"`
	Stage            Stage        `json:"stage"`
	DifficultyLabel  string       `json:"difficultyLabel"`
	CurrentPrize     int64        `json:"currentPrize"`
	CurrentPrizeText string       `json:"currentPrizeText"`
	LadderPosition   int          `json:"ladderPosition"`
	Lifeline         LifelineView `json:"lifeline"`
	BackgroundCue    string       `json:"backgroundCue"`
}

// SelectionPayload datos de answer-selected
type SelectionPayload struct {
	Index  int    `json:"index"`
	Letter string `json:"letter"`
}

// RevealPayload datos de reveal
type RevealPayload struct {
	IsCorrect           bool   `json:"isCorrect"`
	CorrectIndex        int    `json:"correctIndex"`
	SelectedAnswerIndex int    `json:"selectedAnswerIndex"`
	Cue                 string `json:"cue"`
}

// AdvancePayload datos de can-advance
type AdvancePayload struct {
	NextNumber          int    `json:"nextNumber"`
	GuaranteedPrize     int64  `json:"guaranteedPrize"`
	GuaranteedPrizeText string `json:"guaranteedPrizeText"`
}

// TransitionPayload datos de stage-transition
type TransitionPayload struct {
	From     Stage  `json:"from"`
	To       Stage  `json:"to"`
	Position int    `json:"position"`
	Cue      string `json:"cue"`
}

// LifelinePayload datos de lifeline-applied
type LifelinePayload struct {
	Removed  []int        `json:"removed"`
	Stage    Stage        `json:"stage"`
	Lifeline LifelineView `json:"lifeline"`
}

// GameOverPayload datos de game-over
type GameOverPayload struct {
	Outcome   models.Outcome `json:"outcome"`
	Prize     int64          `json:"prize"`
	PrizeText string         `json:"prizeText"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Cue       string         `json:"cue,omitempty"`
}

// Notifier recibe cada evento del motor
type Notifier interface {
	Notify(event Event)
}

// Recorder acumula eventos hasta que se vacían con Drain
type Recorder struct {
	events []Event
}

// Notify implementa Notifier
func (r *Recorder) Notify(event Event) {
	r.events = append(r.events, event)
}

// Drain devuelve los eventos acumulados y vacía el buffer
func (r *Recorder) Drain() []Event {
	events := r.events
	r.events = nil
	return events
}

func delayMs(d time.Duration) int64 {
	return d.Milliseconds()
}
