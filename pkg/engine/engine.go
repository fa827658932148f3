package engine

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/backsoul/millonario/pkg/models"
)

const (
	// QuestionsPerGame preguntas jugadas por partida
	QuestionsPerGame = 15

	lastIndex = QuestionsPerGame - 1

	DefaultRevealDelay     = 1500 * time.Millisecond
	DefaultTransitionDelay = 8 * time.Second

	lifelineLabel       = "Comodín 50/50"
	lifelineLockedLabel = "50/50 (no disponible)"
)

var (
	ErrNotEnoughQuestions = errors.New("el set necesita mínimo 15 preguntas")
	ErrNoSelection        = errors.New("no hay respuesta seleccionada")
	ErrNoQuestionsLoaded  = errors.New("no hay preguntas cargadas")
	ErrInvalidState       = errors.New("estado de partida inválido")
)

// Phase estado de la máquina visto desde fuera
type Phase string

const (
	PhaseNotLoaded          Phase = "not-loaded"
	PhaseAwaitingSelection  Phase = "awaiting-selection"
	PhaseSelected           Phase = "selected"
	PhaseRevealedContinuing Phase = "revealed-continuing"
	PhaseRevealedTerminal   Phase = "revealed-terminal"
)

// Chooser fuente aleatoria del 50/50. *rand.Rand de math/rand/v2 la cumple.
type Chooser interface {
	Perm(n int) []int
}

// NewChooser crea un Chooser determinista a partir de una semilla
func NewChooser(seed uint64) Chooser {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Engine dueño del GameState de una partida. No es seguro para uso
// concurrente: quien lo aloja debe serializar los comandos.
type Engine struct {
	questions []models.Question
	state     models.GameState

	notifier        Notifier
	chooser         Chooser
	revealDelay     time.Duration
	transitionDelay time.Duration
}

// Option configura un Engine
type Option func(*Engine)

// WithNotifier define quién recibe los eventos
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithChooser inyecta la fuente aleatoria del comodín
func WithChooser(c Chooser) Option {
	return func(e *Engine) {
		e.chooser = c
	}
}

// WithPacing define las pausas sugeridas tras revelar y en cambios de bloque
func WithPacing(reveal, transition time.Duration) Option {
	return func(e *Engine) {
		e.revealDelay = reveal
		e.transitionDelay = transition
	}
}

// New crea un motor sin preguntas cargadas
func New(opts ...Option) *Engine {
	e := &Engine{
		chooser:         NewChooser(uint64(time.Now().UnixNano())),
		revealDelay:     DefaultRevealDelay,
		transitionDelay: DefaultTransitionDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidSorted descarta preguntas inválidas y ordena por ID (estable: IDs
// repetidos quedan en el orden de entrada). Las opciones se copian.
func ValidSorted(questions []models.Question) []models.Question {
	valid := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if !ValidQuestion(q) {
			continue
		}
		q.Options = slices.Clone(q.Options)
		valid = append(valid, q)
	}

	slices.SortStableFunc(valid, func(a, b models.Question) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return valid
}

// PrepareQuestions devuelve las 15 que se juegan. Falla si quedan menos de
// 15 válidas.
func PrepareQuestions(questions []models.Question) ([]models.Question, error) {
	valid := ValidSorted(questions)
	if len(valid) < QuestionsPerGame {
		return nil, fmt.Errorf("%w: hay %d válidas", ErrNotEnoughQuestions, len(valid))
	}
	return valid[:QuestionsPerGame], nil
}

// ValidQuestion indica si una pregunta es jugable
func ValidQuestion(q models.Question) bool {
	if strings.TrimSpace(q.Question) == "" {
		return false
	}
	if len(q.Options) != models.OptionCount {
		return false
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return false
		}
	}
	return q.CorrectIndex >= 0 && q.CorrectIndex < models.OptionCount
}

// LoadQuestions carga un set nuevo y comienza la partida. Si el set no
// sirve el motor queda como estaba.
func (e *Engine) LoadQuestions(questions []models.Question) error {
	played, err := PrepareQuestions(questions)
	if err != nil {
		e.notify(Event{Type: EventNotice, Message: "El set necesita mínimo 15 preguntas."})
		return err
	}

	e.questions = played
	e.start()
	return nil
}

// Restore reconstruye el motor desde un estado guardado, sin emitir eventos
func (e *Engine) Restore(questions []models.Question, state models.GameState) error {
	played, err := PrepareQuestions(questions)
	if err != nil {
		return err
	}

	if state.CurrentIndex < 0 || state.CurrentIndex > lastIndex {
		return fmt.Errorf("%w: índice %d", ErrInvalidState, state.CurrentIndex)
	}
	if sel, ok := state.Selected(); ok && (sel < 0 || sel >= models.OptionCount) {
		return fmt.Errorf("%w: selección %d", ErrInvalidState, sel)
	}

	e.questions = played
	e.state = cloneState(state)
	return nil
}

// SelectAnswer marca la opción i. Se ignora si la partida terminó, si ya se
// reveló o si la opción fue eliminada por el 50/50.
func (e *Engine) SelectAnswer(i int) bool {
	if !e.loaded() || e.state.GameOver || e.state.Revealed {
		return false
	}
	if i < 0 || i >= models.OptionCount || e.state.DisabledOptions[i] {
		return false
	}

	selected := i
	e.state.SelectedAnswerIndex = &selected

	e.notify(Event{
		Type:    EventAnswerSelected,
		Message: fmt.Sprintf("Has seleccionado la opción %s. Pulsa \"Revelar respuesta\".", OptionLetter(i)),
		Data:    SelectionPayload{Index: i, Letter: OptionLetter(i)},
	})
	return true
}

// Reveal resuelve la pregunta actual. El resultado completo (continuar,
// ganar o perder) se calcula aquí; las pausas son solo sugerencias.
func (e *Engine) Reveal() (bool, error) {
	if !e.loaded() || e.state.GameOver || e.state.Revealed {
		return false, nil
	}

	selected, ok := e.state.Selected()
	if !ok {
		e.notify(Event{Type: EventNotice, Message: "Selecciona una respuesta primero."})
		return false, ErrNoSelection
	}

	q := e.questions[e.state.CurrentIndex]
	position := e.state.CurrentIndex + 1
	isCorrect := selected == q.CorrectIndex

	e.state.Revealed = true
	e.state.LastRevealCorrect = isCorrect
	if isCorrect {
		e.state.CorrectCount++
	} else {
		e.state.WrongCount++
	}

	reveal := RevealPayload{
		IsCorrect:           isCorrect,
		CorrectIndex:        q.CorrectIndex,
		SelectedAnswerIndex: selected,
		Cue:                 WrongCue(position),
	}
	msg := "❌ Respuesta incorrecta."
	if isCorrect {
		reveal.Cue = CorrectCue(position)
		msg = "✅ ¡Correcto!"
	}
	e.notify(Event{Type: EventReveal, Message: msg, Data: reveal})

	switch {
	case !isCorrect:
		e.finish(models.OutcomeLoss)
	case e.state.CurrentIndex == lastIndex:
		e.finish(models.OutcomeWin)
	default:
		guaranteed := GuaranteedPrize(position)
		e.notify(Event{
			Type:    EventCanAdvance,
			DelayMs: delayMs(e.revealDelay),
			Message: "✅ ¡Correcto! Pulsa \"Siguiente pregunta\" para continuar.",
			Data: AdvancePayload{
				NextNumber:          position + 1,
				GuaranteedPrize:     guaranteed,
				GuaranteedPrizeText: FormatPrize(guaranteed),
			},
		})
	}

	return true, nil
}

// Advance pasa a la siguiente pregunta. Solo vale tras un acierto revelado.
func (e *Engine) Advance() bool {
	if !e.loaded() || e.state.GameOver || !e.state.Revealed || !e.state.LastRevealCorrect {
		return false
	}
	if e.state.CurrentIndex >= lastIndex {
		return false
	}

	from := e.currentStage()

	e.state.CurrentIndex++
	e.state.SelectedAnswerIndex = nil
	e.state.Revealed = false
	e.state.LastRevealCorrect = false
	e.state.LifelineUsedThisQuestion = false
	e.state.DisabledOptions = [models.OptionCount]bool{}

	e.notifyQuestionReady()

	if to := e.currentStage(); to != from {
		e.notify(Event{
			Type:    EventStageTransition,
			DelayMs: delayMs(e.transitionDelay),
			Data: TransitionPayload{
				From:     from,
				To:       to,
				Position: e.state.CurrentIndex + 1,
				Cue:      TransitionCue(to),
			},
		})
	}

	return true
}

// CanUseLifeline indica si el 50/50 está disponible ahora
func (e *Engine) CanUseLifeline() bool {
	if !e.loaded() {
		return false
	}
	s := e.state
	if s.GameOver || s.Revealed || s.LifelineLockedForRest || s.LifelineUsedThisQuestion {
		return false
	}

	switch e.currentStage() {
	case StageEarly:
		return !s.LifelineUsed.Early
	case StageMiddle:
		return !s.LifelineUsed.Middle
	default:
		return !s.LifelineUsed.Final
	}
}

// UseLifeline aplica el 50/50: elimina hasta dos opciones que no sean la
// correcta ni la seleccionada. Usarlo en el bloque fácil lo bloquea para el
// resto de la partida.
func (e *Engine) UseLifeline() bool {
	if !e.CanUseLifeline() {
		return false
	}

	stage := e.currentStage()
	switch stage {
	case StageEarly:
		e.state.LifelineUsed.Early = true
		e.state.LifelineLockedForRest = true
	case StageMiddle:
		e.state.LifelineUsed.Middle = true
	default:
		e.state.LifelineUsed.Final = true
	}
	e.state.LifelineUsedThisQuestion = true

	q := e.questions[e.state.CurrentIndex]
	selected, hasSelection := e.state.Selected()

	candidates := make([]int, 0, models.OptionCount-1)
	for i := 0; i < models.OptionCount; i++ {
		if i == q.CorrectIndex || (hasSelection && i == selected) || e.state.DisabledOptions[i] {
			continue
		}
		candidates = append(candidates, i)
	}

	removed := make([]int, 0, 2)
	for _, k := range e.chooser.Perm(len(candidates)) {
		if len(removed) == 2 {
			break
		}
		removed = append(removed, candidates[k])
	}
	slices.Sort(removed)

	for _, i := range removed {
		e.state.DisabledOptions[i] = true
	}

	e.notify(Event{
		Type: EventLifelineApplied,
		Data: LifelinePayload{
			Removed:  removed,
			Stage:    stage,
			Lifeline: e.lifelineView(),
		},
	})
	return true
}

// Restart vuelve a empezar con el set ya cargado
func (e *Engine) Restart() error {
	if !e.loaded() {
		e.notify(Event{Type: EventNotice, Message: "Carga un archivo JSON para comenzar."})
		return ErrNoQuestionsLoaded
	}

	e.start()
	return nil
}

// State devuelve una copia del estado actual
func (e *Engine) State() models.GameState {
	return cloneState(e.state)
}

// Phase estado de la máquina
func (e *Engine) Phase() Phase {
	switch {
	case !e.loaded():
		return PhaseNotLoaded
	case e.state.GameOver:
		return PhaseRevealedTerminal
	case e.state.Revealed:
		return PhaseRevealedContinuing
	case e.state.SelectedAnswerIndex != nil:
		return PhaseSelected
	default:
		return PhaseAwaitingSelection
	}
}

// Questions devuelve las 15 preguntas en juego
func (e *Engine) Questions() []models.Question {
	out := make([]models.Question, len(e.questions))
	for i, q := range e.questions {
		q.Options = slices.Clone(q.Options)
		out[i] = q
	}
	return out
}

// CurrentView vista de la pregunta actual, para pintar al reconectar
func (e *Engine) CurrentView() (QuestionView, bool) {
	if !e.loaded() {
		return QuestionView{}, false
	}
	return e.questionView(), true
}

func (e *Engine) loaded() bool {
	return len(e.questions) == QuestionsPerGame
}

func (e *Engine) currentStage() Stage {
	return StageFor(e.state.CurrentIndex + 1)
}

func (e *Engine) start() {
	e.state = models.GameState{}
	e.notifyQuestionReady()
}

func (e *Engine) finish(outcome models.Outcome) {
	e.state.GameOver = true
	e.state.Outcome = outcome

	payload := GameOverPayload{Outcome: outcome}
	var status string
	if outcome == models.OutcomeWin {
		payload.Prize = TopPrize()
		payload.PrizeText = FormatPrize(payload.Prize)
		payload.Title = "¡FELICIDADES!"
		payload.Message = fmt.Sprintf("¡Has ganado el premio máximo de %s!", payload.PrizeText)
		payload.Cue = WinCue
		status = fmt.Sprintf("🎉 ¡Ganaste! Premio: %s", payload.PrizeText)
	} else {
		payload.Prize = GuaranteedPrize(e.state.CurrentIndex)
		payload.PrizeText = FormatPrize(payload.Prize)
		payload.Title = "Fin del juego"
		payload.Message = fmt.Sprintf("Te llevas %s.", payload.PrizeText)
		status = fmt.Sprintf("❌ Fallaste. Te llevas %s.", payload.PrizeText)
	}
	e.state.FinalPrize = payload.Prize

	e.notify(Event{
		Type:    EventGameOver,
		DelayMs: delayMs(e.revealDelay),
		Message: status,
		Data:    payload,
	})
}

func (e *Engine) notifyQuestionReady() {
	e.notify(Event{Type: EventQuestionReady, Data: e.questionView()})
}

func (e *Engine) questionView() QuestionView {
	q := e.questions[e.state.CurrentIndex]
	stage := e.currentStage()
	prize := GuaranteedPrize(e.state.CurrentIndex)

	options := make([]OptionView, len(q.Options))
	for i, text := range q.Options {
		options[i] = OptionView{
			Index:   i,
			Letter:  OptionLetter(i),
			Text:    text,
			Enabled: !e.state.GameOver && !e.state.Revealed && !e.state.DisabledOptions[i],
		}
	}

	return QuestionView{
		Number:           e.state.CurrentIndex + 1,
		Total:            QuestionsPerGame,
		Text:             q.Question,
		Options:          options,
		Stage:            stage,
		DifficultyLabel:  stage.Label(),
		CurrentPrize:     prize,
		CurrentPrizeText: FormatPrize(prize),
		LadderPosition:   e.state.CurrentIndex + 1,
		Lifeline:         e.lifelineView(),
		BackgroundCue:    BackgroundCue(stage),
	}
}

func (e *Engine) lifelineView() LifelineView {
	label := lifelineLabel
	if e.state.LifelineLockedForRest {
		label = lifelineLockedLabel
	}
	return LifelineView{
		Available:     e.CanUseLifeline(),
		Label:         label,
		LockedForRest: e.state.LifelineLockedForRest,
	}
}

func (e *Engine) notify(event Event) {
	if e.notifier != nil {
		e.notifier.Notify(event)
	}
}

// OptionLetter letra de una opción: 0 → "A"
func OptionLetter(i int) string {
	return string(rune('A' + i))
}

func cloneState(s models.GameState) models.GameState {
	if s.SelectedAnswerIndex != nil {
		selected := *s.SelectedAnswerIndex
		s.SelectedAnswerIndex = &selected
	}
	return s
}
