package models

// Outcome resultado terminal de una partida
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Status estado legible: "playing", "won" o "eliminated"
func (o Outcome) Status() string {
	switch o {
	case OutcomeWin:
		return "won"
	case OutcomeLoss:
		return "eliminated"
	default:
		return "playing"
	}
}

// LifelineFlags uso del comodín 50/50 por bloque
type LifelineFlags struct {
	Early  bool `json:"early"`
	Middle bool `json:"middle"`
	Final  bool `json:"final"`
}

// Count número de bloques en los que se usó el comodín
func (f LifelineFlags) Count() int {
	n := 0
	for _, used := range []bool{f.Early, f.Middle, f.Final} {
		if used {
			n++
		}
	}
	return n
}

// GameState estado completo de una partida. Solo el motor lo modifica.
type GameState struct {
	CurrentIndex             int               `json:"currentIndex"`
	GameOver                 bool              `json:"gameOver"`
	CorrectCount             int               `json:"correctCount"`
	WrongCount               int               `json:"wrongCount"`
	SelectedAnswerIndex      *int              `json:"selectedAnswerIndex"`
	Revealed                 bool              `json:"revealed"`
	LastRevealCorrect        bool              `json:"lastRevealCorrect"`
	LifelineUsed             LifelineFlags     `json:"lifelineUsed"`
	LifelineLockedForRest    bool              `json:"lifelineLockedForRest"`
	LifelineUsedThisQuestion bool              `json:"lifelineUsedThisQuestion"`
	DisabledOptions          [OptionCount]bool `json:"disabledOptions"`
	Outcome                  Outcome           `json:"outcome,omitempty"`
	FinalPrize               int64             `json:"finalPrize"`
}

// Selected devuelve la opción seleccionada, si hay una
func (s GameState) Selected() (int, bool) {
	if s.SelectedAnswerIndex == nil {
		return 0, false
	}
	return *s.SelectedAnswerIndex, true
}
