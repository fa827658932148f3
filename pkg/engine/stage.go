// Package engine contiene la máquina de estados del juego: escalera de 15
// preguntas, comodín 50/50 por bloque y la secuencia revelar/avanzar.
//
// El motor es síncrono y no conoce la capa de presentación: cada comando
// emite eventos a un Notifier y la presentación decide cómo mostrarlos.
package engine

// Stage bloque de dificultad de una pregunta
type Stage string

const (
	StageEarly  Stage = "early"
	StageMiddle Stage = "middle"
	StageFinal  Stage = "final"
)

// StageFor clasifica una posición de la escalera (1-15)
func StageFor(position int) Stage {
	switch {
	case position <= 5:
		return StageEarly
	case position <= 10:
		return StageMiddle
	default:
		return StageFinal
	}
}

// Label etiqueta de dificultad que ve el jugador
func (s Stage) Label() string {
	switch s {
	case StageEarly:
		return "Fácil"
	case StageMiddle:
		return "Media"
	default:
		return "Difícil"
	}
}

// Tier nivel de la escalera (1, 2 o 3)
func (s Stage) Tier() int {
	switch s {
	case StageEarly:
		return 1
	case StageMiddle:
		return 2
	default:
		return 3
	}
}
