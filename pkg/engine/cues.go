package engine

import "fmt"

// Nombres de pistas y efectos. El motor solo los informa; reproducirlos es
// trabajo de la capa de presentación.
const (
	WinCue = "Yes99"

	cueLetsPlayMiddle = "Q6_Lets_Play"
	cueLetsPlayFinal  = "Q11_Lets_Play"
)

// BackgroundCue música de fondo de cada bloque
func BackgroundCue(s Stage) string {
	switch s {
	case StageEarly:
		return "01-facil"
	case StageMiddle:
		return "02-medio"
	default:
		return "03-dificil"
	}
}

// TransitionCue cortina "Let's Play" al entrar a un bloque
func TransitionCue(to Stage) string {
	switch to {
	case StageMiddle:
		return cueLetsPlayMiddle
	case StageFinal:
		return cueLetsPlayFinal
	default:
		return ""
	}
}

// CorrectCue efecto de respuesta correcta para la posición (1-15)
func CorrectCue(position int) string {
	switch {
	case position >= 1 && position <= 5:
		return "Yes01"
	case position >= 6 && position <= 13:
		return fmt.Sprintf("Yes%02d", position)
	case position == 14 || position == 15:
		return "Yes14"
	default:
		return ""
	}
}

// WrongCue efecto de respuesta incorrecta para la posición (1-15)
func WrongCue(position int) string {
	switch {
	case position >= 1 && position <= 5:
		return "No01"
	case position >= 6 && position <= 15:
		return fmt.Sprintf("No%02d", position)
	default:
		return ""
	}
}
