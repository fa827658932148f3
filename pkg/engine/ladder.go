package engine

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/backsoul/millonario/pkg/models"
)

var prizeLocale = language.MustParse("es-CL")

// Rung peldaño de la escalera de premios
type Rung struct {
	Position  int    `json:"position"`
	Prize     int64  `json:"prize"`
	PrizeText string `json:"prizeText"`
	Stage     Stage  `json:"stage"`
	Tier      int    `json:"tier"`
}

// Ladder devuelve la escalera completa, de la pregunta 1 a la 15
func Ladder() []Rung {
	rungs := make([]Rung, len(models.PrizeLevels))
	for i, prize := range models.PrizeLevels {
		rungs[i] = Rung{
			Position:  i + 1,
			Prize:     prize,
			PrizeText: FormatPrize(prize),
			Stage:     StageFor(i + 1),
			Tier:      StageFor(i + 1).Tier(),
		}
	}
	return rungs
}

// GuaranteedPrize premio asegurado estando en la pregunta index (0-based):
// el valor de la última pregunta superada, o 0 en la primera.
func GuaranteedPrize(index int) int64 {
	if index <= 0 {
		return 0
	}
	if index > len(models.PrizeLevels) {
		index = len(models.PrizeLevels)
	}
	return models.PrizeLevels[index-1]
}

// TopPrize premio máximo
func TopPrize() int64 {
	return models.PrizeLevels[len(models.PrizeLevels)-1]
}

// FormatPrize formatea un monto al estilo es-CL ("$10.000")
func FormatPrize(amount int64) string {
	return "$" + message.NewPrinter(prizeLocale).Sprintf("%d", amount)
}
