package models

import "time"

// OptionCount número fijo de opciones por pregunta
const OptionCount = 4

// Question estructura para representar una pregunta del juego
type Question struct {
	ID           int      `json:"id"`
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// QuestionsData estructura para el JSON completo del set de preguntas
type QuestionsData struct {
	Questions []Question `json:"questions"`
}

// QuestionSet set de preguntas ya validado y ordenado por ID
type QuestionSet struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
	LoadedAt  time.Time  `json:"loadedAt"`
}

// Summary devuelve la versión resumida del set
func (s *QuestionSet) Summary() QuestionSetSummary {
	return QuestionSetSummary{
		ID:       s.ID,
		Name:     s.Name,
		Count:    len(s.Questions),
		LoadedAt: s.LoadedAt,
	}
}

// Preview versión pública del set: preguntas sin la respuesta correcta
func (s *QuestionSet) Preview() QuestionSetPreview {
	questions := make([]QuestionPreview, len(s.Questions))
	for i, q := range s.Questions {
		questions[i] = QuestionPreview{ID: q.ID, Question: q.Question, Options: q.Options}
	}
	return QuestionSetPreview{QuestionSetSummary: s.Summary(), Questions: questions}
}

// QuestionPreview pregunta sin correctIndex
type QuestionPreview struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuestionSetPreview set tal como lo ven los jugadores
type QuestionSetPreview struct {
	QuestionSetSummary
	Questions []QuestionPreview `json:"questions"`
}

// QuestionSetSummary datos de un set sin las preguntas
type QuestionSetSummary struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Count    int       `json:"count"`
	LoadedAt time.Time `json:"loadedAt"`
	Default  bool      `json:"default"`
}

// APIResponse estructura estándar para respuestas de API
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// QuestionResponse respuesta específica para sets de preguntas
type QuestionResponse struct {
	Set   *QuestionSet         `json:"set,omitempty"`
	Sets  []QuestionSetSummary `json:"sets,omitempty"`
	Count int                  `json:"count,omitempty"`
}
