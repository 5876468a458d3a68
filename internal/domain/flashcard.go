package domain

import "time"

const (
	DefaultCategory = "General"
	MinMastery      = 0
	MaxMastery      = 5
)

type Flashcard struct {
	ID           int64     `json:"id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	UserID       int64     `json:"user_id"`
	Category     string    `json:"category"`
	MasteryLevel int       `json:"mastery_level"`
	CreatedAt    time.Time `json:"created_at"`
}

// MasteryDirection es el sentido de un ajuste de dominio.
type MasteryDirection string

const (
	MasteryIncrease MasteryDirection = "increase"
	MasteryDecrease MasteryDirection = "decrease"
)

func (d MasteryDirection) Valid() bool {
	return d == MasteryIncrease || d == MasteryDecrease
}

// AdjustMastery aplica +1/-1 acotado a [MinMastery, MaxMastery] y reporta si hubo cambio.
func (f *Flashcard) AdjustMastery(dir MasteryDirection) bool {
	switch dir {
	case MasteryIncrease:
		if f.MasteryLevel < MaxMastery {
			f.MasteryLevel++
			return true
		}
	case MasteryDecrease:
		if f.MasteryLevel > MinMastery {
			f.MasteryLevel--
			return true
		}
	}
	return false
}

// SortKey define el orden de listado de flashcards.
type SortKey string

const (
	SortNewest  SortKey = "newest"
	SortOldest  SortKey = "oldest"
	SortMastery SortKey = "mastery"
)
