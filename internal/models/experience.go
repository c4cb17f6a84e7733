package models

import "time"

type Experience struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	College   string    `json:"college" db:"college"`
	Branch    string    `json:"branch" db:"branch"`
	CGPA      float64   `json:"cgpa" db:"cgpa"`
	Company   string    `json:"company" db:"company"`
	Role      string    `json:"role" db:"role"`
	Year      int       `json:"year" db:"year"`
	Round1    string    `json:"round1,omitempty" db:"round1"`
	Round2    string    `json:"round2,omitempty" db:"round2"`
	Round3    string    `json:"round3,omitempty" db:"round3"`
	UID       string    `json:"uid" db:"uid"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Rounds возвращает тексты раундов по порядку, пустая строка означает отсутствие раунда.
func (e Experience) Rounds() [3]string {
	return [3]string{e.Round1, e.Round2, e.Round3}
}

// Identity is the already-authenticated submitter.
type Identity struct {
	UID   string
	Email string
}
