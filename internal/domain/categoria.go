package domain

import "time"

// Categoria static reference data (truppa, graduati, ...). Immutable once
// referenced by gradi or camere.
type Categoria struct {
	ID          int       `json:"id"`
	Codice      string    `json:"codice"`
	Descrizione string    `json:"descrizione"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`

	Gradi []*Grado `json:"gradi,omitempty"`
}
